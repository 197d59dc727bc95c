package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"decisionsim/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. The code is inherited from an
// AppError cause, derived from domain sentinels otherwise.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the outermost AppError code, a code derived from the domain
// sentinel in the chain, or INTERNAL_ERROR
func GetCode(err error) string {
	if err == nil {
		return "UNKNOWN"
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case stderrors.Is(err, core.ErrSessionCompleted):
		return CodeSessionCompleted
	case stderrors.Is(err, core.ErrInvalidAnswer):
		return CodeInvalidAnswer
	case stderrors.Is(err, core.ErrAlreadyAnswered):
		return CodeAlreadyAnswered
	case stderrors.Is(err, core.ErrNotFound):
		return CodeNotFound
	case stderrors.Is(err, core.ErrConfigInvalid), stderrors.Is(err, core.ErrUnknownAspect),
		stderrors.Is(err, core.ErrDuplicateStage):
		return CodeConfigInvalid
	case stderrors.Is(err, core.ErrSyncFailed):
		return CodeExternalService
	}
	return CodeInternalError
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeStorageError     = "STORAGE_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeExternalService  = "EXTERNAL_SERVICE_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeSessionCompleted = "SESSION_COMPLETED"
	CodeInvalidAnswer    = "INVALID_ANSWER"
	CodeAlreadyAnswered  = "ALREADY_ANSWERED"
)

// Participant-facing messages
const (
	MessageSaveFailed      = "Não foi possível salvar"
	MessageSubmitFailed    = "Não foi possível enviar a resposta"
	MessageAlreadyAnswered = "Esta questão já foi respondida"
	MessageNotFound        = "Não encontrado"
)

// UserMessage maps an error to one of the short messages shown to participants
func UserMessage(err error) string {
	switch GetCode(err) {
	case CodeAlreadyAnswered:
		return MessageAlreadyAnswered
	case CodeNotFound:
		return MessageNotFound
	case CodeStorageError:
		return MessageSaveFailed
	default:
		return MessageSubmitFailed
	}
}

// HTTPStatus maps an error code to a response status
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidAnswer, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeSessionCompleted, CodeAlreadyAnswered:
		return http.StatusConflict
	case CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func StorageError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeStorageError,
		Message: message,
		Cause:   cause,
	}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
