package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrStageNotFound   = fmt.Errorf("%w: stage", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrStageSetUnknown = fmt.Errorf("%w: stage set", ErrNotFound)

	// Configuration errors
	ErrConfigInvalid  = errors.New("invalid stage set configuration")
	ErrUnknownAspect  = errors.New("unknown aspect")
	ErrDuplicateStage = errors.New("duplicate stage id")

	// Transition errors
	ErrSessionCompleted = errors.New("session already completed")
	ErrInvalidAnswer    = errors.New("invalid answer")
	ErrAlreadyAnswered  = errors.New("stage already answered")

	// Sync errors
	ErrSyncFailed = errors.New("remote sync failed")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: validation failed for %s: %s", ErrConfigInvalid, field, reason)
}

func NewInvalidAnswerError(stageID int, reason string) error {
	return fmt.Errorf("%w for stage %d: %s", ErrInvalidAnswer, stageID, reason)
}

func NewUnknownAspectError(where string, aspect string) error {
	return fmt.Errorf("%w %q in %s", ErrUnknownAspect, aspect, where)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrConfigInvalid) ||
		errors.Is(err, ErrUnknownAspect) ||
		errors.Is(err, ErrDuplicateStage)
}

func IsTransitionError(err error) bool {
	return errors.Is(err, ErrSessionCompleted) ||
		errors.Is(err, ErrInvalidAnswer) ||
		errors.Is(err, ErrAlreadyAnswered)
}

// ConnectionMessage is reported when the collector cannot be reached or answers garbage
const ConnectionMessage = "Erro de conexão com o servidor"

// SyncError is a failed exchange with the remote collector. Message is safe
// to show to participants: either the collector's own message or
// ConnectionMessage.
type SyncError struct {
	Op      string
	Message string
	Cause   error
}

func (e *SyncError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *SyncError) Unwrap() error { return e.Cause }

// Is makes every SyncError match ErrSyncFailed
func (e *SyncError) Is(target error) bool { return target == ErrSyncFailed }

// SyncMessage extracts the participant message of a sync failure
func SyncMessage(err error) string {
	var syncErr *SyncError
	if errors.As(err, &syncErr) && syncErr.Message != "" {
		return syncErr.Message
	}
	return ConnectionMessage
}
