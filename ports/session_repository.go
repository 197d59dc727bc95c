package ports

import (
	"context"

	"decisionsim/domain/session"
)

// SessionRepository persists the participant's session, group identifiers
// and the history of completed summaries. Implementations return
// core.ErrSessionNotFound when nothing usable is stored.
type SessionRepository interface {
	// LoadSession returns the persisted session
	LoadSession(ctx context.Context) (*session.Session, error)

	// SaveSession persists the full session snapshot
	SaveSession(ctx context.Context, s *session.Session) error

	// ClearSession removes the persisted session
	ClearSession(ctx context.Context) error

	// LoadGroup returns the stored group identifiers, zero values when absent
	LoadGroup(ctx context.Context) (session.GroupContext, error)

	// SaveGroup persists the group identifiers
	SaveGroup(ctx context.Context, g session.GroupContext) error

	// AppendHistory records a completed session summary
	AppendHistory(ctx context.Context, summary session.Summary) error

	// ListHistory returns completed summaries, oldest first
	ListHistory(ctx context.Context) ([]session.Summary, error)

	// ClearHistory removes the summaries of setName, or every summary when
	// setName is empty
	ClearHistory(ctx context.Context, setName string) error
}
