package ports

import (
	"context"
	"time"
)

// StoredItem is one per-item row of a stored answer
type StoredItem struct {
	Key       string         `db:"item_key" json:"item_key"`
	Label     string         `db:"item_label" json:"item_label"`
	ValueText *string        `db:"value_text" json:"value_text,omitempty"`
	ValueNum  *float64       `db:"value_num" json:"value_num,omitempty"`
	IsCorrect int            `db:"is_correct" json:"is_correct"`
	Delta     map[string]int `db:"-" json:"delta"`
}

// StoredAnswer is an answer as received by the collector server
type StoredAnswer struct {
	EventID    int64
	UnitID     int64
	GroupID    int64
	GroupName  string
	QuestionID int
	Delta      map[string]int
	Items      []StoredItem
	ReceivedAt time.Time
}

// StoredSession is a completed session summary as received by the collector
type StoredSession struct {
	EventID    int64
	UnitID     int64
	GroupID    int64
	SessionID  string
	SetName    string
	Payload    []byte
	ReceivedAt time.Time
}

// CollectorRepository is the storage behind the reference collector server.
// SaveAnswer returns core.ErrAlreadyAnswered for a repeated question and
// ActiveEvent returns a core.ErrNotFound wrap when no event is active.
type CollectorRepository interface {
	CreateEvent(ctx context.Context, unitID int64, name string, active bool) (int64, error)
	ActiveEvent(ctx context.Context, unitID int64) (int64, error)
	CreateGroup(ctx context.Context, eventID, unitID int64, name string) (int64, error)
	ListGroups(ctx context.Context, eventID, unitID int64) ([]Group, error)
	SaveAnswer(ctx context.Context, a StoredAnswer) error
	HasAnswered(ctx context.Context, eventID, groupID int64, questionID int) (bool, error)
	GroupTotals(ctx context.Context, eventID, unitID, groupID int64) (map[string]int, error)
	SaveSession(ctx context.Context, s StoredSession) error
}
