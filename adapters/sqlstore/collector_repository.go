package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"decisionsim/domain/core"
	"decisionsim/ports"

	"github.com/jmoiron/sqlx"
)

// collectorRepository implements ports.CollectorRepository
type collectorRepository struct {
	db *sqlx.DB
}

// NewCollectorRepository creates a collector repository
func NewCollectorRepository(db *sqlx.DB) ports.CollectorRepository {
	return &collectorRepository{db: db}
}

// insertReturningID runs an INSERT ... RETURNING id
func insertReturningID(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := sqlx.GetContext(ctx, q, &id, query+" RETURNING id", args...); err != nil {
		return 0, err
	}
	return id, nil
}

// CreateEvent registers an event for a unit
func (r *collectorRepository) CreateEvent(ctx context.Context, unitID int64, name string, active bool) (int64, error) {
	query := r.db.Rebind(`INSERT INTO collector_events (unit_id, name, active, created_at) VALUES (?, ?, ?, ?)`)

	id, err := insertReturningID(ctx, r.db, query, unitID, name, active, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create event: %w", err)
	}
	return id, nil
}

// ActiveEvent returns the most recent active event of a unit
func (r *collectorRepository) ActiveEvent(ctx context.Context, unitID int64) (int64, error) {
	query := r.db.Rebind(`SELECT id FROM collector_events
		WHERE unit_id = ? AND active = ?
		ORDER BY id DESC LIMIT 1`)

	var id int64
	err := r.db.GetContext(ctx, &id, query, unitID, true)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.NewNotFoundError("active event for unit", fmt.Sprint(unitID))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get active event: %w", err)
	}
	return id, nil
}

// CreateGroup registers a group, returning the existing id when the name is
// already taken in the same event and unit
func (r *collectorRepository) CreateGroup(ctx context.Context, eventID, unitID int64, name string) (int64, error) {
	lookup := r.db.Rebind(`SELECT id FROM collector_groups WHERE event_id = ? AND unit_id = ? AND name = ?`)

	var id int64
	err := r.db.GetContext(ctx, &id, lookup, eventID, unitID, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up group: %w", err)
	}

	insert := r.db.Rebind(`INSERT INTO collector_groups (event_id, unit_id, name, created_at) VALUES (?, ?, ?, ?)`)
	id, err = insertReturningID(ctx, r.db, insert, eventID, unitID, name, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create group: %w", err)
	}
	return id, nil
}

// ListGroups returns the groups of an event and unit in registration order
func (r *collectorRepository) ListGroups(ctx context.Context, eventID, unitID int64) ([]ports.Group, error) {
	query := r.db.Rebind(`SELECT id, name FROM collector_groups WHERE event_id = ? AND unit_id = ? ORDER BY id`)

	groups := []ports.Group{}
	if err := r.db.SelectContext(ctx, &groups, query, eventID, unitID); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// SaveAnswer stores an answer and its items atomically
func (r *collectorRepository) SaveAnswer(ctx context.Context, a ports.StoredAnswer) error {
	deltaJSON, err := json.Marshal(a.Delta)
	if err != nil {
		return fmt.Errorf("failed to marshal delta: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	answered, err := hasAnswered(ctx, tx, a.EventID, a.GroupID, a.QuestionID)
	if err != nil {
		return err
	}
	if answered {
		return fmt.Errorf("question %d for group %d: %w", a.QuestionID, a.GroupID, core.ErrAlreadyAnswered)
	}

	receivedAt := a.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	insert := tx.Rebind(`INSERT INTO collector_answers
		(event_id, unit_id, group_id, group_name, question_id, delta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	answerID, err := insertReturningID(ctx, tx, insert,
		a.EventID, a.UnitID, a.GroupID, a.GroupName, a.QuestionID, string(deltaJSON), receivedAt)
	if err != nil {
		return fmt.Errorf("failed to insert answer: %w", err)
	}

	itemInsert := tx.Rebind(`INSERT INTO collector_answer_items
		(answer_id, item_key, item_label, value_text, value_num, is_correct, delta)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, item := range a.Items {
		itemDelta, err := json.Marshal(item.Delta)
		if err != nil {
			return fmt.Errorf("failed to marshal item delta: %w", err)
		}
		if _, err := tx.ExecContext(ctx, itemInsert,
			answerID, item.Key, item.Label, item.ValueText, item.ValueNum, item.IsCorrect, string(itemDelta),
		); err != nil {
			return fmt.Errorf("failed to insert item %s: %w", item.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit answer: %w", err)
	}
	return nil
}

// HasAnswered reports whether the group already answered the question
func (r *collectorRepository) HasAnswered(ctx context.Context, eventID, groupID int64, questionID int) (bool, error) {
	return hasAnswered(ctx, r.db, eventID, groupID, questionID)
}

func hasAnswered(ctx context.Context, q sqlx.ExtContext, eventID, groupID int64, questionID int) (bool, error) {
	query := q.Rebind(`SELECT COUNT(*) FROM collector_answers WHERE event_id = ? AND group_id = ? AND question_id = ?`)

	var count int
	if err := sqlx.GetContext(ctx, q, &count, query, eventID, groupID, questionID); err != nil {
		return false, fmt.Errorf("failed to check answer: %w", err)
	}
	return count > 0, nil
}

// GroupTotals sums every stored delta of a group per aspect
func (r *collectorRepository) GroupTotals(ctx context.Context, eventID, unitID, groupID int64) (map[string]int, error) {
	query := r.db.Rebind(`SELECT delta FROM collector_answers WHERE event_id = ? AND unit_id = ? AND group_id = ?`)

	var deltas []string
	if err := r.db.SelectContext(ctx, &deltas, query, eventID, unitID, groupID); err != nil {
		return nil, fmt.Errorf("failed to load deltas: %w", err)
	}

	totals := make(map[string]int)
	for _, raw := range deltas {
		var delta map[string]int
		if err := json.Unmarshal([]byte(raw), &delta); err != nil {
			return nil, fmt.Errorf("failed to decode stored delta: %w", err)
		}
		for aspect, n := range delta {
			totals[aspect] += n
		}
	}
	return totals, nil
}

// SaveSession stores a completed session summary
func (r *collectorRepository) SaveSession(ctx context.Context, s ports.StoredSession) error {
	receivedAt := s.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`INSERT INTO collector_sessions
		(session_id, set_name, event_id, unit_id, group_id, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query,
		s.SessionID, s.SetName, s.EventID, s.UnitID, s.GroupID, string(s.Payload), receivedAt,
	); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
