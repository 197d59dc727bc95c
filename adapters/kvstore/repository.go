package kvstore

import (
	"context"
	"encoding/json"
	"strconv"

	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/session"
	"decisionsim/internal"
	"decisionsim/ports"
)

// Storage keys
const (
	KeyScore       = "score"
	KeyTrail       = "trail"
	KeyStageIndex  = "stage_index"
	KeySessionID   = "session_id"
	KeySetName     = "set_name"
	KeyFingerprint = "fingerprint"
	KeyStartedAt   = "started_at"
	KeyEventID     = "event_id"
	KeyUnitID      = "unit_id"
	KeyUnitCode    = "unit_code"
	KeyGroupID     = "group_id"
	KeyGroupName   = "group_name"
	KeyHistory     = "history"
)

var sessionKeys = []string{
	KeyScore, KeyTrail, KeyStageIndex, KeySessionID, KeySetName, KeyFingerprint, KeyStartedAt,
}

// SessionRepository implements ports.SessionRepository over any KVStore.
// Each field lives under its own key as JSON. Corrupt values are logged and
// treated as absent.
type SessionRepository struct {
	kv     ports.KVStore
	logger *internal.Logger
}

// NewSessionRepository wraps kv
func NewSessionRepository(kv ports.KVStore, logger *internal.Logger) *SessionRepository {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SessionRepository{kv: kv, logger: logger}
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

// LoadSession assembles the session from its keys. A missing or corrupt
// session id, score or pointer yields core.ErrSessionNotFound.
func (r *SessionRepository) LoadSession(ctx context.Context) (*session.Session, error) {
	var rawID string
	ok, err := r.getJSON(ctx, KeySessionID, &rawID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	id, err := core.ParseSessionID(rawID)
	if err != nil {
		r.logger.Warn("discarding stored session: %v", err)
		return nil, core.ErrSessionNotFound
	}

	s := &session.Session{ID: id, Trail: []session.Entry{}}

	var score aspect.Score
	if ok, err := r.getJSON(ctx, KeyScore, &score); err != nil {
		return nil, err
	} else if !ok || score == nil {
		return nil, core.ErrSessionNotFound
	}
	s.Score = score

	if ok, err := r.getJSON(ctx, KeyStageIndex, &s.StageIndex); err != nil {
		return nil, err
	} else if !ok {
		return nil, core.ErrSessionNotFound
	}

	if _, err := r.getJSON(ctx, KeyTrail, &s.Trail); err != nil {
		return nil, err
	}
	if s.Trail == nil {
		s.Trail = []session.Entry{}
	}
	if _, err := r.getJSON(ctx, KeySetName, &s.SetName); err != nil {
		return nil, err
	}
	if _, err := r.getJSON(ctx, KeyFingerprint, &s.Fingerprint); err != nil {
		return nil, err
	}
	if _, err := r.getJSON(ctx, KeyStartedAt, &s.StartedAt); err != nil {
		return nil, err
	}
	s.UpdatedAt = s.StartedAt
	if n := len(s.Trail); n > 0 {
		s.UpdatedAt = s.Trail[n-1].AnsweredAt
	}

	return s, nil
}

// SaveSession writes every session key
func (r *SessionRepository) SaveSession(ctx context.Context, s *session.Session) error {
	values := map[string]interface{}{
		KeyScore:       s.Score,
		KeyTrail:       s.Trail,
		KeyStageIndex:  s.StageIndex,
		KeySessionID:   s.ID.String(),
		KeySetName:     s.SetName,
		KeyFingerprint: s.Fingerprint,
		KeyStartedAt:   s.StartedAt,
	}
	for _, key := range sessionKeys {
		if err := r.setJSON(ctx, key, values[key]); err != nil {
			return err
		}
	}
	return nil
}

// ClearSession removes every session key, leaving group ids and history
func (r *SessionRepository) ClearSession(ctx context.Context) error {
	for _, key := range sessionKeys {
		if err := r.kv.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// LoadGroup reads the group identifiers. Ids are stored as plain decimal
// strings; invalid values read as zero.
func (r *SessionRepository) LoadGroup(ctx context.Context) (session.GroupContext, error) {
	var g session.GroupContext
	var err error
	if g.EventID, err = r.getInt(ctx, KeyEventID); err != nil {
		return g, err
	}
	if g.UnitID, err = r.getInt(ctx, KeyUnitID); err != nil {
		return g, err
	}
	if g.GroupID, err = r.getInt(ctx, KeyGroupID); err != nil {
		return g, err
	}
	if g.UnitCode, _, err = r.kv.Get(ctx, KeyUnitCode); err != nil {
		return g, err
	}
	if g.GroupName, _, err = r.kv.Get(ctx, KeyGroupName); err != nil {
		return g, err
	}
	return g, nil
}

// SaveGroup writes the group identifiers; zero values remove their key
func (r *SessionRepository) SaveGroup(ctx context.Context, g session.GroupContext) error {
	ints := []struct {
		key   string
		value int64
	}{
		{KeyEventID, g.EventID},
		{KeyUnitID, g.UnitID},
		{KeyGroupID, g.GroupID},
	}
	for _, field := range ints {
		if err := r.setOrRemove(ctx, field.key, field.value != 0, strconv.FormatInt(field.value, 10)); err != nil {
			return err
		}
	}
	if err := r.setOrRemove(ctx, KeyUnitCode, g.UnitCode != "", g.UnitCode); err != nil {
		return err
	}
	return r.setOrRemove(ctx, KeyGroupName, g.GroupName != "", g.GroupName)
}

// AppendHistory adds summary to the end of the stored history
func (r *SessionRepository) AppendHistory(ctx context.Context, summary session.Summary) error {
	history, err := r.ListHistory(ctx)
	if err != nil {
		return err
	}
	return r.setJSON(ctx, KeyHistory, append(history, summary))
}

// ListHistory returns the stored summaries, oldest first
func (r *SessionRepository) ListHistory(ctx context.Context) ([]session.Summary, error) {
	var history []session.Summary
	if _, err := r.getJSON(ctx, KeyHistory, &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = []session.Summary{}
	}
	return history, nil
}

// ClearHistory drops the summaries of setName and keeps the other sets'.
// An empty setName removes the whole history.
func (r *SessionRepository) ClearHistory(ctx context.Context, setName string) error {
	if setName == "" {
		return r.kv.Remove(ctx, KeyHistory)
	}
	history, err := r.ListHistory(ctx)
	if err != nil {
		return err
	}
	kept := history[:0]
	for _, s := range history {
		if s.SetName != setName {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return r.kv.Remove(ctx, KeyHistory)
	}
	return r.setJSON(ctx, KeyHistory, kept)
}

// getJSON decodes key into dst. It reports false when the key is absent or
// its value does not decode.
func (r *SessionRepository) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		r.logger.Warn("ignoring corrupt value for key %s: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (r *SessionRepository) setJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, key, string(data))
}

func (r *SessionRepository) getInt(ctx context.Context, key string) (int64, error) {
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.logger.Warn("ignoring non numeric value for key %s", key)
		return 0, nil
	}
	return n, nil
}

func (r *SessionRepository) setOrRemove(ctx context.Context, key string, present bool, value string) error {
	if !present {
		return r.kv.Remove(ctx, key)
	}
	return r.kv.Set(ctx, key, value)
}
