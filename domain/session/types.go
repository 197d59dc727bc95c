// Package session holds the participant's progress through a stage set:
// the running Score, the position pointer and the append-only decision trail.
package session

import (
	"fmt"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
)

// State is InProgress(Index) while Index < total stages, Completed after
type State struct {
	Index     int  `json:"index"`
	Total     int  `json:"total"`
	Completed bool `json:"completed"`
}

// String renders the state for logs
func (s State) String() string {
	if s.Completed {
		return "completed"
	}
	return fmt.Sprintf("in_progress(%d/%d)", s.Index+1, s.Total)
}

// Entry is one immutable record of the decision trail
type Entry struct {
	Ordinal       int            `json:"ordinal"`
	StageID       int            `json:"stage_id"`
	Title         string         `json:"title"`
	Kind          stage.Kind     `json:"kind"`
	Choice        string         `json:"choice"`
	Note          string         `json:"note,omitempty"`
	Effect        aspect.Effect  `json:"effect"`
	Justification string         `json:"justification,omitempty"`
	AnsweredAt    core.Timestamp `json:"answered_at"`
}

// Session is a single play-through of a stage set
type Session struct {
	ID          core.SessionID      `json:"id"`
	SetName     string              `json:"set_name"`
	Fingerprint core.SetFingerprint `json:"fingerprint"`
	StageIndex  int                 `json:"stage_index"`
	Score       aspect.Score        `json:"score"`
	Trail       []Entry             `json:"trail"`
	StartedAt   core.Timestamp      `json:"started_at"`
	UpdatedAt   core.Timestamp      `json:"updated_at"`
}

// New starts a session at the first stage with the set's initial score
func New(set *stage.Set, now core.Timestamp) *Session {
	return &Session{
		ID:          core.NewSessionID(),
		SetName:     set.Name,
		Fingerprint: set.Fingerprint,
		StageIndex:  0,
		Score:       set.InitialScore(),
		Trail:       []Entry{},
		StartedAt:   now,
		UpdatedAt:   now,
	}
}

// State reports the position relative to total stages
func (s *Session) State(total int) State {
	return State{Index: s.StageIndex, Total: total, Completed: s.StageIndex >= total}
}

// Record applies a scored outcome: the score takes the clamped delta, the
// trail gains one entry and the pointer advances. A completed session
// rejects the call and is left unchanged.
func (s *Session) Record(st stage.Stage, out answer.Outcome, total int, now core.Timestamp) error {
	if s.StageIndex >= total {
		return core.ErrSessionCompleted
	}
	s.Score = aspect.ApplyDelta(s.Score, out.Effect)
	s.Trail = append(s.Trail, Entry{
		Ordinal:       s.StageIndex + 1,
		StageID:       st.ID,
		Title:         st.Title,
		Kind:          st.Kind,
		Choice:        out.Description,
		Note:          out.Note,
		Effect:        out.Effect.Clone(),
		Justification: out.Justification,
		AnsweredAt:    now,
	})
	s.StageIndex++
	s.UpdatedAt = now
	return nil
}

// Reset returns the session to the first stage with a fresh score and trail.
// The session keeps its id.
func (s *Session) Reset(set *stage.Set, now core.Timestamp) {
	s.SetName = set.Name
	s.Fingerprint = set.Fingerprint
	s.StageIndex = 0
	s.Score = set.InitialScore()
	s.Trail = []Entry{}
	s.StartedAt = now
	s.UpdatedAt = now
}

// Conforms reports whether a persisted session can be resumed against set
func (s *Session) Conforms(set *stage.Set) bool {
	if s.ID.String() == "" || s.SetName != set.Name {
		return false
	}
	if s.Fingerprint != "" && set.Fingerprint != "" && s.Fingerprint != set.Fingerprint {
		return false
	}
	if s.StageIndex < 0 || s.StageIndex > set.Len() || len(s.Trail) != s.StageIndex {
		return false
	}
	return s.Score.Conforms(set.Aspects)
}

// Clone returns a deep copy safe to hand to other goroutines
func (s *Session) Clone() *Session {
	c := *s
	c.Score = s.Score.Clone()
	c.Trail = make([]Entry, len(s.Trail))
	for i, e := range s.Trail {
		e.Effect = e.Effect.Clone()
		c.Trail[i] = e
	}
	return &c
}

// GroupContext identifies the remote group a session submits answers for
type GroupContext struct {
	EventID   int64  `json:"event_id"`
	UnitID    int64  `json:"unit_id"`
	UnitCode  string `json:"unit_code"`
	GroupID   int64  `json:"group_id"`
	GroupName string `json:"group_name"`
}

// Missing lists the identifiers still needed before answers can be sent
func (g GroupContext) Missing() []string {
	var missing []string
	if g.EventID <= 0 {
		missing = append(missing, "event")
	}
	if g.UnitID <= 0 {
		missing = append(missing, "unit")
	}
	if g.GroupID <= 0 {
		missing = append(missing, "group id")
	}
	if g.GroupName == "" {
		missing = append(missing, "group name")
	}
	return missing
}

// Complete reports whether every identifier is present
func (g GroupContext) Complete() bool {
	return len(g.Missing()) == 0
}

// Summary is the final report of a completed session
type Summary struct {
	SessionID       core.SessionID `json:"session_id"`
	SetName         string         `json:"set_name"`
	FinishedAt      core.Timestamp `json:"finished_at"`
	Score           aspect.Score   `json:"score"`
	Average         float64        `json:"average"`
	Rounded         int            `json:"rounded"`
	Band            string         `json:"band"`
	Style           string         `json:"style"`
	Risk            string         `json:"risk"`
	RiskStyle       string         `json:"risk_style"`
	Recommendations []string       `json:"recommendations"`
	Trail           []Entry        `json:"trail"`
}
