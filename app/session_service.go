package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/session"
	"decisionsim/domain/stage"
	"decisionsim/internal"
	apperrors "decisionsim/internal/errors"
	"decisionsim/internal/scoring"
	"decisionsim/ports"
)

// DescriptionAnsweredElsewhere is the trail description of a skipped stage
const DescriptionAnsweredElsewhere = "Respondida anteriormente"

// SyncPolicy decides whether a failed remote write blocks local progress
type SyncPolicy string

const (
	// SyncGated applies an answer only after the collector acknowledged it
	SyncGated SyncPolicy = "gated"
	// SyncOptimistic applies every answer locally and reports sync failures separately
	SyncOptimistic SyncPolicy = "optimistic"
)

// SyncResult reports the remote side of a submission. Attempted is false
// when no collector is configured or the group is not registered yet.
type SyncResult struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Message   string `json:"message,omitempty"`
}

func syncFailure(err error) SyncResult {
	return SyncResult{Attempted: true, OK: false, Message: core.SyncMessage(err)}
}

// SubmitResult is the outcome of one Submit call. Applied is false when a
// gated sync failure kept the session where it was.
type SubmitResult struct {
	Applied bool             `json:"applied"`
	Outcome answer.Outcome   `json:"outcome"`
	State   session.State    `json:"state"`
	Sync    SyncResult       `json:"sync"`
	Summary *session.Summary `json:"summary,omitempty"`
}

// SessionOptions tunes a SessionService
type SessionOptions struct {
	Policy SyncPolicy
	Clock  core.Clock
}

// SessionService drives a single participant through a stage set. All
// methods are serialized by an internal mutex.
type SessionService struct {
	mu        sync.Mutex
	set       *stage.Set
	engine    *scoring.Engine
	repo      ports.SessionRepository
	collector ports.Collector
	policy    SyncPolicy
	clock     core.Clock
	logger    *internal.Logger

	current *session.Session
}

// NewSessionService wires a service. A nil collector runs the session offline.
func NewSessionService(set *stage.Set, repo ports.SessionRepository, collector ports.Collector, opts SessionOptions, logger *internal.Logger) *SessionService {
	if opts.Policy == "" {
		opts.Policy = SyncGated
	}
	if opts.Clock == nil {
		opts.Clock = core.Now
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &SessionService{
		set:       set,
		engine:    scoring.NewEngine(set.Aspects),
		repo:      repo,
		collector: collector,
		policy:    opts.Policy,
		clock:     opts.Clock,
		logger:    logger.Named("session"),
	}
}

// Set returns the stage set the service plays
func (s *SessionService) Set() *stage.Set { return s.set }

// Offline reports whether answers stay local
func (s *SessionService) Offline() bool { return s.collector == nil }

// Start resumes the persisted session when it still fits the stage set and
// starts a fresh one otherwise
func (s *SessionService) Start(ctx context.Context) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return s.ensure(ctx).Clone(), nil
}

// Snapshot returns a copy of the current session
func (s *SessionService) Snapshot(ctx context.Context) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure(ctx).Clone()
}

// Current returns the stage awaiting an answer
func (s *SessionService) Current(ctx context.Context) (stage.Stage, session.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(ctx)
	state := sess.State(s.set.Len())
	if state.Completed {
		return stage.Stage{}, state, core.ErrSessionCompleted
	}
	st, _ := s.set.At(sess.StageIndex)
	return st, state, nil
}

// StageByID looks up any stage of the set without moving the session
func (s *SessionService) StageByID(id int) (stage.Stage, error) {
	return s.set.ByID(id)
}

// Submit scores resp against the current stage, syncs it and advances
func (s *SessionService) Submit(ctx context.Context, resp answer.Response) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.ensure(ctx)
	total := s.set.Len()
	if sess.State(total).Completed {
		return nil, core.ErrSessionCompleted
	}
	st, _ := s.set.At(sess.StageIndex)

	out, err := s.engine.Score(st, resp)
	if err != nil {
		return nil, err
	}
	result := &SubmitResult{Outcome: out, State: sess.State(total)}

	result.Sync, err = s.sync(ctx, st, out)
	if err != nil {
		return nil, err
	}
	if result.Sync.Attempted && !result.Sync.OK && s.policy == SyncGated {
		s.logger.Warn("stage %d held back: %s", st.ID, result.Sync.Message)
		return result, nil
	}

	if err := s.apply(ctx, sess, st, result); err != nil {
		return nil, err
	}
	s.logger.Debug("stage %d answered, effect %v, state %s", st.ID, out.Effect, result.State)
	return result, nil
}

// SkipAnswered moves past the current stage when the collector already holds
// this group's answer for it, as happens after local progress was reset. The
// trail records the stage with an empty effect; the collector's totals stay
// the group's score of record. A stage the collector has not seen is
// rejected with ErrInvalidAnswer.
func (s *SessionService) SkipAnswered(ctx context.Context) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.ensure(ctx)
	total := s.set.Len()
	if sess.State(total).Completed {
		return nil, core.ErrSessionCompleted
	}
	st, _ := s.set.At(sess.StageIndex)

	group := s.group(ctx)
	if s.collector == nil || !group.Complete() {
		return nil, core.NewInvalidAnswerError(st.ID, "no collector group to check against")
	}
	out := answer.Outcome{
		StageID:     st.ID,
		Kind:        st.Kind,
		Effect:      aspect.Effect{},
		Description: DescriptionAnsweredElsewhere,
		Items:       []answer.ItemResult{},
	}
	result := &SubmitResult{Outcome: out, State: sess.State(total)}

	answered, err := s.collector.CheckAnswered(ctx, group.EventID, group.GroupID, st.ID)
	if err != nil {
		s.logger.Warn("check_answered for stage %d failed: %v", st.ID, err)
		result.Sync = syncFailure(err)
		return result, nil
	}
	if !answered {
		return nil, core.NewInvalidAnswerError(st.ID, "the collector has no answer for this stage")
	}
	result.Sync = SyncResult{Attempted: true, OK: true}

	if err := s.apply(ctx, sess, st, result); err != nil {
		return nil, err
	}
	s.logger.Info("stage %d already answered remotely, skipped", st.ID)
	return result, nil
}

// apply records result.Outcome on a copy of sess, persists it and fills in
// the post-transition state. Callers hold s.mu.
func (s *SessionService) apply(ctx context.Context, sess *session.Session, st stage.Stage, result *SubmitResult) error {
	total := s.set.Len()
	now := s.clock()
	next := sess.Clone()
	if err := next.Record(st, result.Outcome, total, now); err != nil {
		return err
	}
	s.current = next
	s.persist(ctx)

	result.Applied = true
	result.State = next.State(total)
	if result.State.Completed {
		summary := session.Summarize(s.set, next, now)
		s.complete(ctx, summary)
		result.Summary = &summary
	}
	return nil
}

// Restart returns the session to its first stage with the initial score.
// The session id is kept.
func (s *SessionService) Restart(ctx context.Context) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(ctx).Clone()
	sess.Reset(s.set, s.clock())
	s.current = sess
	s.persist(ctx)
	s.logger.Info("session %s restarted", sess.ID)
	return sess.Clone(), nil
}

// Result computes the summary of a completed session
func (s *SessionService) Result(ctx context.Context) (session.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(ctx)
	if !sess.State(s.set.Len()).Completed {
		return session.Summary{}, apperrors.NotFound("result")
	}
	finished := sess.UpdatedAt
	return session.Summarize(s.set, sess, finished), nil
}

// ensure returns the in-memory session, loading or creating it on first use
func (s *SessionService) ensure(ctx context.Context) *session.Session {
	if s.current != nil {
		return s.current
	}
	loaded, err := s.repo.LoadSession(ctx)
	switch {
	case err == nil && loaded.Conforms(s.set):
		s.logger.Info("resuming session %s at stage index %d", loaded.ID, loaded.StageIndex)
		s.current = loaded
		return s.current
	case err == nil:
		s.logger.Warn("stored session %s does not match stage set %s, starting over", loaded.ID, s.set.Name)
	case !errors.Is(err, core.ErrSessionNotFound):
		s.logger.Error("failed to load session: %v", err)
	}
	s.current = session.New(s.set, s.clock())
	s.persist(ctx)
	s.logger.Info("started session %s on stage set %s", s.current.ID, s.set.Name)
	return s.current
}

func (s *SessionService) persist(ctx context.Context) {
	if err := s.repo.SaveSession(ctx, s.current); err != nil {
		s.logger.Error("failed to save session %s, continuing in memory: %v", s.current.ID, err)
	}
}

// sync checks and sends the answer. A non-nil error means the answer must
// be rejected outright; remote failures travel in the SyncResult.
func (s *SessionService) sync(ctx context.Context, st stage.Stage, out answer.Outcome) (SyncResult, error) {
	if s.collector == nil {
		return SyncResult{OK: true}, nil
	}
	group := s.group(ctx)
	if !group.Complete() {
		s.logger.Debug("group incomplete (missing %v), stage %d kept local", group.Missing(), st.ID)
		return SyncResult{OK: true}, nil
	}

	answered, err := s.collector.CheckAnswered(ctx, group.EventID, group.GroupID, st.ID)
	if err != nil {
		s.logger.Warn("check_answered for stage %d failed: %v", st.ID, err)
		return syncFailure(err), nil
	}
	if answered {
		return SyncResult{}, fmt.Errorf("%w: stage %d", core.ErrAlreadyAnswered, st.ID)
	}

	err = s.collector.SubmitAnswer(ctx, ports.AnswerSubmission{
		Group:      group,
		QuestionID: st.ID,
		Aspects:    s.set.Aspects.Keys(),
		Delta:      out.Effect,
		Items:      out.Items,
	})
	if err != nil {
		s.logger.Warn("save_answer for stage %d failed: %v", st.ID, err)
		return syncFailure(err), nil
	}
	return SyncResult{Attempted: true, OK: true}, nil
}

func (s *SessionService) group(ctx context.Context) session.GroupContext {
	g, err := s.repo.LoadGroup(ctx)
	if err != nil {
		s.logger.Error("failed to load group identifiers: %v", err)
		return session.GroupContext{}
	}
	return g
}

func (s *SessionService) complete(ctx context.Context, summary session.Summary) {
	s.logger.Info("session %s completed: average %.2f, %s", summary.SessionID, summary.Average, summary.Band)
	if err := s.repo.AppendHistory(ctx, summary); err != nil {
		s.logger.Error("failed to append session %s to history: %v", summary.SessionID, err)
	}
	if s.collector == nil {
		return
	}
	group := s.group(ctx)
	if !group.Complete() {
		return
	}
	if err := s.collector.SubmitSummary(ctx, group, summary); err != nil {
		s.logger.Warn("save_session for %s failed: %v", summary.SessionID, err)
	}
}
