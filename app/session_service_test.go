package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"decisionsim/adapters/kvstore"
	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/internal"
	apperrors "decisionsim/internal/errors"
	"decisionsim/ports"
)

var fixedClock = core.FixedClock(time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC))

func TestOfflineSessionRunsToCompletion(t *testing.T) {
	ctx := context.Background()
	repo := memoryRepo()
	svc := NewSessionService(testSet(t), repo, nil, SessionOptions{Clock: fixedClock}, nil)

	sess, err := svc.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sess.StageIndex)

	st, state, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ID)
	assert.Equal(t, 2, state.Total)

	res, err := svc.Submit(ctx, answer.Response{OptionID: "a"})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.False(t, res.Sync.Attempted)
	assert.Nil(t, res.Summary)
	assert.Equal(t, 1, res.State.Index)

	res, err = svc.Submit(ctx, answer.Response{Selected: []string{"s1", "s2"}})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.True(t, res.State.Completed)
	assert.Equal(t, aspect.Score{"produtividade": 76, "confianca": 74, "visao": 80, "sustentabilidade": 73}, res.Summary.Score)
	assert.Equal(t, []string{"Feedback contínuo", "AAR de 15 minutos pós-parada para captura de lições aprendidas"}, res.Summary.Recommendations)

	_, err = svc.Submit(ctx, answer.Response{OptionID: "a"})
	assert.ErrorIs(t, err, core.ErrSessionCompleted)

	_, _, err = svc.Current(ctx)
	assert.ErrorIs(t, err, core.ErrSessionCompleted)

	history, err := repo.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.Summary.SessionID, history[0].SessionID)

	result, err := svc.Result(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Summary.Band, result.Band)
}

func TestInvalidAnswerDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(testSet(t), memoryRepo(), nil, SessionOptions{}, nil)

	_, err := svc.Submit(ctx, answer.Response{OptionID: "zzz"})
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)
	assert.Equal(t, 0, svc.Snapshot(ctx).StageIndex)

	_, err = svc.Result(ctx)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestSessionResumesFromRepository(t *testing.T) {
	ctx := context.Background()
	repo := memoryRepo()
	set := testSet(t)

	first := NewSessionService(set, repo, nil, SessionOptions{}, nil)
	_, err := first.Submit(ctx, answer.Response{OptionID: "b"})
	require.NoError(t, err)
	id := first.Snapshot(ctx).ID

	second := NewSessionService(set, repo, nil, SessionOptions{}, nil)
	sess, err := second.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, 1, sess.StageIndex)
	assert.Equal(t, 60, sess.Score["confianca"])
	assert.Equal(t, "Perdeu confiança", sess.Trail[0].Justification)
}

func TestChangedStageSetStartsOver(t *testing.T) {
	ctx := context.Background()
	repo := memoryRepo()
	set := testSet(t)

	first := NewSessionService(set, repo, nil, SessionOptions{}, nil)
	_, err := first.Submit(ctx, answer.Response{OptionID: "a"})
	require.NoError(t, err)
	id := first.Snapshot(ctx).ID

	changed := *set
	changed.Fingerprint = core.NewSetFingerprint([]byte("edited"))
	second := NewSessionService(&changed, repo, nil, SessionOptions{}, nil)
	sess, err := second.Start(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, id, sess.ID)
	assert.Equal(t, 0, sess.StageIndex)
}

func TestRestartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	set := testSet(t)
	svc := NewSessionService(set, memoryRepo(), nil, SessionOptions{}, nil)

	_, err := svc.Submit(ctx, answer.Response{OptionID: "a"})
	require.NoError(t, err)
	id := svc.Snapshot(ctx).ID

	for i := 0; i < 2; i++ {
		sess, err := svc.Restart(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, sess.ID)
		assert.Equal(t, 0, sess.StageIndex)
		assert.Empty(t, sess.Trail)
		assert.Equal(t, set.InitialScore(), sess.Score)
	}
}

func TestStorageFailureKeepsPlaying(t *testing.T) {
	ctx := context.Background()
	repo := kvstore.NewSessionRepository(failingStore{kvstore.NewMemoryStore()}, internal.NewNopLogger())
	svc := NewSessionService(testSet(t), repo, nil, SessionOptions{}, nil)

	res, err := svc.Submit(ctx, answer.Response{OptionID: "a"})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, svc.Snapshot(ctx).StageIndex)
}

func onlineService(t *testing.T, collector *MockCollector, policy SyncPolicy) *SessionService {
	t.Helper()
	repo := memoryRepo()
	require.NoError(t, repo.SaveGroup(context.Background(), registeredGroup()))
	return NewSessionService(testSet(t), repo, collector, SessionOptions{Policy: policy, Clock: fixedClock}, nil)
}

func TestGatedSyncFailureHoldsStage(t *testing.T) {
	ctx := context.Background()
	collector := new(MockCollector)
	collector.On("CheckAnswered", mock.Anything, int64(7), int64(11), 1).Return(false, nil)
	collector.On("SubmitAnswer", mock.Anything, mock.Anything).
		Return(&core.SyncError{Op: "save_answer", Message: "Evento encerrado"})

	svc := onlineService(t, collector, SyncGated)
	res, err := svc.Submit(ctx, answer.Response{OptionID: "a"})
	require.NoError(t, err)

	assert.False(t, res.Applied)
	assert.Equal(t, SyncResult{Attempted: true, OK: false, Message: "Evento encerrado"}, res.Sync)
	snap := svc.Snapshot(ctx)
	assert.Equal(t, 0, snap.StageIndex)
	assert.Equal(t, 70, snap.Score["visao"])
	collector.AssertExpectations(t)
}

func TestOptimisticSyncFailureAdvances(t *testing.T) {
	ctx := context.Background()
	collector := new(MockCollector)
	collector.On("CheckAnswered", mock.Anything, int64(7), int64(11), 1).
		Return(false, &core.SyncError{Op: "check_answered", Message: core.ConnectionMessage})

	svc := onlineService(t, collector, SyncOptimistic)
	res, err := svc.Submit(ctx, answer.Response{OptionID: "a"})
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.False(t, res.Sync.OK)
	assert.Equal(t, core.ConnectionMessage, res.Sync.Message)
	assert.Equal(t, 1, svc.Snapshot(ctx).StageIndex)
	collector.AssertNotCalled(t, "SubmitAnswer", mock.Anything, mock.Anything)
}

func TestAlreadyAnsweredIsRejected(t *testing.T) {
	ctx := context.Background()
	collector := new(MockCollector)
	collector.On("CheckAnswered", mock.Anything, int64(7), int64(11), 1).Return(true, nil)

	svc := onlineService(t, collector, SyncGated)
	_, err := svc.Submit(ctx, answer.Response{OptionID: "a"})
	assert.ErrorIs(t, err, core.ErrAlreadyAnswered)
	assert.Equal(t, 0, svc.Snapshot(ctx).StageIndex)
}

func TestSkipAnsweredCatchesUpWithCollector(t *testing.T) {
	ctx := context.Background()
	collector := new(MockCollector)
	collector.On("CheckAnswered", mock.Anything, int64(7), int64(11), 1).Return(true, nil)

	svc := onlineService(t, collector, SyncGated)
	_, err := svc.Submit(ctx, answer.Response{OptionID: "a"})
	require.ErrorIs(t, err, core.ErrAlreadyAnswered)

	res, err := svc.SkipAnswered(ctx)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.Outcome.Effect.IsZero())

	snap := svc.Snapshot(ctx)
	assert.Equal(t, 1, snap.StageIndex)
	assert.Equal(t, 70, snap.Score["visao"])
	require.Len(t, snap.Trail, 1)
	assert.Equal(t, DescriptionAnsweredElsewhere, snap.Trail[0].Choice)
	collector.AssertNotCalled(t, "SubmitAnswer", mock.Anything, mock.Anything)
}

func TestSkipAnsweredRequiresRemoteAnswer(t *testing.T) {
	ctx := context.Background()
	collector := new(MockCollector)
	collector.On("CheckAnswered", mock.Anything, int64(7), int64(11), 1).Return(false, nil)

	svc := onlineService(t, collector, SyncGated)
	_, err := svc.SkipAnswered(ctx)
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)
	assert.Equal(t, 0, svc.Snapshot(ctx).StageIndex)

	offline := NewSessionService(testSet(t), memoryRepo(), nil, SessionOptions{}, nil)
	_, err = offline.SkipAnswered(ctx)
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)
}

func TestOnlineSubmissionSendsAnswersAndSummary(t *testing.T) {
	ctx := context.Background()
	collector := new(MockCollector)
	collector.On("CheckAnswered", mock.Anything, int64(7), int64(11), mock.Anything).Return(false, nil)
	collector.On("SubmitAnswer", mock.Anything, mock.MatchedBy(func(sub ports.AnswerSubmission) bool {
		return sub.QuestionID == 1 && sub.Delta["visao"] == 8 && len(sub.Aspects) == 4 && sub.Group.GroupName == "Azul"
	})).Return(nil).Once()
	collector.On("SubmitAnswer", mock.Anything, mock.MatchedBy(func(sub ports.AnswerSubmission) bool {
		return sub.QuestionID == 5 && len(sub.Items) > 0
	})).Return(nil).Once()
	collector.On("SubmitSummary", mock.Anything, registeredGroup(), mock.Anything).Return(nil)

	svc := onlineService(t, collector, SyncGated)
	res, err := svc.Submit(ctx, answer.Response{OptionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Attempted: true, OK: true}, res.Sync)

	res, err = svc.Submit(ctx, answer.Response{Selected: []string{"s1", "s3"}})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	collector.AssertExpectations(t)
}

func TestIncompleteGroupStaysLocal(t *testing.T) {
	ctx := context.Background()
	collector := new(MockCollector)
	svc := NewSessionService(testSet(t), memoryRepo(), collector, SessionOptions{}, nil)

	res, err := svc.Submit(ctx, answer.Response{OptionID: "a"})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.False(t, res.Sync.Attempted)
	collector.AssertNotCalled(t, "CheckAnswered", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
