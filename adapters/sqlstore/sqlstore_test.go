package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"decisionsim/adapters/kvstore"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/session"
	"decisionsim/internal"
	"decisionsim/ports"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "decisionsim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		db, err := Open(context.Background(), "sqlite", path)
		require.NoError(t, err, "open %d", i)
		require.NoError(t, db.Close())
	}
}

func TestKVStoreNamespaces(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a := NewKVStore(db, "team-a")
	b := NewKVStore(db, "")

	require.NoError(t, a.Set(ctx, "score", "1"))
	require.NoError(t, a.Set(ctx, "score", "2"))
	require.NoError(t, b.Set(ctx, "score", "9"))

	v, ok, err := a.Get(ctx, "score")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	v, _, err = b.Get(ctx, "score")
	require.NoError(t, err)
	assert.Equal(t, "9", v)

	require.NoError(t, a.Remove(ctx, "score"))
	_, ok, err = a.Get(ctx, "score")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRepositoryOverSQL(t *testing.T) {
	ctx := context.Background()
	repo := kvstore.NewSessionRepository(NewKVStore(openTestDB(t), ""), internal.NewNopLogger())

	s := &session.Session{
		ID:         core.NewSessionID(),
		SetName:    "melhoria",
		StageIndex: 0,
		Score:      aspect.Score{"produtividade": 70, "confianca": 70, "visao": 70, "sustentabilidade": 70},
		Trail:      []session.Entry{},
		StartedAt:  core.Now(),
	}
	require.NoError(t, repo.SaveSession(ctx, s))

	got, err := repo.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Score, got.Score)
}

func TestCollectorRepositoryFlow(t *testing.T) {
	ctx := context.Background()
	repo := NewCollectorRepository(openTestDB(t))

	_, err := repo.ActiveEvent(ctx, 2)
	assert.True(t, core.IsNotFoundError(err))

	_, err = repo.CreateEvent(ctx, 2, "Treinamento antigo", false)
	require.NoError(t, err)
	eventID, err := repo.CreateEvent(ctx, 2, "Treinamento", true)
	require.NoError(t, err)

	active, err := repo.ActiveEvent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, eventID, active)

	groupID, err := repo.CreateGroup(ctx, eventID, 2, "Equipe Azul")
	require.NoError(t, err)
	again, err := repo.CreateGroup(ctx, eventID, 2, "Equipe Azul")
	require.NoError(t, err)
	assert.Equal(t, groupID, again)
	_, err = repo.CreateGroup(ctx, eventID, 2, "Equipe Verde")
	require.NoError(t, err)

	groups, err := repo.ListGroups(ctx, eventID, 2)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, ports.Group{ID: groupID, Name: "Equipe Azul"}, groups[0])

	label := "Reunir a equipe"
	answer := ports.StoredAnswer{
		EventID: eventID, UnitID: 2, GroupID: groupID, GroupName: "Equipe Azul", QuestionID: 1,
		Delta: map[string]int{"pessoas": 6, "atitudes": 4},
		Items: []ports.StoredItem{{Key: "2", Label: "Opção 2", ValueText: &label, IsCorrect: 1, Delta: map[string]int{"pessoas": 6}}},
	}
	require.NoError(t, repo.SaveAnswer(ctx, answer))

	answered, err := repo.HasAnswered(ctx, eventID, groupID, 1)
	require.NoError(t, err)
	assert.True(t, answered)

	err = repo.SaveAnswer(ctx, answer)
	assert.ErrorIs(t, err, core.ErrAlreadyAnswered)

	answer.QuestionID = 2
	answer.Delta = map[string]int{"pessoas": -2, "negocio": 3}
	answer.Items = nil
	require.NoError(t, repo.SaveAnswer(ctx, answer))

	totals, err := repo.GroupTotals(ctx, eventID, 2, groupID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pessoas": 4, "atitudes": 4, "negocio": 3}, totals)

	require.NoError(t, repo.SaveSession(ctx, ports.StoredSession{
		EventID: eventID, UnitID: 2, GroupID: groupID,
		SessionID: core.NewSessionID().String(), SetName: "acao", Payload: []byte(`{"rounded":75}`),
	}))
}
