package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"decisionsim/adapters/kvstore"
	"decisionsim/adapters/stageconfig"
	"decisionsim/domain/aspect"
	"decisionsim/domain/session"
	"decisionsim/domain/stage"
	"decisionsim/internal"
	"decisionsim/ports"
)

type MockCollector struct {
	mock.Mock
}

func (m *MockCollector) RegisterGroup(ctx context.Context, eventID, unitID int64, name string) (int64, error) {
	args := m.Called(ctx, eventID, unitID, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCollector) SubmitAnswer(ctx context.Context, sub ports.AnswerSubmission) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockCollector) CheckAnswered(ctx context.Context, eventID, groupID int64, questionID int) (bool, error) {
	args := m.Called(ctx, eventID, groupID, questionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCollector) GroupTotals(ctx context.Context, eventID, unitID, groupID int64) (aspect.Effect, error) {
	args := m.Called(ctx, eventID, unitID, groupID)
	totals, _ := args.Get(0).(aspect.Effect)
	return totals, args.Error(1)
}

func (m *MockCollector) ActiveEvent(ctx context.Context, unitID int64) (int64, error) {
	args := m.Called(ctx, unitID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCollector) ListGroups(ctx context.Context, eventID, unitID int64) ([]ports.Group, error) {
	args := m.Called(ctx, eventID, unitID)
	groups, _ := args.Get(0).([]ports.Group)
	return groups, args.Error(1)
}

func (m *MockCollector) SubmitSummary(ctx context.Context, g session.GroupContext, summary session.Summary) error {
	args := m.Called(ctx, g, summary)
	return args.Error(0)
}

// failingStore accepts reads but rejects every write
type failingStore struct {
	ports.KVStore
}

func (f failingStore) Set(ctx context.Context, key, value string) error {
	return errors.New("disk full")
}

func (f failingStore) Remove(ctx context.Context, key string) error {
	return errors.New("disk full")
}

const testSetYAML = `name: teste
title: Teste
aspects:
  - {key: produtividade, label: Produtividade}
  - {key: confianca, label: Confiança}
  - {key: visao, label: Visão}
  - {key: sustentabilidade, label: Sustentabilidade}
initial: {produtividade: 70, confianca: 70, visao: 70, sustentabilidade: 70}
units: {USM: 2, UIR: 1}
recommendations:
  rules:
    - {aspect: confianca, below: 75, text: Feedback contínuo}
stages:
  - id: 1
    title: Comunicar plano
    kind: choice
    choice:
      options:
        - {id: a, label: Transparência, effect: {produtividade: 6, confianca: 4, visao: 8, sustentabilidade: 3}}
        - {id: b, label: Mensagem vaga, effect: {confianca: -10}, justification: Perdeu confiança}
  - id: 5
    title: Práticas
    kind: select
    select:
      items:
        - {id: s1, text: Gemba, correct: true}
        - {id: s2, text: 5S, correct: true}
        - {id: s3, text: Ignorar padrões, correct: false}
      correct_effect: {visao: 2}
      wrong_effect: {visao: -2}
`

func testSet(t *testing.T) *stage.Set {
	t.Helper()
	set, err := stageconfig.Parse([]byte(testSetYAML))
	require.NoError(t, err)
	return set
}

func memoryRepo() *kvstore.SessionRepository {
	return kvstore.NewSessionRepository(kvstore.NewMemoryStore(), internal.NewNopLogger())
}

func registeredGroup() session.GroupContext {
	return session.GroupContext{EventID: 7, UnitID: 2, UnitCode: "USM", GroupID: 11, GroupName: "Azul"}
}
