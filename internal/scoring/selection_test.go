package scoring

import (
	"testing"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	selectCorrect = aspect.Effect{"produtividade": 3, "confianca": 2, "visao": 3, "sustentabilidade": 2}
	selectWrong   = aspect.Effect{"produtividade": -2, "confianca": -2, "visao": -1, "sustentabilidade": -1}
)

func practicesStage(t *testing.T, mode stage.AccuracyMode) stage.Stage {
	return normalized(t, melhoriaAspects, stage.Stage{
		ID:    2,
		Title: "Práticas recomendadas",
		Kind:  stage.KindSelect,
		Select: &stage.SelectConfig{
			Items: []stage.SelectItem{
				{ID: "s1", Text: "Gemba (ir e ver)", Correct: true},
				{ID: "s2", Text: "5S", Correct: true},
				{ID: "s3", Text: "Ignorar padrões"},
				{ID: "s4", Text: "Kaizen diário", Correct: true},
				{ID: "s5", Text: "Focar só em volume"},
			},
			Accuracy:      mode,
			CorrectEffect: selectCorrect,
			WrongEffect:   selectWrong,
		},
	})
}

func TestSelectAllCorrectGrantsCorrectEffect(t *testing.T) {
	engine := NewEngine(melhoriaAspects)
	for _, mode := range []stage.AccuracyMode{stage.AccuracyRecall, stage.AccuracyPrecision} {
		out, err := engine.Score(practicesStage(t, mode), answer.Response{Selected: []string{"s1", "s2", "s4"}})
		require.NoError(t, err)
		assert.Equal(t, selectCorrect, out.Effect, "mode %s", mode)
	}
}

func TestSelectOneCorrectOneWrongGrantsWrongEffect(t *testing.T) {
	engine := NewEngine(melhoriaAspects)
	for _, mode := range []stage.AccuracyMode{stage.AccuracyRecall, stage.AccuracyPrecision} {
		out, err := engine.Score(practicesStage(t, mode), answer.Response{Selected: []string{"s1", "s3"}})
		require.NoError(t, err)
		assert.Equal(t, selectWrong, out.Effect, "mode %s", mode)
		require.Len(t, out.Items, 2)
		assert.Equal(t, answer.Correct, out.Items[0].Correct)
		assert.Equal(t, answer.Incorrect, out.Items[1].Correct)
	}
}

func TestSelectModesDiffer(t *testing.T) {
	engine := NewEngine(melhoriaAspects)
	// Two of three correct items and nothing wrong: recall 0.67, precision 1.0
	resp := answer.Response{Selected: []string{"s1", "s2"}}

	recall, err := engine.Score(practicesStage(t, stage.AccuracyRecall), resp)
	require.NoError(t, err)
	assert.Equal(t, selectWrong, recall.Effect)

	precision, err := engine.Score(practicesStage(t, stage.AccuracyPrecision), resp)
	require.NoError(t, err)
	assert.Equal(t, selectCorrect, precision.Effect)
}

func TestSelectThresholdIsInclusive(t *testing.T) {
	items := make([]stage.SelectItem, 10)
	for i := range items {
		items[i] = stage.SelectItem{ID: string(rune('a' + i)), Correct: true}
	}
	st := normalized(t, melhoriaAspects, stage.Stage{
		ID: 9, Title: "boundary", Kind: stage.KindSelect,
		Select: &stage.SelectConfig{Items: items, CorrectEffect: selectCorrect, WrongEffect: selectWrong},
	})

	engine := NewEngine(melhoriaAspects)
	out, err := engine.Score(st, answer.Response{Selected: []string{"a", "b", "c", "d", "e", "f", "g"}})
	require.NoError(t, err)
	assert.Equal(t, selectCorrect, out.Effect, "exactly 0.7 must reach the threshold")

	out, err = engine.Score(st, answer.Response{Selected: []string{"a", "b", "c", "d", "e", "f"}})
	require.NoError(t, err)
	assert.Equal(t, selectWrong, out.Effect)
}

func TestSelectEmptySelectionIsNeutral(t *testing.T) {
	engine := NewEngine(melhoriaAspects)
	out, err := engine.Score(practicesStage(t, stage.AccuracyRecall), answer.Response{})
	require.NoError(t, err)
	assert.True(t, out.Effect.IsZero())
	assert.Empty(t, out.Effect)
}

func TestSelectValidation(t *testing.T) {
	engine := NewEngine(melhoriaAspects)
	st := practicesStage(t, stage.AccuracyRecall)
	st.Select.MaxSelections = 2

	_, err := engine.Score(st, answer.Response{Selected: []string{"s1", "s1"}})
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)
	_, err = engine.Score(st, answer.Response{Selected: []string{"nope"}})
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)
	_, err = engine.Score(st, answer.Response{Selected: []string{"s1", "s2", "s4"}})
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)
}

func TestSelectTiers(t *testing.T) {
	st := normalized(t, acaoAspects, stage.Stage{
		ID: 4, Title: "Palavras", Kind: stage.KindSelect,
		Select: &stage.SelectConfig{
			Items: []stage.SelectItem{
				{ID: "w1", Correct: true}, {ID: "w2", Correct: true}, {ID: "w3", Correct: true},
				{ID: "w4", Correct: true}, {ID: "w5"},
			},
			Accuracy: stage.AccuracyPrecision,
			Tiers: []stage.Tier{
				{Min: 0, Effect: aspect.Uniform(acaoAspects, 1)},
				{Min: 0.8, Effect: aspect.Uniform(acaoAspects, 5)},
				{Min: 0.6, Effect: aspect.Uniform(acaoAspects, 3)},
			},
		},
	})
	engine := NewEngine(acaoAspects)

	cases := []struct {
		selected []string
		want     int
	}{
		{[]string{"w1", "w2", "w3", "w4", "w5"}, 5}, // 0.8
		{[]string{"w1", "w2", "w5"}, 3},             // 0.67
		{[]string{"w1", "w5"}, 1},                   // 0.5
	}
	for _, c := range cases {
		out, err := engine.Score(st, answer.Response{Selected: c.selected})
		require.NoError(t, err)
		assert.Equal(t, aspect.Uniform(acaoAspects, c.want), out.Effect, "selected %v", c.selected)
	}
}

func TestAccuracyZeroDenominator(t *testing.T) {
	items := []stage.SelectItem{{ID: "x"}}
	assert.Equal(t, 0.0, Accuracy(stage.AccuracyRecall, items, []string{"x"}))
	assert.Equal(t, 0.0, Accuracy(stage.AccuracyPrecision, items, nil))
}
