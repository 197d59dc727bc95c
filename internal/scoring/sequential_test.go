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

func procedimentosStage(t *testing.T) stage.Stage {
	scale := func(key, label string, n int) stage.ScaleOption {
		return stage.ScaleOption{Key: key, Label: label, Effect: aspect.Uniform(acaoAspects, n)}
	}
	return normalized(t, acaoAspects, stage.Stage{
		ID:    7,
		Title: "Procedimentos",
		Kind:  stage.KindSequential,
		Sequential: &stage.SequentialConfig{
			First: stage.YesNoQuestion{
				Prompt:    "O procedimento construído pelo seu grupo teria evitado a fatalidade do vídeo?",
				YesEffect: aspect.Uniform(acaoAspects, 2),
			},
			Second: stage.ScaleQuestion{
				Prompt: "Em nosso caso, os procedimentos são seguidos mesmo sob pressão?",
				Options: []stage.ScaleOption{
					scale("sempre", "Sempre", 5),
					scale("quase_sempre", "Quase Sempre", 3),
					scale("as_vezes", "Às vezes", 1),
					scale("raramente", "Raramente", -1),
					scale("nunca", "Nunca", -3),
				},
			},
		},
	})
}

func TestSequentialSumsBothAnswers(t *testing.T) {
	engine := NewEngine(acaoAspects)
	st := procedimentosStage(t)

	out, err := engine.Score(st, answer.Response{FirstYes: answer.Bool(true), SecondKey: "sempre"})
	require.NoError(t, err)
	assert.Equal(t, aspect.Uniform(acaoAspects, 7), out.Effect)
	assert.Equal(t, "Q1: Sim, Q2: Sempre", out.Description)
	require.Len(t, out.Items, 2)
	assert.Equal(t, aspect.Uniform(acaoAspects, 2), out.Items[0].Delta)

	out, err = engine.Score(st, answer.Response{FirstYes: answer.Bool(false), SecondKey: "nunca"})
	require.NoError(t, err)
	assert.Equal(t, aspect.Uniform(acaoAspects, -3), out.Effect)
	assert.Equal(t, "Q1: Não, Q2: Nunca", out.Description)
}

func TestSequentialValidation(t *testing.T) {
	engine := NewEngine(acaoAspects)
	st := procedimentosStage(t)

	_, err := engine.Score(st, answer.Response{SecondKey: "sempre"})
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)
	_, err = engine.Score(st, answer.Response{FirstYes: answer.Bool(true)})
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)
	_, err = engine.Score(st, answer.Response{FirstYes: answer.Bool(true), SecondKey: "jamais"})
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)
}
