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

func cuidarStage(t *testing.T) stage.Stage {
	return normalized(t, acaoAspects, stage.Stage{
		ID:    6,
		Title: "Cuidar",
		Kind:  stage.KindDimensions,
		Dimensions: &stage.DimensionsConfig{
			Items: []stage.Dimension{
				{Key: "consciencia", Name: "Consciência"},
				{Key: "uniao", Name: "União"},
				{Key: "integridade", Name: "Integridade"},
				{Key: "disciplina", Name: "Disciplina"},
				{Key: "atencao", Name: "Atenção"},
				{Key: "responsabilidade", Name: "Responsabilidade"},
			},
			PracticedWeight: map[aspect.Aspect]int{"pessoas": 2, "atitudes": 2, "negocio": 1},
		},
	})
}

func TestDimensionsWeightedCounts(t *testing.T) {
	engine := NewEngine(acaoAspects)
	resp := answer.Response{Practiced: map[string]bool{
		"consciencia": true, "uniao": true, "integridade": true, "disciplina": true,
		"atencao": false, "responsabilidade": false,
	}}

	out, err := engine.Score(cuidarStage(t), resp)
	require.NoError(t, err)

	// p=4, n=2: people/attitudes 2*4-2, business 4-2
	assert.Equal(t, aspect.Effect{"pessoas": 6, "atitudes": 6, "negocio": 2}, out.Effect)
	assert.Equal(t, "Praticado: 4, Não praticado: 2", out.Description)
	require.Len(t, out.Items, 6)
	assert.Equal(t, "Não praticado", *out.Items[4].ValueText)
	assert.Equal(t, answer.Incorrect, out.Items[4].Correct)
}

func TestDimensionsAllNotPracticed(t *testing.T) {
	engine := NewEngine(acaoAspects)
	practiced := map[string]bool{}
	for _, d := range cuidarStage(t).Dimensions.Items {
		practiced[d.Key] = false
	}
	out, err := engine.Score(cuidarStage(t), answer.Response{Practiced: practiced})
	require.NoError(t, err)
	assert.Equal(t, aspect.Effect{"pessoas": -6, "atitudes": -6, "negocio": -6}, out.Effect)
}

func TestDimensionsRequiresEveryAnswer(t *testing.T) {
	engine := NewEngine(acaoAspects)
	_, err := engine.Score(cuidarStage(t), answer.Response{Practiced: map[string]bool{"uniao": true}})
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)

	_, err = engine.Score(cuidarStage(t), answer.Response{Practiced: map[string]bool{"coragem": true}})
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)
}
