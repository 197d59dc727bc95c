package scoring

import (
	"fmt"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
)

// scoreChoice returns the chosen option's effect verbatim. The justification
// surfaces only when the effect is net negative.
func scoreChoice(st stage.Stage, _ aspect.Set, resp answer.Response) (answer.Outcome, error) {
	if resp.OptionID == "" {
		return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, "no option chosen")
	}
	for _, opt := range st.Choice.Options {
		if opt.ID != resp.OptionID {
			continue
		}
		effect := opt.Effect.Clone()
		out := answer.Outcome{
			Effect:      effect,
			Description: opt.Label,
			Note:        opt.Note,
			Items: []answer.ItemResult{{
				Key:       opt.ID,
				Label:     opt.Label,
				ValueText: answer.Text(opt.Label),
				Correct:   correctnessOf(effect),
				Delta:     effect,
			}},
		}
		if effect.Sum() < 0 {
			out.Justification = opt.Justification
		}
		return out, nil
	}
	return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, fmt.Sprintf("unknown option %q", resp.OptionID))
}
