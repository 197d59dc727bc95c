package scoring

import (
	"fmt"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
)

// scoreSequential adds the yes/no effect of the first question to the scale
// effect of the second
func scoreSequential(st stage.Stage, _ aspect.Set, resp answer.Response) (answer.Outcome, error) {
	cfg := st.Sequential
	if resp.FirstYes == nil {
		return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, "first question not answered")
	}
	if resp.SecondKey == "" {
		return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, "second question not answered")
	}

	var option *stage.ScaleOption
	for i := range cfg.Second.Options {
		if cfg.Second.Options[i].Key == resp.SecondKey {
			option = &cfg.Second.Options[i]
			break
		}
	}
	if option == nil {
		return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, fmt.Sprintf("unknown scale option %q", resp.SecondKey))
	}

	first, firstLabel := cfg.First.NoEffect.Clone(), cfg.First.NoLabel
	if *resp.FirstYes {
		first, firstLabel = cfg.First.YesEffect.Clone(), cfg.First.YesLabel
	}
	second := option.Effect.Clone()

	return answer.Outcome{
		Effect:      first.Add(second),
		Description: fmt.Sprintf("Q1: %s, Q2: %s", firstLabel, option.Label),
		Items: []answer.ItemResult{
			{
				Key:       "q1",
				Label:     cfg.First.Prompt,
				ValueText: answer.Text(firstLabel),
				Correct:   correctnessOf(first),
				Delta:     first,
			},
			{
				Key:       "q2",
				Label:     cfg.Second.Prompt,
				ValueText: answer.Text(option.Label),
				Correct:   correctnessOf(second),
				Delta:     second,
			},
		},
	}, nil
}
