package scoring

import (
	"fmt"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
)

// scoreDimensions requires an answer for every dimension and gives each
// weighted aspect Weight*practiced - Penalty*notPracticed
func scoreDimensions(st stage.Stage, aspects aspect.Set, resp answer.Response) (answer.Outcome, error) {
	cfg := st.Dimensions
	known := make(map[string]bool, len(cfg.Items))
	for _, d := range cfg.Items {
		known[d.Key] = true
	}
	for key := range resp.Practiced {
		if !known[key] {
			return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, fmt.Sprintf("unknown dimension %q", key))
		}
	}

	practiced, notPracticed := 0, 0
	items := make([]answer.ItemResult, 0, len(cfg.Items))
	for _, d := range cfg.Items {
		v, ok := resp.Practiced[d.Key]
		if !ok {
			return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, fmt.Sprintf("dimension %q not answered", d.Key))
		}
		label, c := cfg.NotPracticedLabel, answer.Incorrect
		if v {
			practiced++
			label, c = cfg.PracticedLabel, answer.Correct
		} else {
			notPracticed++
		}
		items = append(items, answer.ItemResult{
			Key:       d.Key,
			Label:     d.Name,
			ValueText: answer.Text(label),
			Correct:   c,
		})
	}

	effect := make(aspect.Effect, len(cfg.PracticedWeight))
	for _, key := range aspects.Keys() {
		w, ok := cfg.PracticedWeight[key]
		if !ok {
			continue
		}
		effect[key] = w*practiced - cfg.Penalty*notPracticed
	}

	return answer.Outcome{
		Effect:      effect,
		Description: fmt.Sprintf("%s: %d, %s: %d", cfg.PracticedLabel, practiced, cfg.NotPracticedLabel, notPracticed),
		Items:       items,
	}, nil
}
