package scoring

import (
	"fmt"
	"strings"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
)

// scoreRating records the ratings; it never changes the score
func scoreRating(st stage.Stage, _ aspect.Set, resp answer.Response) (answer.Outcome, error) {
	cfg := st.Rating
	known := make(map[string]bool, len(cfg.Items))
	for _, item := range cfg.Items {
		known[item.Key] = true
	}
	for key := range resp.Ratings {
		if !known[key] {
			return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, fmt.Sprintf("unknown rating item %q", key))
		}
	}

	items := make([]answer.ItemResult, 0, len(cfg.Items))
	parts := make([]string, 0, len(cfg.Items))
	for _, item := range cfg.Items {
		v, ok := resp.Ratings[item.Key]
		if !ok {
			return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, fmt.Sprintf("missing rating for %q", item.Key))
		}
		if v < cfg.Min || v > cfg.Max {
			return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, fmt.Sprintf("rating %q = %d outside [%d, %d]", item.Key, v, cfg.Min, cfg.Max))
		}
		if (v-cfg.Min)%cfg.Step != 0 {
			return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, fmt.Sprintf("rating %q = %d is not on a step of %d", item.Key, v, cfg.Step))
		}
		items = append(items, answer.ItemResult{
			Key:      item.Key,
			Label:    item.Label,
			ValueNum: answer.Num(float64(v)),
			Correct:  answer.Neutral,
		})
		parts = append(parts, fmt.Sprintf("%s=%d", item.Key, v))
	}

	return answer.Outcome{
		Effect:      aspect.Effect{},
		Description: "Avaliação: " + strings.Join(parts, ", "),
		Items:       items,
	}, nil
}
