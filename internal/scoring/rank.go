package scoring

import (
	"fmt"
	"strings"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
)

// RankRatio returns achieved/max positional weight for a ranking. Presence
// credits every filled position; ideal credits positions that match the
// ideal order. A zero max yields 0.
func RankRatio(cfg *stage.RankConfig, ranked []string) float64 {
	achieved, total := 0, 0
	for i, w := range cfg.Weights {
		total += w
		if i >= len(ranked) {
			continue
		}
		switch cfg.Strategy {
		case stage.RankIdeal:
			if i < len(cfg.IdealOrder) && ranked[i] == cfg.IdealOrder[i] {
				achieved += w
			}
		default:
			achieved += w
		}
	}
	if total == 0 {
		return 0
	}
	return float64(achieved) / float64(total)
}

// scoreRank grants CorrectEffect when the weighted ratio reaches the threshold
func scoreRank(st stage.Stage, _ aspect.Set, resp answer.Response) (answer.Outcome, error) {
	cfg := st.Rank
	known := make(map[string]bool, len(cfg.Items))
	byID := make(map[string]stage.RankItem, len(cfg.Items))
	for _, item := range cfg.Items {
		known[item.ID] = true
		byID[item.ID] = item
	}
	if err := checkSelection(st.ID, resp.Ranked, known, len(cfg.Items)); err != nil {
		return answer.Outcome{}, err
	}
	if len(resp.Ranked) == 0 {
		return emptySelection(), nil
	}
	if cfg.Strategy == stage.RankIdeal && len(resp.Ranked) != len(cfg.Items) {
		return answer.Outcome{}, core.NewInvalidAnswerError(st.ID, fmt.Sprintf("every item must be ranked, got %d of %d", len(resp.Ranked), len(cfg.Items)))
	}

	effect := cfg.WrongEffect.Clone()
	if RankRatio(cfg, resp.Ranked)+accuracyEpsilon >= cfg.Threshold {
		effect = cfg.CorrectEffect.Clone()
	}

	items := make([]answer.ItemResult, 0, len(resp.Ranked))
	parts := make([]string, 0, len(resp.Ranked))
	for i, id := range resp.Ranked {
		item := byID[id]
		c := answer.Neutral
		if cfg.Strategy == stage.RankIdeal {
			c = answer.Incorrect
			if i < len(cfg.IdealOrder) && cfg.IdealOrder[i] == id {
				c = answer.Correct
			}
		}
		items = append(items, answer.ItemResult{
			Key:       item.ID,
			Label:     item.Text,
			ValueText: answer.Text(item.Text),
			ValueNum:  answer.Num(float64(i + 1)),
			Correct:   c,
		})
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, item.Text))
	}

	return answer.Outcome{
		Effect:      effect,
		Description: "Ordem: " + strings.Join(parts, ", "),
		Items:       items,
	}, nil
}
