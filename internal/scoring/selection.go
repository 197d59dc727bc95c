package scoring

import (
	"sort"
	"strings"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/stage"
)

// Accuracy computes the share of correct picks. Recall divides by every
// correct item in the catalog, precision by the number of picks. A zero
// denominator yields 0.
func Accuracy(mode stage.AccuracyMode, items []stage.SelectItem, selected []string) float64 {
	correct := make(map[string]bool, len(items))
	total := 0
	for _, item := range items {
		if item.Correct {
			correct[item.ID] = true
			total++
		}
	}
	hits := 0
	for _, id := range selected {
		if correct[id] {
			hits++
		}
	}

	denominator := total
	if mode == stage.AccuracyPrecision {
		denominator = len(selected)
	}
	if denominator == 0 {
		return 0
	}
	return float64(hits) / float64(denominator)
}

// scoreSelect grants CorrectEffect when accuracy reaches the threshold and
// WrongEffect otherwise. When tiers are configured the highest reached tier
// wins instead.
func scoreSelect(st stage.Stage, _ aspect.Set, resp answer.Response) (answer.Outcome, error) {
	cfg := st.Select
	known := make(map[string]bool, len(cfg.Items))
	byID := make(map[string]stage.SelectItem, len(cfg.Items))
	for _, item := range cfg.Items {
		known[item.ID] = true
		byID[item.ID] = item
	}
	if err := checkSelection(st.ID, resp.Selected, known, cfg.MaxSelections); err != nil {
		return answer.Outcome{}, err
	}
	if len(resp.Selected) == 0 {
		return emptySelection(), nil
	}

	accuracy := Accuracy(cfg.Accuracy, cfg.Items, resp.Selected)
	var effect aspect.Effect
	if len(cfg.Tiers) > 0 {
		effect = tierEffect(cfg.Tiers, accuracy)
	} else if accuracy+accuracyEpsilon >= cfg.Threshold {
		effect = cfg.CorrectEffect.Clone()
	} else {
		effect = cfg.WrongEffect.Clone()
	}

	items := make([]answer.ItemResult, 0, len(resp.Selected))
	labels := make([]string, 0, len(resp.Selected))
	for _, id := range resp.Selected {
		item := byID[id]
		c := answer.Incorrect
		if item.Correct {
			c = answer.Correct
		}
		items = append(items, answer.ItemResult{
			Key:       item.ID,
			Label:     item.Text,
			ValueText: answer.Text(item.Text),
			Correct:   c,
		})
		labels = append(labels, item.Text)
	}

	return answer.Outcome{
		Effect:      effect,
		Description: "Selecionou: " + strings.Join(labels, ", "),
		Items:       items,
	}, nil
}

func tierEffect(tiers []stage.Tier, accuracy float64) aspect.Effect {
	sorted := make([]stage.Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	for _, t := range sorted {
		if accuracy+accuracyEpsilon >= t.Min {
			return t.Effect.Clone()
		}
	}
	return aspect.Effect{}
}
