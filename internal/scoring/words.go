package scoring

import (
	"strings"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/stage"
)

// SpreadPoints converts a legacy scalar into a uniform effect of
// round(points / aspects) on every aspect. The rounded parts need not add
// back up to points.
func SpreadPoints(points int, aspects aspect.Set) aspect.Effect {
	if aspects.Len() == 0 {
		return aspect.Effect{}
	}
	per := aspect.RoundHalfUp(float64(points) / float64(aspects.Len()))
	return aspect.Uniform(aspects, per)
}

// wordEffect is the contribution of a single word
func wordEffect(w stage.Word, aspects aspect.Set) aspect.Effect {
	if len(w.EffectByAspect) > 0 {
		return w.EffectByAspect.Clone()
	}
	if w.Points != 0 {
		return SpreadPoints(w.Points, aspects)
	}
	return aspect.Effect{}
}

// scoreWordEffect sums the per-aspect effects of every selected word
func scoreWordEffect(st stage.Stage, aspects aspect.Set, resp answer.Response) (answer.Outcome, error) {
	cfg := st.WordEffect
	known := make(map[string]bool, len(cfg.Words))
	byID := make(map[string]stage.Word, len(cfg.Words))
	for _, w := range cfg.Words {
		known[w.ID] = true
		byID[w.ID] = w
	}
	if err := checkSelection(st.ID, resp.Selected, known, cfg.MaxSelections); err != nil {
		return answer.Outcome{}, err
	}
	if len(resp.Selected) == 0 {
		return emptySelection(), nil
	}

	total := aspect.Effect{}
	items := make([]answer.ItemResult, 0, len(resp.Selected))
	labels := make([]string, 0, len(resp.Selected))
	for _, id := range resp.Selected {
		w := byID[id]
		delta := wordEffect(w, aspects)
		total = total.Add(delta)
		items = append(items, answer.ItemResult{
			Key:       w.ID,
			Label:     w.Text,
			ValueText: answer.Text(w.Text),
			Correct:   correctnessOf(delta),
			Delta:     delta,
		})
		labels = append(labels, w.Text)
	}

	return answer.Outcome{
		Effect:      total,
		Description: "Selecionou: " + strings.Join(labels, ", "),
		Items:       items,
	}, nil
}
