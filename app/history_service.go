package app

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"

	"decisionsim/domain/aspect"
	"decisionsim/domain/session"
	"decisionsim/domain/stage"
	"decisionsim/ports"
)

// AspectStats describes the distribution of one aspect over completed sessions
type AspectStats struct {
	Aspect aspect.Aspect `json:"aspect"`
	Label  string        `json:"label"`
	Mean   float64       `json:"mean"`
	StdDev float64       `json:"std_dev"`
	Min    float64       `json:"min"`
	Median float64       `json:"median"`
	Max    float64       `json:"max"`
}

// HistoryStats aggregates the history of completed sessions
type HistoryStats struct {
	Sessions    int            `json:"sessions"`
	MeanAverage float64        `json:"mean_average"`
	Aspects     []AspectStats  `json:"aspects"`
	Bands       map[string]int `json:"bands"`
}

// HistoryService reads and summarizes completed sessions
type HistoryService struct {
	set  *stage.Set
	repo ports.SessionRepository
}

// NewHistoryService creates a history service
func NewHistoryService(set *stage.Set, repo ports.SessionRepository) *HistoryService {
	return &HistoryService{set: set, repo: repo}
}

// List returns completed summaries of the current stage set, newest first
func (h *HistoryService) List(ctx context.Context) ([]session.Summary, error) {
	all, err := h.repo.ListHistory(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]session.Summary, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].SetName == h.set.Name {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Clear removes the summaries of the current stage set
func (h *HistoryService) Clear(ctx context.Context) error {
	return h.repo.ClearHistory(ctx, h.set.Name)
}

// Stats computes per-aspect statistics over the history
func (h *HistoryService) Stats(ctx context.Context) (HistoryStats, error) {
	history, err := h.List(ctx)
	if err != nil {
		return HistoryStats{}, err
	}
	return Analyze(h.set.Aspects, history), nil
}

// Analyze computes HistoryStats for summaries. Empty input yields zeros.
func Analyze(set aspect.Set, history []session.Summary) HistoryStats {
	out := HistoryStats{Sessions: len(history), Bands: map[string]int{}}
	if len(history) == 0 {
		return out
	}

	averages := make([]float64, len(history))
	for i, s := range history {
		averages[i] = s.Average
		out.Bands[s.Band]++
	}
	out.MeanAverage = stat.Mean(averages, nil)

	for _, def := range set.Definitions() {
		values := make([]float64, len(history))
		for i, s := range history {
			values[i] = float64(s.Score[def.Key])
		}
		sort.Float64s(values)
		st := AspectStats{Aspect: def.Key, Label: def.Label, Min: values[0], Max: values[len(values)-1]}
		if len(values) > 1 {
			st.Mean, st.StdDev = stat.MeanStdDev(values, nil)
		} else {
			st.Mean = values[0]
		}
		st.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
		out.Aspects = append(out.Aspects, st)
	}
	return out
}
