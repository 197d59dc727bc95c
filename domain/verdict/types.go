// Package verdict classifies a final Score into a named band and risk label
// and derives the ordered recommendation list.
package verdict

import (
	"fmt"
	"sort"

	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
)

// Band is one row of a classification table. A value belongs to the first
// band, in descending Min order, whose Min it reaches.
type Band struct {
	Min   int    `json:"min" yaml:"min"`
	Label string `json:"label" yaml:"label"`
	Style string `json:"style" yaml:"style"`
}

// Table is an ordered list of bands, most favourable first. The last band
// catches every value below the others.
type Table struct {
	bands []Band
}

// NewTable sorts bands by descending Min and rejects empty or ambiguous tables
func NewTable(bands []Band) (Table, error) {
	if len(bands) == 0 {
		return Table{}, core.NewValidationError("bands", "at least one band is required")
	}
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	for i, b := range sorted {
		if b.Label == "" {
			return Table{}, core.NewValidationError(fmt.Sprintf("bands[%d].label", i), "must not be empty")
		}
		if i > 0 && sorted[i-1].Min == b.Min {
			return Table{}, core.NewValidationError("bands", fmt.Sprintf("duplicate lower bound %d", b.Min))
		}
	}
	return Table{bands: sorted}, nil
}

// MustNewTable is NewTable for static tables
func MustNewTable(bands []Band) Table {
	t, err := NewTable(bands)
	if err != nil {
		panic(err)
	}
	return t
}

// Bands returns the bands most favourable first
func (t Table) Bands() []Band {
	out := make([]Band, len(t.bands))
	copy(out, t.bands)
	return out
}

// Classify returns the first band whose inclusive lower bound v reaches
func (t Table) Classify(v float64) Band {
	if len(t.bands) == 0 {
		return Band{}
	}
	for _, b := range t.bands {
		if v >= float64(b.Min) {
			return b
		}
	}
	return t.bands[len(t.bands)-1]
}

// DefaultBands is the verdict table used when a stage set does not define one
func DefaultBands() Table {
	return MustNewTable([]Band{
		{Min: 85, Label: "Líder Visionário", Style: "text-success"},
		{Min: 70, Label: "Gestor Consistente", Style: "text-success"},
		{Min: 55, Label: "Tático em Evolução", Style: "text-warning"},
		{Min: 0, Label: "Reativo em Risco", Style: "text-destructive"},
	})
}

// DefaultRisk is the risk table used when a stage set does not define one
func DefaultRisk() Table {
	return MustNewTable([]Band{
		{Min: 80, Label: "Baixo", Style: "badge-risk-baixo"},
		{Min: 60, Label: "Médio", Style: "badge-risk-medio"},
		{Min: 0, Label: "Alto", Style: "badge-risk-alto"},
	})
}

// Verdict is the classification of a finished score
type Verdict struct {
	Average float64 `json:"average"`
	Rounded int     `json:"rounded"`
	Band    string  `json:"band"`
	Style   string  `json:"style"`
}

// Evaluate rounds avg half-up and classifies the rounded value
func (t Table) Evaluate(avg float64) Verdict {
	rounded := aspect.RoundHalfUp(avg)
	band := t.Classify(float64(rounded))
	return Verdict{Average: avg, Rounded: rounded, Band: band.Label, Style: band.Style}
}

// RiskLabel classifies the unrounded average against the risk table
func (t Table) RiskLabel(avg float64) Band {
	return t.Classify(avg)
}
