// Package answer carries raw participant responses into the scoring engine
// and the scored outcome back out.
package answer

import (
	"decisionsim/domain/aspect"
	"decisionsim/domain/stage"
)

// Response is the raw answer to one stage. Only the fields matching the
// stage kind are read.
type Response struct {
	// OptionID answers a choice stage
	OptionID string `json:"option_id,omitempty"`
	// Selected answers select and word-effect stages
	Selected []string `json:"selected,omitempty"`
	// Ranked answers a rank stage, best first
	Ranked []string `json:"ranked,omitempty"`
	// Ratings answers a rating stage, keyed by item key
	Ratings map[string]int `json:"ratings,omitempty"`
	// Practiced answers a dimensions stage, keyed by dimension key
	Practiced map[string]bool `json:"practiced,omitempty"`
	// FirstYes and SecondKey answer a sequential stage
	FirstYes  *bool  `json:"first_yes,omitempty"`
	SecondKey string `json:"second_key,omitempty"`
}

// Correctness is the per-item verdict sent to the collector
type Correctness int

const (
	Incorrect Correctness = -1
	Neutral   Correctness = 0
	Correct   Correctness = 1
)

// ItemResult is the per-item breakdown of a scored response
type ItemResult struct {
	Key       string        `json:"item_key"`
	Label     string        `json:"item_label"`
	ValueText *string       `json:"value_text,omitempty"`
	ValueNum  *float64      `json:"value_num,omitempty"`
	Correct   Correctness   `json:"is_correct"`
	Delta     aspect.Effect `json:"delta,omitempty"`
}

// Outcome is the scored result of one response
type Outcome struct {
	StageID       int           `json:"stage_id"`
	Kind          stage.Kind    `json:"kind"`
	Effect        aspect.Effect `json:"effect"`
	Description   string        `json:"description"`
	Note          string        `json:"note,omitempty"`
	Justification string        `json:"justification,omitempty"`
	Items         []ItemResult  `json:"items"`
}

// Text returns a pointer to s for optional item fields
func Text(s string) *string { return &s }

// Num returns a pointer to n for optional item fields
func Num(n float64) *float64 { return &n }

// Bool returns a pointer to b for the FirstYes field of a sequential response
func Bool(b bool) *bool { return &b }
