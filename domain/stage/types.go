// Package stage defines the ordered steps of a simulation. A Stage is a
// tagged variant: Kind selects which mechanism config is populated.
package stage

import (
	"decisionsim/domain/aspect"
)

// Kind selects the interaction mechanism and scoring strategy of a stage
type Kind string

const (
	KindChoice     Kind = "choice"      // one option out of many, fixed effect per option
	KindSelect     Kind = "select"      // pick items, scored by accuracy against a correct flag
	KindWordEffect Kind = "word-effect" // pick items, effects summed per item
	KindRating     Kind = "rating"      // numeric ratings, recorded only
	KindRank       Kind = "rank"        // order items, scored by positional weights
	KindDimensions Kind = "dimensions"  // practiced / not practiced per dimension
	KindSequential Kind = "sequential"  // yes/no question followed by a frequency scale
)

// Kinds lists every supported kind
func Kinds() []Kind {
	return []Kind{KindChoice, KindSelect, KindWordEffect, KindRating, KindRank, KindDimensions, KindSequential}
}

// AccuracyMode selects the denominator of select-stage accuracy
type AccuracyMode string

const (
	// AccuracyRecall divides correct selections by every correct item in the catalog
	AccuracyRecall AccuracyMode = "recall"
	// AccuracyPrecision divides correct selections by the number of selections
	AccuracyPrecision AccuracyMode = "precision"
)

// RankStrategy selects how a ranking is compared
type RankStrategy string

const (
	// RankPresence credits the weight of every filled position
	RankPresence RankStrategy = "presence"
	// RankIdeal credits the weight of positions matching the ideal order
	RankIdeal RankStrategy = "ideal"
)

// DefaultThreshold is the accuracy needed for the correct effect
const DefaultThreshold = 0.7

// DefaultMaxWords caps word-effect selections when unset
const DefaultMaxWords = 5

// Media is presentation-only material shown beside a stage
type Media struct {
	Type   string `json:"type" yaml:"type"`
	Src    string `json:"src" yaml:"src"`
	Poster string `json:"poster,omitempty" yaml:"poster,omitempty"`
	Alt    string `json:"alt,omitempty" yaml:"alt,omitempty"`
}

// Stage is one step of a stage set
type Stage struct {
	ID     int    `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Note   string `json:"note,omitempty" yaml:"note,omitempty"`
	Kind   Kind   `json:"kind" yaml:"kind"`
	Media  *Media `json:"media,omitempty" yaml:"media,omitempty"`
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty"`

	Choice     *ChoiceConfig     `json:"choice,omitempty" yaml:"choice,omitempty"`
	Select     *SelectConfig     `json:"select,omitempty" yaml:"select,omitempty"`
	WordEffect *WordEffectConfig `json:"word_effect,omitempty" yaml:"word_effect,omitempty"`
	Rating     *RatingConfig     `json:"rating,omitempty" yaml:"rating,omitempty"`
	Rank       *RankConfig       `json:"rank,omitempty" yaml:"rank,omitempty"`
	Dimensions *DimensionsConfig `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Sequential *SequentialConfig `json:"sequential,omitempty" yaml:"sequential,omitempty"`
}

// Choice is one option of a choice stage
type Choice struct {
	ID            string        `json:"id" yaml:"id"`
	Label         string        `json:"label" yaml:"label"`
	Note          string        `json:"note,omitempty" yaml:"note,omitempty"`
	Effect        aspect.Effect `json:"effect" yaml:"effect"`
	Justification string        `json:"justification,omitempty" yaml:"justification,omitempty"`
}

// ChoiceConfig holds the options of a choice stage
type ChoiceConfig struct {
	Options []Choice `json:"options" yaml:"options"`
}

// SelectItem is a selectable item with a correctness flag
type SelectItem struct {
	ID      string `json:"id" yaml:"id"`
	Text    string `json:"text" yaml:"text"`
	Correct bool   `json:"correct" yaml:"correct"`
}

// Tier grants Effect when accuracy reaches Min. Tiers are checked from the
// highest Min down.
type Tier struct {
	Min    float64       `json:"min" yaml:"min"`
	Effect aspect.Effect `json:"effect" yaml:"effect"`
}

// SelectConfig scores a selection by accuracy against Threshold
type SelectConfig struct {
	Items         []SelectItem  `json:"items" yaml:"items"`
	MaxSelections int           `json:"max_selections,omitempty" yaml:"max_selections,omitempty"`
	Threshold     float64       `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Accuracy      AccuracyMode  `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	CorrectEffect aspect.Effect `json:"correct_effect" yaml:"correct_effect"`
	WrongEffect   aspect.Effect `json:"wrong_effect" yaml:"wrong_effect"`
	Tiers         []Tier        `json:"tiers,omitempty" yaml:"tiers,omitempty"`
}

// Word is a selectable word carrying either per-aspect effects or a scalar
// that is spread evenly over all aspects
type Word struct {
	ID             string        `json:"id" yaml:"id"`
	Text           string        `json:"text" yaml:"text"`
	EffectByAspect aspect.Effect `json:"effect_by_aspect,omitempty" yaml:"effect_by_aspect,omitempty"`
	Points         int           `json:"points,omitempty" yaml:"points,omitempty"`
}

// WordEffectConfig sums the effects of every selected word
type WordEffectConfig struct {
	Words         []Word `json:"words" yaml:"words"`
	MaxSelections int    `json:"max_selections,omitempty" yaml:"max_selections,omitempty"`
}

// RatingItem is one rated statement
type RatingItem struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// RatingConfig collects numeric ratings on a bounded scale
type RatingConfig struct {
	Items []RatingItem `json:"items" yaml:"items"`
	Min   int          `json:"min" yaml:"min"`
	Max   int          `json:"max" yaml:"max"`
	Step  int          `json:"step,omitempty" yaml:"step,omitempty"`
}

// RankItem is one orderable item
type RankItem struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// RankConfig scores an ordering by positional weights
type RankConfig struct {
	Items         []RankItem    `json:"items" yaml:"items"`
	Weights       []int         `json:"weights" yaml:"weights"`
	Threshold     float64       `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Strategy      RankStrategy  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	IdealOrder    []string      `json:"ideal_order,omitempty" yaml:"ideal_order,omitempty"`
	CorrectEffect aspect.Effect `json:"correct_effect" yaml:"correct_effect"`
	WrongEffect   aspect.Effect `json:"wrong_effect" yaml:"wrong_effect"`
}

// Dimension is one behaviour judged practiced or not practiced
type Dimension struct {
	Key         string `json:"key" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DimensionsConfig gives each aspect Weight*practiced - Penalty*notPracticed
type DimensionsConfig struct {
	Items             []Dimension           `json:"items" yaml:"items"`
	PracticedWeight   map[aspect.Aspect]int `json:"practiced_weight,omitempty" yaml:"practiced_weight,omitempty"`
	Penalty           int                   `json:"penalty,omitempty" yaml:"penalty,omitempty"`
	PracticedLabel    string                `json:"practiced_label,omitempty" yaml:"practiced_label,omitempty"`
	NotPracticedLabel string                `json:"not_practiced_label,omitempty" yaml:"not_practiced_label,omitempty"`
}

// YesNoQuestion is the first half of a sequential stage
type YesNoQuestion struct {
	Prompt    string        `json:"prompt" yaml:"prompt"`
	YesLabel  string        `json:"yes_label,omitempty" yaml:"yes_label,omitempty"`
	NoLabel   string        `json:"no_label,omitempty" yaml:"no_label,omitempty"`
	YesEffect aspect.Effect `json:"yes_effect,omitempty" yaml:"yes_effect,omitempty"`
	NoEffect  aspect.Effect `json:"no_effect,omitempty" yaml:"no_effect,omitempty"`
}

// ScaleOption is one answer of a frequency scale
type ScaleOption struct {
	Key    string        `json:"key" yaml:"key"`
	Label  string        `json:"label" yaml:"label"`
	Effect aspect.Effect `json:"effect" yaml:"effect"`
}

// ScaleQuestion is the second half of a sequential stage
type ScaleQuestion struct {
	Prompt  string        `json:"prompt" yaml:"prompt"`
	Options []ScaleOption `json:"options" yaml:"options"`
}

// SequentialConfig sums a yes/no answer and a scale answer
type SequentialConfig struct {
	First  YesNoQuestion `json:"first" yaml:"first"`
	Second ScaleQuestion `json:"second" yaml:"second"`
}
