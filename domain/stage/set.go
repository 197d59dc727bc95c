package stage

import (
	"fmt"
	"strings"

	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/verdict"
)

// Badge is a static label shown in the header of a set
type Badge struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Definition is the raw, unvalidated description of a stage set
type Definition struct {
	Name            string                `json:"name" yaml:"name"`
	Title           string                `json:"title" yaml:"title"`
	Aspects         []aspect.Definition   `json:"aspects" yaml:"aspects"`
	Initial         map[aspect.Aspect]int `json:"initial" yaml:"initial"`
	Bands           []verdict.Band        `json:"bands,omitempty" yaml:"bands,omitempty"`
	Risk            []verdict.Band        `json:"risk,omitempty" yaml:"risk,omitempty"`
	Recommendations verdict.Recommender   `json:"recommendations" yaml:"recommendations"`
	Units           map[string]int        `json:"units,omitempty" yaml:"units,omitempty"`
	Badges          []Badge               `json:"badges,omitempty" yaml:"badges,omitempty"`
	Stages          []Stage               `json:"stages" yaml:"stages"`
}

// Set is a validated, immutable stage set. Traversal follows Stages order;
// stage ids only need to be unique.
type Set struct {
	Name            string
	Title           string
	Aspects         aspect.Set
	Verdict         verdict.Table
	Risk            verdict.Table
	Recommendations verdict.Recommender
	Badges          []Badge
	Fingerprint     core.SetFingerprint

	initial aspect.Score
	stages  []Stage
	byID    map[int]int
	units   map[string]int
}

// NewSet normalizes and validates def. Every error wraps core.ErrConfigInvalid
// or core.ErrUnknownAspect and should abort startup.
func NewSet(def Definition, fingerprint core.SetFingerprint) (*Set, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, core.NewValidationError("name", "must not be empty")
	}
	aspects, err := aspect.NewSet(def.Aspects...)
	if err != nil {
		return nil, err
	}
	for key := range def.Initial {
		if !aspects.Contains(key) {
			return nil, core.NewUnknownAspectError("initial", string(key))
		}
	}
	if len(def.Stages) == 0 {
		return nil, core.NewValidationError("stages", "at least one stage is required")
	}

	bands := verdict.DefaultBands()
	if len(def.Bands) > 0 {
		if bands, err = verdict.NewTable(def.Bands); err != nil {
			return nil, err
		}
	}
	risk := verdict.DefaultRisk()
	if len(def.Risk) > 0 {
		if risk, err = verdict.NewTable(def.Risk); err != nil {
			return nil, err
		}
	}
	if err := def.Recommendations.Validate(aspects); err != nil {
		return nil, err
	}

	set := &Set{
		Name:            def.Name,
		Title:           def.Title,
		Aspects:         aspects,
		Verdict:         bands,
		Risk:            risk,
		Recommendations: def.Recommendations,
		Badges:          def.Badges,
		Fingerprint:     fingerprint,
		initial:         aspect.NewScore(aspects, def.Initial),
		stages:          make([]Stage, len(def.Stages)),
		byID:            make(map[int]int, len(def.Stages)),
		units:           make(map[string]int, len(def.Units)),
	}
	if set.Title == "" {
		set.Title = def.Name
	}

	for i, st := range def.Stages {
		st.Normalize(aspects)
		if err := st.Validate(aspects); err != nil {
			return nil, err
		}
		if _, dup := set.byID[st.ID]; dup {
			return nil, fmt.Errorf("%w: %d", core.ErrDuplicateStage, st.ID)
		}
		set.byID[st.ID] = i
		set.stages[i] = st
	}
	for code, id := range def.Units {
		if id <= 0 {
			return nil, core.NewValidationError("units."+code, "unit id must be positive")
		}
		set.units[strings.ToUpper(strings.TrimSpace(code))] = id
	}
	return set, nil
}

// Len returns the number of stages
func (s *Set) Len() int { return len(s.stages) }

// At returns the stage at position i in traversal order
func (s *Set) At(i int) (Stage, bool) {
	if i < 0 || i >= len(s.stages) {
		return Stage{}, false
	}
	return s.stages[i], true
}

// ByID looks a stage up by its id
func (s *Set) ByID(id int) (Stage, error) {
	i, ok := s.byID[id]
	if !ok {
		return Stage{}, fmt.Errorf("%w: %d", core.ErrStageNotFound, id)
	}
	return s.stages[i], nil
}

// Stages returns a copy of the stages in traversal order
func (s *Set) Stages() []Stage {
	out := make([]Stage, len(s.stages))
	copy(out, s.stages)
	return out
}

// InitialScore returns a fresh copy of the starting score
func (s *Set) InitialScore() aspect.Score {
	return s.initial.Clone()
}

// UnitID resolves a unit code such as "USM" to its numeric id
func (s *Set) UnitID(code string) (int, bool) {
	id, ok := s.units[strings.ToUpper(strings.TrimSpace(code))]
	return id, ok
}

// Units returns a copy of the unit code map
func (s *Set) Units() map[string]int {
	out := make(map[string]int, len(s.units))
	for k, v := range s.units {
		out[k] = v
	}
	return out
}
