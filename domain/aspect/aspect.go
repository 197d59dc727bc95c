// Package aspect holds the closed set of scored dimensions and the Score and
// Effect maps that travel through a session.
package aspect

import (
	"fmt"
	"strings"

	"decisionsim/domain/core"
)

// Aspect is a key from the closed, per-stage-set list of scored dimensions
type Aspect string

// String returns the aspect key
func (a Aspect) String() string { return string(a) }

// Definition names an aspect for display
type Definition struct {
	Key   Aspect `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// Set is the ordered, closed collection of aspects a stage set scores against
type Set struct {
	defs  []Definition
	index map[Aspect]int
}

// NewSet builds a Set, rejecting empty input, blank keys and duplicates
func NewSet(defs ...Definition) (Set, error) {
	if len(defs) == 0 {
		return Set{}, core.NewValidationError("aspects", "at least one aspect is required")
	}
	s := Set{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[Aspect]int, len(defs)),
	}
	for i, d := range defs {
		key := Aspect(strings.TrimSpace(string(d.Key)))
		if key == "" {
			return Set{}, core.NewValidationError(fmt.Sprintf("aspects[%d].key", i), "must not be empty")
		}
		if _, dup := s.index[key]; dup {
			return Set{}, core.NewValidationError(fmt.Sprintf("aspects[%d].key", i), fmt.Sprintf("duplicate aspect %q", key))
		}
		if d.Label == "" {
			d.Label = string(key)
		}
		d.Key = key
		s.index[key] = len(s.defs)
		s.defs = append(s.defs, d)
	}
	return s, nil
}

// MustNewSet is NewSet for static definitions; it panics on invalid input
func MustNewSet(defs ...Definition) Set {
	s, err := NewSet(defs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of aspects
func (s Set) Len() int { return len(s.defs) }

// Contains reports whether a is a member of the set
func (s Set) Contains(a Aspect) bool {
	_, ok := s.index[a]
	return ok
}

// Keys returns the aspect keys in display order
func (s Set) Keys() []Aspect {
	keys := make([]Aspect, len(s.defs))
	for i, d := range s.defs {
		keys[i] = d.Key
	}
	return keys
}

// Definitions returns a copy of the definitions in display order
func (s Set) Definitions() []Definition {
	out := make([]Definition, len(s.defs))
	copy(out, s.defs)
	return out
}

// Label returns the display label of a, or the key itself when unknown
func (s Set) Label(a Aspect) string {
	if i, ok := s.index[a]; ok {
		return s.defs[i].Label
	}
	return string(a)
}
