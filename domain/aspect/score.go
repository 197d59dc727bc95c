package aspect

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"decisionsim/domain/core"

	"github.com/montanaflynn/stats"
)

const (
	// MinScore and MaxScore bound every Score value
	MinScore = 0
	MaxScore = 100
	// DefaultInitial is the starting value used when a set does not configure one
	DefaultInitial = 70
	// MaxDelta bounds the magnitude of a configured per-aspect delta
	MaxDelta = 1000
)

// Score maps every configured aspect to a value in [MinScore, MaxScore]
type Score map[Aspect]int

// Effect is a partial signed delta over aspects; absent keys mean no change
type Effect map[Aspect]int

// Clamp restricts n to [MinScore, MaxScore]
func Clamp(n int) int {
	if n < MinScore {
		return MinScore
	}
	if n > MaxScore {
		return MaxScore
	}
	return n
}

// RoundHalfUp rounds x to the nearest integer with halves going towards +Inf
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// NewScore builds the initial Score for a set. Aspects missing from initial
// start at DefaultInitial; all values are clamped.
func NewScore(set Set, initial map[Aspect]int) Score {
	score := make(Score, set.Len())
	for _, key := range set.Keys() {
		v, ok := initial[key]
		if !ok {
			v = DefaultInitial
		}
		score[key] = Clamp(v)
	}
	return score
}

// ApplyDelta returns a new Score with effect added and each touched value
// clamped. The input score is not modified.
func ApplyDelta(score Score, effect Effect) Score {
	next := score.Clone()
	for key, delta := range effect {
		// a delta wider than the score range saturates either way
		switch {
		case delta > MaxScore-MinScore:
			delta = MaxScore - MinScore
		case delta < MinScore-MaxScore:
			delta = MinScore - MaxScore
		}
		next[key] = Clamp(next[key] + delta)
	}
	return next
}

// Average is the arithmetic mean over every aspect of set, 0 for an empty set
func Average(score Score, set Set) float64 {
	if set.Len() == 0 {
		return 0
	}
	data := make(stats.Float64Data, 0, set.Len())
	for _, key := range set.Keys() {
		data = append(data, float64(score[key]))
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return mean
}

// Clone copies the score
func (s Score) Clone() Score {
	out := make(Score, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Conforms reports whether s covers exactly the aspects of set with in-range values
func (s Score) Conforms(set Set) bool {
	if len(s) != set.Len() {
		return false
	}
	for k, v := range s {
		if !set.Contains(k) || v != Clamp(v) {
			return false
		}
	}
	return true
}

// Uniform returns an Effect adding delta to every aspect of set
func Uniform(set Set, delta int) Effect {
	e := make(Effect, set.Len())
	for _, key := range set.Keys() {
		e[key] = delta
	}
	return e
}

// Add returns the key-wise sum of e and other
func (e Effect) Add(other Effect) Effect {
	out := make(Effect, len(e)+len(other))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range other {
		out[k] += v
	}
	return out
}

// Clone copies the effect
func (e Effect) Clone() Effect {
	return Effect{}.Add(e)
}

// Sum returns the total of all deltas
func (e Effect) Sum() int {
	total := 0
	for _, v := range e {
		total += v
	}
	return total
}

// IsZero reports whether the effect changes nothing
func (e Effect) IsZero() bool {
	for _, v := range e {
		if v != 0 {
			return false
		}
	}
	return true
}

// Validate rejects keys that are not members of set and deltas whose
// magnitude exceeds MaxDelta
func (e Effect) Validate(set Set, where string) error {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !set.Contains(Aspect(k)) {
			return core.NewUnknownAspectError(where, k)
		}
		if v := e[Aspect(k)]; v > MaxDelta || v < -MaxDelta {
			return core.NewValidationError(where+"."+k, fmt.Sprintf("delta %d is outside ±%d", v, MaxDelta))
		}
	}
	return nil
}

// Format renders the non-zero deltas in set order as "Label: +n, Label: -m"
func (e Effect) Format(set Set) string {
	parts := make([]string, 0, len(e))
	for _, key := range set.Keys() {
		v := e[key]
		if v == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %+d", set.Label(key), v))
	}
	return strings.Join(parts, ", ")
}
