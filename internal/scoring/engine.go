// Package scoring turns a raw response into an Effect. Each stage kind maps
// to one Strategy; the Engine only dispatches.
package scoring

import (
	"fmt"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
)

// accuracyEpsilon absorbs float error when comparing ratios to a threshold
const accuracyEpsilon = 1e-9

// Strategy scores a response to a stage of one kind
type Strategy interface {
	Score(st stage.Stage, aspects aspect.Set, resp answer.Response) (answer.Outcome, error)
}

// StrategyFunc adapts a function to Strategy
type StrategyFunc func(st stage.Stage, aspects aspect.Set, resp answer.Response) (answer.Outcome, error)

// Score calls f
func (f StrategyFunc) Score(st stage.Stage, aspects aspect.Set, resp answer.Response) (answer.Outcome, error) {
	return f(st, aspects, resp)
}

// Engine dispatches responses to the strategy registered for the stage kind
type Engine struct {
	aspects    aspect.Set
	strategies map[stage.Kind]Strategy
}

// NewEngine creates an engine with every built-in strategy registered
func NewEngine(aspects aspect.Set) *Engine {
	e := &Engine{
		aspects:    aspects,
		strategies: make(map[stage.Kind]Strategy, len(stage.Kinds())),
	}
	e.Register(stage.KindChoice, StrategyFunc(scoreChoice))
	e.Register(stage.KindSelect, StrategyFunc(scoreSelect))
	e.Register(stage.KindWordEffect, StrategyFunc(scoreWordEffect))
	e.Register(stage.KindRating, StrategyFunc(scoreRating))
	e.Register(stage.KindRank, StrategyFunc(scoreRank))
	e.Register(stage.KindDimensions, StrategyFunc(scoreDimensions))
	e.Register(stage.KindSequential, StrategyFunc(scoreSequential))
	return e
}

// Register installs or replaces the strategy for kind
func (e *Engine) Register(kind stage.Kind, s Strategy) {
	e.strategies[kind] = s
}

// Supports reports whether a strategy is registered for kind
func (e *Engine) Supports(kind stage.Kind) bool {
	_, ok := e.strategies[kind]
	return ok
}

// Score computes the outcome of resp for st. Malformed responses return an
// error wrapping core.ErrInvalidAnswer.
func (e *Engine) Score(st stage.Stage, resp answer.Response) (answer.Outcome, error) {
	strategy, ok := e.strategies[st.Kind]
	if !ok {
		return answer.Outcome{}, fmt.Errorf("%w: no scoring strategy for kind %q", core.ErrConfigInvalid, st.Kind)
	}
	out, err := strategy.Score(st, e.aspects, resp)
	if err != nil {
		return answer.Outcome{}, err
	}
	out.StageID = st.ID
	out.Kind = st.Kind
	if out.Effect == nil {
		out.Effect = aspect.Effect{}
	}
	if out.Items == nil {
		out.Items = []answer.ItemResult{}
	}
	if out.Note == "" {
		out.Note = st.Note
	}
	return out, nil
}

func correctnessOf(e aspect.Effect) answer.Correctness {
	switch sum := e.Sum(); {
	case sum > 0:
		return answer.Correct
	case sum < 0:
		return answer.Incorrect
	default:
		return answer.Neutral
	}
}

// checkSelection rejects duplicates, unknown ids and selections above limit (0 means unlimited)
func checkSelection(stageID int, ids []string, known map[string]bool, limit int) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !known[id] {
			return core.NewInvalidAnswerError(stageID, fmt.Sprintf("unknown item %q", id))
		}
		if seen[id] {
			return core.NewInvalidAnswerError(stageID, fmt.Sprintf("item %q selected twice", id))
		}
		seen[id] = true
	}
	if limit > 0 && len(ids) > limit {
		return core.NewInvalidAnswerError(stageID, fmt.Sprintf("at most %d selections allowed, got %d", limit, len(ids)))
	}
	return nil
}

// emptySelection is the neutral outcome of a response that picked nothing
func emptySelection() answer.Outcome {
	return answer.Outcome{Effect: aspect.Effect{}, Description: "Nenhuma seleção"}
}
