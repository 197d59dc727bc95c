package stage

import (
	"fmt"

	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
)

// Normalize fills defaults that a stage file may omit
func (s *Stage) Normalize(aspects aspect.Set) {
	switch s.Kind {
	case KindChoice:
		if s.Choice == nil {
			return
		}
		for i := range s.Choice.Options {
			if s.Choice.Options[i].ID == "" {
				s.Choice.Options[i].ID = fmt.Sprintf("%d", i+1)
			}
		}
	case KindSelect:
		if s.Select == nil {
			return
		}
		if s.Select.Threshold == 0 {
			s.Select.Threshold = DefaultThreshold
		}
		if s.Select.Accuracy == "" {
			s.Select.Accuracy = AccuracyRecall
		}
	case KindWordEffect:
		if s.WordEffect != nil && s.WordEffect.MaxSelections == 0 {
			s.WordEffect.MaxSelections = DefaultMaxWords
		}
	case KindRating:
		if s.Rating == nil {
			return
		}
		if s.Rating.Min == 0 && s.Rating.Max == 0 {
			s.Rating.Max = 10
		}
		if s.Rating.Step == 0 {
			s.Rating.Step = 1
		}
	case KindRank:
		if s.Rank == nil {
			return
		}
		if s.Rank.Threshold == 0 {
			s.Rank.Threshold = DefaultThreshold
		}
		if s.Rank.Strategy == "" {
			s.Rank.Strategy = RankPresence
		}
	case KindDimensions:
		if s.Dimensions == nil {
			return
		}
		if len(s.Dimensions.PracticedWeight) == 0 {
			s.Dimensions.PracticedWeight = make(map[aspect.Aspect]int, aspects.Len())
			for _, key := range aspects.Keys() {
				s.Dimensions.PracticedWeight[key] = 1
			}
		}
		if s.Dimensions.Penalty == 0 {
			s.Dimensions.Penalty = 1
		}
		if s.Dimensions.PracticedLabel == "" {
			s.Dimensions.PracticedLabel = "Praticado"
		}
		if s.Dimensions.NotPracticedLabel == "" {
			s.Dimensions.NotPracticedLabel = "Não praticado"
		}
	case KindSequential:
		if s.Sequential == nil {
			return
		}
		if s.Sequential.First.YesLabel == "" {
			s.Sequential.First.YesLabel = "Sim"
		}
		if s.Sequential.First.NoLabel == "" {
			s.Sequential.First.NoLabel = "Não"
		}
	}
}

// Validate checks the stage is well formed and that every effect key is a
// member of aspects
func (s *Stage) Validate(aspects aspect.Set) error {
	where := fmt.Sprintf("stage %d", s.ID)
	if s.ID <= 0 {
		return core.NewValidationError(where+".id", "must be positive")
	}
	if s.Title == "" {
		return core.NewValidationError(where+".title", "must not be empty")
	}

	populated := 0
	for _, set := range []bool{
		s.Choice != nil, s.Select != nil, s.WordEffect != nil, s.Rating != nil,
		s.Rank != nil, s.Dimensions != nil, s.Sequential != nil,
	} {
		if set {
			populated++
		}
	}
	if populated != 1 {
		return core.NewValidationError(where, fmt.Sprintf("exactly one mechanism config is required, found %d", populated))
	}

	switch s.Kind {
	case KindChoice:
		return s.validateChoice(where, aspects)
	case KindSelect:
		return s.validateSelect(where, aspects)
	case KindWordEffect:
		return s.validateWordEffect(where, aspects)
	case KindRating:
		return s.validateRating(where)
	case KindRank:
		return s.validateRank(where, aspects)
	case KindDimensions:
		return s.validateDimensions(where, aspects)
	case KindSequential:
		return s.validateSequential(where, aspects)
	default:
		return core.NewValidationError(where+".kind", fmt.Sprintf("unknown kind %q", s.Kind))
	}
}

func missing(where string, kind Kind) error {
	return core.NewValidationError(where, fmt.Sprintf("kind %s requires its %s config", kind, kind))
}

func uniqueIDs(where string, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if id == "" {
			return core.NewValidationError(fmt.Sprintf("%s[%d]", where, i), "id must not be empty")
		}
		if seen[id] {
			return core.NewValidationError(where, fmt.Sprintf("duplicate id %q", id))
		}
		seen[id] = true
	}
	return nil
}

func validThreshold(where string, t float64) error {
	if t <= 0 || t > 1 {
		return core.NewValidationError(where+".threshold", fmt.Sprintf("must be in (0, 1], got %v", t))
	}
	return nil
}

func (s *Stage) validateChoice(where string, aspects aspect.Set) error {
	cfg := s.Choice
	if cfg == nil {
		return missing(where, s.Kind)
	}
	if len(cfg.Options) == 0 {
		return core.NewValidationError(where+".options", "at least one option is required")
	}
	ids := make([]string, len(cfg.Options))
	for i, opt := range cfg.Options {
		ids[i] = opt.ID
		if opt.Label == "" {
			return core.NewValidationError(fmt.Sprintf("%s.options[%d].label", where, i), "must not be empty")
		}
		if err := opt.Effect.Validate(aspects, fmt.Sprintf("%s.options[%d]", where, i)); err != nil {
			return err
		}
	}
	return uniqueIDs(where+".options", ids)
}

func (s *Stage) validateSelect(where string, aspects aspect.Set) error {
	cfg := s.Select
	if cfg == nil {
		return missing(where, s.Kind)
	}
	if len(cfg.Items) == 0 {
		return core.NewValidationError(where+".items", "at least one item is required")
	}
	ids := make([]string, len(cfg.Items))
	for i, item := range cfg.Items {
		ids[i] = item.ID
	}
	if err := uniqueIDs(where+".items", ids); err != nil {
		return err
	}
	if cfg.MaxSelections < 0 {
		return core.NewValidationError(where+".max_selections", "must not be negative")
	}
	if err := validThreshold(where, cfg.Threshold); err != nil {
		return err
	}
	if cfg.Accuracy != AccuracyRecall && cfg.Accuracy != AccuracyPrecision {
		return core.NewValidationError(where+".accuracy", fmt.Sprintf("unknown accuracy mode %q", cfg.Accuracy))
	}
	if err := cfg.CorrectEffect.Validate(aspects, where+".correct_effect"); err != nil {
		return err
	}
	if err := cfg.WrongEffect.Validate(aspects, where+".wrong_effect"); err != nil {
		return err
	}
	for i, tier := range cfg.Tiers {
		if tier.Min < 0 || tier.Min > 1 {
			return core.NewValidationError(fmt.Sprintf("%s.tiers[%d].min", where, i), "must be in [0, 1]")
		}
		if err := tier.Effect.Validate(aspects, fmt.Sprintf("%s.tiers[%d]", where, i)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) validateWordEffect(where string, aspects aspect.Set) error {
	cfg := s.WordEffect
	if cfg == nil {
		return missing(where, s.Kind)
	}
	if len(cfg.Words) == 0 {
		return core.NewValidationError(where+".words", "at least one word is required")
	}
	ids := make([]string, len(cfg.Words))
	for i, w := range cfg.Words {
		ids[i] = w.ID
		if err := w.EffectByAspect.Validate(aspects, fmt.Sprintf("%s.words[%d]", where, i)); err != nil {
			return err
		}
		if w.Points > aspect.MaxDelta || w.Points < -aspect.MaxDelta {
			return core.NewValidationError(fmt.Sprintf("%s.words[%d].points", where, i), fmt.Sprintf("must be within ±%d", aspect.MaxDelta))
		}
	}
	if cfg.MaxSelections < 0 {
		return core.NewValidationError(where+".max_selections", "must not be negative")
	}
	return uniqueIDs(where+".words", ids)
}

func (s *Stage) validateRating(where string) error {
	cfg := s.Rating
	if cfg == nil {
		return missing(where, s.Kind)
	}
	if len(cfg.Items) == 0 {
		return core.NewValidationError(where+".items", "at least one item is required")
	}
	if cfg.Min >= cfg.Max {
		return core.NewValidationError(where, fmt.Sprintf("min %d must be below max %d", cfg.Min, cfg.Max))
	}
	if cfg.Step <= 0 {
		return core.NewValidationError(where+".step", "must be positive")
	}
	keys := make([]string, len(cfg.Items))
	for i, item := range cfg.Items {
		keys[i] = item.Key
	}
	return uniqueIDs(where+".items", keys)
}

func (s *Stage) validateRank(where string, aspects aspect.Set) error {
	cfg := s.Rank
	if cfg == nil {
		return missing(where, s.Kind)
	}
	if len(cfg.Items) == 0 {
		return core.NewValidationError(where+".items", "at least one item is required")
	}
	if len(cfg.Weights) == 0 {
		return core.NewValidationError(where+".weights", "at least one weight is required")
	}
	for i, w := range cfg.Weights {
		if w < 0 {
			return core.NewValidationError(fmt.Sprintf("%s.weights[%d]", where, i), "must not be negative")
		}
	}
	ids := make([]string, len(cfg.Items))
	known := make(map[string]bool, len(cfg.Items))
	for i, item := range cfg.Items {
		ids[i] = item.ID
		known[item.ID] = true
	}
	if err := uniqueIDs(where+".items", ids); err != nil {
		return err
	}
	if err := validThreshold(where, cfg.Threshold); err != nil {
		return err
	}
	switch cfg.Strategy {
	case RankPresence:
	case RankIdeal:
		if len(cfg.IdealOrder) == 0 {
			return core.NewValidationError(where+".ideal_order", "required for the ideal strategy")
		}
		if err := uniqueIDs(where+".ideal_order", cfg.IdealOrder); err != nil {
			return err
		}
		for _, id := range cfg.IdealOrder {
			if !known[id] {
				return core.NewValidationError(where+".ideal_order", fmt.Sprintf("unknown item %q", id))
			}
		}
	default:
		return core.NewValidationError(where+".strategy", fmt.Sprintf("unknown rank strategy %q", cfg.Strategy))
	}
	if err := cfg.CorrectEffect.Validate(aspects, where+".correct_effect"); err != nil {
		return err
	}
	return cfg.WrongEffect.Validate(aspects, where+".wrong_effect")
}

func (s *Stage) validateDimensions(where string, aspects aspect.Set) error {
	cfg := s.Dimensions
	if cfg == nil {
		return missing(where, s.Kind)
	}
	if len(cfg.Items) == 0 {
		return core.NewValidationError(where+".items", "at least one dimension is required")
	}
	keys := make([]string, len(cfg.Items))
	for i, d := range cfg.Items {
		keys[i] = d.Key
	}
	if err := uniqueIDs(where+".items", keys); err != nil {
		return err
	}
	if cfg.Penalty < 0 || cfg.Penalty > aspect.MaxDelta {
		return core.NewValidationError(where+".penalty", fmt.Sprintf("must be within 0..%d", aspect.MaxDelta))
	}
	return aspect.Effect(cfg.PracticedWeight).Validate(aspects, where+".practiced_weight")
}

func (s *Stage) validateSequential(where string, aspects aspect.Set) error {
	cfg := s.Sequential
	if cfg == nil {
		return missing(where, s.Kind)
	}
	if err := cfg.First.YesEffect.Validate(aspects, where+".first.yes_effect"); err != nil {
		return err
	}
	if err := cfg.First.NoEffect.Validate(aspects, where+".first.no_effect"); err != nil {
		return err
	}
	if len(cfg.Second.Options) == 0 {
		return core.NewValidationError(where+".second.options", "at least one option is required")
	}
	keys := make([]string, len(cfg.Second.Options))
	for i, opt := range cfg.Second.Options {
		keys[i] = opt.Key
		if err := opt.Effect.Validate(aspects, fmt.Sprintf("%s.second.options[%d]", where, i)); err != nil {
			return err
		}
	}
	return uniqueIDs(where+".second.options", keys)
}
