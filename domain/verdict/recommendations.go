package verdict

import (
	"fmt"

	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
)

// DefaultClosing is appended to every recommendation list
const DefaultClosing = "AAR de 15 minutos pós-parada para captura de lições aprendidas"

// Rule recommends Text when the aspect's final value is strictly below Below
type Rule struct {
	Aspect aspect.Aspect `json:"aspect" yaml:"aspect"`
	Below  int           `json:"below" yaml:"below"`
	Text   string        `json:"text" yaml:"text"`
}

// Recommender evaluates rules in order and always ends with Closing
type Recommender struct {
	Rules   []Rule `json:"rules" yaml:"rules"`
	Closing string `json:"closing" yaml:"closing"`
}

// Validate checks every rule targets an aspect of set
func (r Recommender) Validate(set aspect.Set) error {
	for i, rule := range r.Rules {
		if !set.Contains(rule.Aspect) {
			return core.NewUnknownAspectError(fmt.Sprintf("recommendations[%d]", i), string(rule.Aspect))
		}
		if rule.Text == "" {
			return core.NewValidationError(fmt.Sprintf("recommendations[%d].text", i), "must not be empty")
		}
	}
	return nil
}

// Recommend returns the triggered rule texts in rule order followed by the closing line
func (r Recommender) Recommend(score aspect.Score) []string {
	recs := make([]string, 0, len(r.Rules)+1)
	for _, rule := range r.Rules {
		if score[rule.Aspect] < rule.Below {
			recs = append(recs, rule.Text)
		}
	}
	closing := r.Closing
	if closing == "" {
		closing = DefaultClosing
	}
	return append(recs, closing)
}
