package session

import (
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
)

// Summarize computes the final report of s against set. It does not check
// completion; callers decide when a summary is final.
func Summarize(set *stage.Set, s *Session, now core.Timestamp) Summary {
	avg := aspect.Average(s.Score, set.Aspects)
	v := set.Verdict.Evaluate(avg)
	risk := set.Risk.RiskLabel(avg)
	c := s.Clone()
	return Summary{
		SessionID:       c.ID,
		SetName:         c.SetName,
		FinishedAt:      now,
		Score:           c.Score,
		Average:         v.Average,
		Rounded:         v.Rounded,
		Band:            v.Band,
		Style:           v.Style,
		Risk:            risk.Label,
		RiskStyle:       risk.Style,
		Recommendations: set.Recommendations.Recommend(c.Score),
		Trail:           c.Trail,
	}
}
