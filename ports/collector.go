package ports

import (
	"context"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/session"
)

// Group is a remote group registered for an event and unit
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AnswerSubmission is one scored answer sent to the collector
type AnswerSubmission struct {
	Group      session.GroupContext
	QuestionID int
	Aspects    []aspect.Aspect
	Delta      aspect.Effect
	Items      []answer.ItemResult
}

// Collector is the remote endpoint that receives group answers. Every
// failure, including an explicit ok:false, is returned as an error.
type Collector interface {
	RegisterGroup(ctx context.Context, eventID, unitID int64, name string) (int64, error)
	SubmitAnswer(ctx context.Context, sub AnswerSubmission) error
	CheckAnswered(ctx context.Context, eventID, groupID int64, questionID int) (bool, error)
	GroupTotals(ctx context.Context, eventID, unitID, groupID int64) (aspect.Effect, error)
	ActiveEvent(ctx context.Context, unitID int64) (int64, error)
	ListGroups(ctx context.Context, eventID, unitID int64) ([]Group, error)
	SubmitSummary(ctx context.Context, g session.GroupContext, summary session.Summary) error
}
