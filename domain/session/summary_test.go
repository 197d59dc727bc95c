package session

import (
	"testing"
	"time"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
	"decisionsim/domain/verdict"
)

func TestSummarizeEndToEnd(t *testing.T) {
	set, err := stage.NewSet(stage.Definition{
		Name: "melhoria",
		Aspects: []aspect.Definition{
			{Key: "produtividade"}, {Key: "confianca"}, {Key: "visao"}, {Key: "sustentabilidade"},
		},
		Initial: map[aspect.Aspect]int{"produtividade": 70, "confianca": 70, "visao": 70, "sustentabilidade": 70},
		Recommendations: verdict.Recommender{Rules: []verdict.Rule{
			{Aspect: "confianca", Below: 75, Text: "feedback"},
			{Aspect: "visao", Below: 80, Text: "plano"},
		}},
		Stages: []stage.Stage{{
			ID: 1, Title: "Única", Kind: stage.KindChoice,
			Choice: &stage.ChoiceConfig{Options: []stage.Choice{{ID: "a", Label: "A"}}},
		}},
	}, "")
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}

	now := core.NewTimestamp(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	s := New(set, now)
	st, _ := set.At(0)
	effect := aspect.Effect{"produtividade": 6, "confianca": 4, "visao": 8, "sustentabilidade": 3}
	if err := s.Record(st, answer.Outcome{Effect: effect, Description: "A"}, set.Len(), now); err != nil {
		t.Fatalf("Record: %v", err)
	}

	sum := Summarize(set, s, now)

	want := aspect.Score{"produtividade": 76, "confianca": 74, "visao": 78, "sustentabilidade": 73}
	for k, v := range want {
		if sum.Score[k] != v {
			t.Errorf("score[%s] = %d, want %d", k, sum.Score[k], v)
		}
	}
	if sum.Average != 75.25 {
		t.Errorf("average = %v, want 75.25", sum.Average)
	}
	if sum.Rounded != 75 || sum.Band != "Gestor Consistente" || sum.Style != "text-success" {
		t.Errorf("verdict = %d %q %q", sum.Rounded, sum.Band, sum.Style)
	}
	if sum.Risk != "Médio" {
		t.Errorf("risk = %q, want Médio", sum.Risk)
	}
	wantRecs := []string{"feedback", "plano", verdict.DefaultClosing}
	if len(sum.Recommendations) != len(wantRecs) {
		t.Fatalf("recommendations = %v", sum.Recommendations)
	}
	for i := range wantRecs {
		if sum.Recommendations[i] != wantRecs[i] {
			t.Errorf("recommendations[%d] = %q, want %q", i, sum.Recommendations[i], wantRecs[i])
		}
	}
	if len(sum.Trail) != 1 || sum.SessionID != s.ID {
		t.Errorf("summary does not carry the session trail")
	}

	sum.Trail[0].Effect["visao"] = 0
	if s.Trail[0].Effect["visao"] != 8 {
		t.Errorf("summary shares trail maps with the session")
	}
}
