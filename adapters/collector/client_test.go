package collector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/session"
	"decisionsim/internal"
	"decisionsim/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/api/", Timeout: 2 * time.Second}, internal.NewNopLogger())
}

func TestSubmitAnswerPayload(t *testing.T) {
	var body []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/save_answer.php", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"ok":true,"message":"Resposta salva"}`))
	})

	err := client.SubmitAnswer(context.Background(), ports.AnswerSubmission{
		Group:      session.GroupContext{EventID: 5, UnitID: 2, GroupID: 9, GroupName: "Equipe Azul"},
		QuestionID: 3,
		Aspects:    []aspect.Aspect{"pessoas", "atitudes", "negocio"},
		Delta:      aspect.Effect{"pessoas": 4, "negocio": -1},
		Items: []answer.ItemResult{{
			Key:       "w1",
			Label:     "Segurança",
			ValueText: answer.Text("Segurança"),
			Correct:   answer.Correct,
			Delta:     aspect.Effect{"pessoas": 2},
		}},
	})
	require.NoError(t, err)

	payload := gjson.ParseBytes(body)
	assert.Equal(t, int64(5), payload.Get("event_id").Int())
	assert.Equal(t, int64(9), payload.Get("group_id").Int())
	assert.Equal(t, "Equipe Azul", payload.Get("group_name").String())
	assert.Equal(t, int64(3), payload.Get("question_id").Int())
	assert.Equal(t, int64(4), payload.Get("delta.pessoas").Int())
	assert.True(t, payload.Get("delta.atitudes").Exists(), "unchanged aspects are sent as zero")
	assert.Equal(t, int64(-1), payload.Get("delta.negocio").Int())

	item := payload.Get("items.0")
	assert.Equal(t, "w1", item.Get("item_key").String())
	assert.Equal(t, int64(1), item.Get("is_correct").Int())
	assert.Equal(t, int64(2), item.Get("delta_pessoas").Int())
	assert.Equal(t, int64(0), item.Get("delta_negocio").Int())
	assert.Equal(t, gjson.Null, item.Get("value_num").Type)
}

func TestRegisterGroup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/save_group.php", r.URL.Path)
		w.Write([]byte(`{"ok":true,"group_id":"17"}`))
	})

	id, err := client.RegisterGroup(context.Background(), 5, 2, "Equipe Azul")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)
}

func TestQueriesAndParsing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/api/check_answered.php":
			assert.Equal(t, "4", q.Get("question_id"))
			w.Write([]byte(`{"ok":true,"answered":true}`))
		case "/api/get_group_score.php":
			assert.Equal(t, "2", q.Get("unit_id"))
			w.Write([]byte(`{"ok":true,"totals":{"pessoas":"12","atitudes":-5,"negocio":0}}`))
		case "/api/get_active_event.php":
			w.Write([]byte(`{"ok":true,"event_id":31}`))
		case "/api/list_groups.php":
			w.Write([]byte(`{"ok":true,"groups":[{"id":1,"name":"Azul"},{"id":"2","name":"Verde"}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	answered, err := client.CheckAnswered(ctx, 5, 9, 4)
	require.NoError(t, err)
	assert.True(t, answered)

	totals, err := client.GroupTotals(ctx, 5, 2, 9)
	require.NoError(t, err)
	assert.Equal(t, aspect.Effect{"pessoas": 12, "atitudes": -5, "negocio": 0}, totals)

	event, err := client.ActiveEvent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(31), event)

	groups, err := client.ListGroups(ctx, 31, 2)
	require.NoError(t, err)
	assert.Equal(t, []ports.Group{{ID: 1, Name: "Azul"}, {ID: 2, Name: "Verde"}}, groups)
}

func TestFailuresBecomeSyncErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"malformed json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>fatal error</html>`))
		},
		"ok false": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":false,"message":"Grupo inválido"}`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, handler)
			_, err := client.CheckAnswered(context.Background(), 1, 1, 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrSyncFailed))
			if name == "ok false" {
				assert.Equal(t, "Grupo inválido", core.SyncMessage(err))
			} else {
				assert.Equal(t, core.ConnectionMessage, core.SyncMessage(err))
			}
		})
	}
}

func TestTimeoutIsSyncFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	client := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, internal.NewNopLogger())

	_, err := client.ActiveEvent(context.Background(), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSyncFailed)
	assert.Equal(t, core.ConnectionMessage, core.SyncMessage(err))
}

func TestUnreachableCollector(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, internal.NewNopLogger())
	err := client.SubmitSummary(context.Background(), session.GroupContext{}, session.Summary{})
	assert.ErrorIs(t, err, core.ErrSyncFailed)
}
