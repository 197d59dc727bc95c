// Package collector talks to the remote collector that records group answers.
// Responses are read with gjson so that extra or missing fields from older
// server versions never fail a whole exchange.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/session"
	"decisionsim/internal"
	"decisionsim/ports"

	"github.com/tidwall/gjson"
)

// Paths holds the endpoint names relative to the base URL
type Paths struct {
	SaveGroup     string
	SaveAnswer    string
	CheckAnswered string
	GroupScore    string
	ActiveEvent   string
	ListGroups    string
	SaveSession   string
}

// DefaultPaths mirrors the PHP endpoints of the deployed collector
func DefaultPaths() Paths {
	return Paths{
		SaveGroup:     "save_group.php",
		SaveAnswer:    "save_answer.php",
		CheckAnswered: "check_answered.php",
		GroupScore:    "get_group_score.php",
		ActiveEvent:   "get_active_event.php",
		ListGroups:    "list_groups.php",
		SaveSession:   "save_session.php",
	}
}

// Config configures the HTTP client
type Config struct {
	BaseURL string
	Timeout time.Duration
	Paths   Paths
}

// Client implements ports.Collector over HTTP
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *internal.Logger
}

// NewClient creates a collector client
func NewClient(config Config, logger *internal.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Paths == (Paths{}) {
		config.Paths = DefaultPaths()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

var _ ports.Collector = (*Client)(nil)

// RegisterGroup creates (or finds) a group and returns its id
func (c *Client) RegisterGroup(ctx context.Context, eventID, unitID int64, name string) (int64, error) {
	body, err := c.post(ctx, "save_group", c.config.Paths.SaveGroup, map[string]interface{}{
		"event_id":   eventID,
		"unit_id":    unitID,
		"group_name": name,
	})
	if err != nil {
		return 0, err
	}
	id := gjson.GetBytes(body, "group_id")
	if !id.Exists() || id.Int() <= 0 {
		return 0, &core.SyncError{Op: "save_group", Message: "Resposta sem group_id"}
	}
	return id.Int(), nil
}

// SubmitAnswer sends one scored answer. The delta carries every aspect of
// the set, zero when unchanged, and each item flattens its delta into
// delta_<aspect> fields.
func (c *Client) SubmitAnswer(ctx context.Context, sub ports.AnswerSubmission) error {
	_, err := c.post(ctx, "save_answer", c.config.Paths.SaveAnswer, answerPayload(sub))
	return err
}

func answerPayload(sub ports.AnswerSubmission) map[string]interface{} {
	delta := make(map[string]int, len(sub.Aspects))
	for _, a := range sub.Aspects {
		delta[string(a)] = sub.Delta[a]
	}

	items := make([]map[string]interface{}, 0, len(sub.Items))
	for _, item := range sub.Items {
		row := map[string]interface{}{
			"item_key":   item.Key,
			"item_label": item.Label,
			"value_text": item.ValueText,
			"value_num":  item.ValueNum,
			"is_correct": int(item.Correct),
		}
		for _, a := range sub.Aspects {
			row["delta_"+string(a)] = item.Delta[a]
		}
		items = append(items, row)
	}

	return map[string]interface{}{
		"event_id":    sub.Group.EventID,
		"unit_id":     sub.Group.UnitID,
		"group_id":    sub.Group.GroupID,
		"group_name":  sub.Group.GroupName,
		"question_id": sub.QuestionID,
		"delta":       delta,
		"items":       items,
	}
}

// CheckAnswered asks whether the group already answered a question
func (c *Client) CheckAnswered(ctx context.Context, eventID, groupID int64, questionID int) (bool, error) {
	body, err := c.get(ctx, "check_answered", c.config.Paths.CheckAnswered, url.Values{
		"event_id":    {strconv.FormatInt(eventID, 10)},
		"group_id":    {strconv.FormatInt(groupID, 10)},
		"question_id": {strconv.Itoa(questionID)},
	})
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(body, "answered").Bool(), nil
}

// GroupTotals returns the accumulated deltas of a group. Numeric strings
// are accepted since PHP often encodes SUM() results as strings.
func (c *Client) GroupTotals(ctx context.Context, eventID, unitID, groupID int64) (aspect.Effect, error) {
	body, err := c.get(ctx, "get_group_score", c.config.Paths.GroupScore, url.Values{
		"event_id": {strconv.FormatInt(eventID, 10)},
		"unit_id":  {strconv.FormatInt(unitID, 10)},
		"group_id": {strconv.FormatInt(groupID, 10)},
	})
	if err != nil {
		return nil, err
	}

	totals := gjson.GetBytes(body, "totals")
	if !totals.IsObject() {
		return nil, &core.SyncError{Op: "get_group_score", Message: "Erro ao buscar score"}
	}
	effect := aspect.Effect{}
	totals.ForEach(func(key, value gjson.Result) bool {
		effect[aspect.Aspect(key.String())] = int(value.Int())
		return true
	})
	return effect, nil
}

// ActiveEvent returns the active event of a unit
func (c *Client) ActiveEvent(ctx context.Context, unitID int64) (int64, error) {
	body, err := c.get(ctx, "get_active_event", c.config.Paths.ActiveEvent, url.Values{
		"unit_id": {strconv.FormatInt(unitID, 10)},
	})
	if err != nil {
		return 0, err
	}
	id := gjson.GetBytes(body, "event_id")
	if !id.Exists() || id.Int() <= 0 {
		return 0, &core.SyncError{Op: "get_active_event", Message: "Nenhum evento ativo"}
	}
	return id.Int(), nil
}

// ListGroups returns the groups registered for an event and unit
func (c *Client) ListGroups(ctx context.Context, eventID, unitID int64) ([]ports.Group, error) {
	body, err := c.get(ctx, "list_groups", c.config.Paths.ListGroups, url.Values{
		"event_id": {strconv.FormatInt(eventID, 10)},
		"unit_id":  {strconv.FormatInt(unitID, 10)},
	})
	if err != nil {
		return nil, err
	}

	groups := []ports.Group{}
	gjson.GetBytes(body, "groups").ForEach(func(_, g gjson.Result) bool {
		groups = append(groups, ports.Group{ID: g.Get("id").Int(), Name: g.Get("name").String()})
		return true
	})
	return groups, nil
}

// SubmitSummary sends the completed session summary
func (c *Client) SubmitSummary(ctx context.Context, g session.GroupContext, summary session.Summary) error {
	_, err := c.post(ctx, "save_session", c.config.Paths.SaveSession, map[string]interface{}{
		"event_id":   g.EventID,
		"unit_id":    g.UnitID,
		"group_id":   g.GroupID,
		"group_name": g.GroupName,
		"summary":    summary,
	})
	return err
}

func (c *Client) post(ctx context.Context, op, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &core.SyncError{Op: op, Message: core.ConnectionMessage, Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(data))
	if err != nil {
		return nil, &core.SyncError{Op: op, Message: core.ConnectionMessage, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req)
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &core.SyncError{Op: op, Message: core.ConnectionMessage, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	return c.do(op, req)
}

// do executes the request and checks the {ok, message} envelope
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("collector %s failed: %v", op, err)
		return nil, &core.SyncError{Op: op, Message: core.ConnectionMessage, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &core.SyncError{Op: op, Message: core.ConnectionMessage, Cause: err}
	}
	c.logger.Debug("collector %s -> %d in %s", op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &core.SyncError{
			Op:      op,
			Message: core.ConnectionMessage,
			Cause:   fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	if !gjson.ValidBytes(body) {
		return nil, &core.SyncError{Op: op, Message: core.ConnectionMessage, Cause: fmt.Errorf("malformed JSON response")}
	}
	if !gjson.GetBytes(body, "ok").Bool() {
		message := gjson.GetBytes(body, "message").String()
		if message == "" {
			message = core.ConnectionMessage
		}
		return nil, &core.SyncError{Op: op, Message: message}
	}
	return body, nil
}

func (c *Client) endpoint(path string) string {
	return c.config.BaseURL + "/" + strings.TrimLeft(path, "/")
}
