// Package api serves the collector wire contract: the endpoints participants
// post answers to and read group totals from.
package api

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"decisionsim/domain/core"
	"decisionsim/internal"
	"decisionsim/internal/errors"
	"decisionsim/ports"
)

// Route paths, kept identical to the endpoints the front end already calls
const (
	PathSaveGroup     = "/save_group.php"
	PathSaveAnswer    = "/save_answer.php"
	PathCheckAnswered = "/check_answered.php"
	PathGroupScore    = "/get_group_score.php"
	PathActiveEvent   = "/get_active_event.php"
	PathListGroups    = "/list_groups.php"
	PathSaveSession   = "/save_session.php"
	PathCreateEvent   = "/admin/events"
)

const (
	messageBadRequest    = "Requisição inválida"
	messageNoEvent       = "Nenhum evento ativo para esta unidade"
	messageAlreadyStored = "Esta questão já foi respondida por este grupo"
	messageServerError   = "Erro interno do servidor"
)

// CollectorHandler handles collector requests over a CollectorRepository
type CollectorHandler struct {
	repo   ports.CollectorRepository
	logger *internal.Logger
	now    func() time.Time
}

// NewCollectorHandler creates a collector handler
func NewCollectorHandler(repo ports.CollectorRepository, logger *internal.Logger) *CollectorHandler {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &CollectorHandler{repo: repo, logger: logger.Named("collector"), now: time.Now}
}

// Register mounts every collector route on r
func (h *CollectorHandler) Register(r gin.IRouter) {
	r.POST(PathSaveGroup, h.SaveGroup)
	r.POST(PathSaveAnswer, h.SaveAnswer)
	r.GET(PathCheckAnswered, h.CheckAnswered)
	r.GET(PathGroupScore, h.GroupScore)
	r.GET(PathActiveEvent, h.ActiveEvent)
	r.GET(PathListGroups, h.ListGroups)
	r.POST(PathSaveSession, h.SaveSession)
	r.POST(PathCreateEvent, h.CreateEvent)
}

// NewRouter builds a gin engine with recovery, request logging and the
// collector routes
func NewRouter(h *CollectorHandler, logger *internal.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	h.Register(r)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// SaveGroup creates a group for an event and unit, or returns the existing one
func (h *CollectorHandler) SaveGroup(c *gin.Context) {
	body, ok := h.jsonBody(c)
	if !ok {
		return
	}
	eventID := body.Get("event_id").Int()
	unitID := body.Get("unit_id").Int()
	name := strings.TrimSpace(body.Get("group_name").String())
	if eventID <= 0 || unitID <= 0 || name == "" {
		h.fail(c, http.StatusBadRequest, "event_id, unit_id e group_name são obrigatórios")
		return
	}

	id, err := h.repo.CreateGroup(c.Request.Context(), eventID, unitID, name)
	if err != nil {
		h.internalError(c, "save_group", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "group_id": id})
}

// SaveAnswer stores one answer with its per-item breakdown. Items carry
// their deltas as flat delta_<aspect> fields.
func (h *CollectorHandler) SaveAnswer(c *gin.Context) {
	body, ok := h.jsonBody(c)
	if !ok {
		return
	}
	answer := ports.StoredAnswer{
		EventID:    body.Get("event_id").Int(),
		UnitID:     body.Get("unit_id").Int(),
		GroupID:    body.Get("group_id").Int(),
		GroupName:  body.Get("group_name").String(),
		QuestionID: int(body.Get("question_id").Int()),
		Delta:      intMap(body.Get("delta")),
		ReceivedAt: h.now().UTC(),
	}
	if answer.EventID <= 0 || answer.GroupID <= 0 || answer.QuestionID <= 0 {
		h.fail(c, http.StatusBadRequest, "event_id, group_id e question_id são obrigatórios")
		return
	}
	body.Get("items").ForEach(func(_, item gjson.Result) bool {
		answer.Items = append(answer.Items, parseItem(item))
		return true
	})

	err := h.repo.SaveAnswer(c.Request.Context(), answer)
	switch {
	case stderrors.Is(err, core.ErrAlreadyAnswered):
		h.fail(c, http.StatusOK, messageAlreadyStored)
		return
	case err != nil:
		h.internalError(c, "save_answer", err)
		return
	}
	h.logger.Debug("answer stored: event %d group %d question %d", answer.EventID, answer.GroupID, answer.QuestionID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Resposta registrada"})
}

func parseItem(item gjson.Result) ports.StoredItem {
	stored := ports.StoredItem{
		Key:       item.Get("item_key").String(),
		Label:     item.Get("item_label").String(),
		IsCorrect: int(item.Get("is_correct").Int()),
		Delta:     map[string]int{},
	}
	if v := item.Get("value_text"); v.Exists() && v.Type != gjson.Null {
		s := v.String()
		stored.ValueText = &s
	}
	if v := item.Get("value_num"); v.Exists() && v.Type != gjson.Null {
		n := v.Float()
		stored.ValueNum = &n
	}
	item.ForEach(func(key, value gjson.Result) bool {
		if a, ok := strings.CutPrefix(key.String(), "delta_"); ok && a != "" {
			stored.Delta[a] = int(value.Int())
		}
		return true
	})
	return stored
}

// CheckAnswered reports whether a group already answered a question
func (h *CollectorHandler) CheckAnswered(c *gin.Context) {
	eventID, groupID, questionID, ok := h.queryInts(c, "event_id", "group_id", "question_id")
	if !ok {
		return
	}
	answered, err := h.repo.HasAnswered(c.Request.Context(), eventID, groupID, int(questionID))
	if err != nil {
		h.internalError(c, "check_answered", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "answered": answered})
}

// GroupScore returns the summed deltas of a group
func (h *CollectorHandler) GroupScore(c *gin.Context) {
	eventID, unitID, groupID, ok := h.queryInts(c, "event_id", "unit_id", "group_id")
	if !ok {
		return
	}
	totals, err := h.repo.GroupTotals(c.Request.Context(), eventID, unitID, groupID)
	if err != nil {
		h.internalError(c, "get_group_score", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "totals": totals})
}

// ActiveEvent returns the active event of a unit
func (h *CollectorHandler) ActiveEvent(c *gin.Context) {
	unitID, err := strconv.ParseInt(c.Query("unit_id"), 10, 64)
	if err != nil || unitID <= 0 {
		h.fail(c, http.StatusBadRequest, messageBadRequest)
		return
	}
	eventID, err := h.repo.ActiveEvent(c.Request.Context(), unitID)
	switch {
	case core.IsNotFoundError(err):
		h.fail(c, http.StatusOK, messageNoEvent)
		return
	case err != nil:
		h.internalError(c, "get_active_event", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "event_id": eventID})
}

// ListGroups lists the groups of an event and unit
func (h *CollectorHandler) ListGroups(c *gin.Context) {
	eventID, err1 := strconv.ParseInt(c.Query("event_id"), 10, 64)
	unitID, err2 := strconv.ParseInt(c.Query("unit_id"), 10, 64)
	if err1 != nil || err2 != nil {
		h.fail(c, http.StatusBadRequest, messageBadRequest)
		return
	}
	groups, err := h.repo.ListGroups(c.Request.Context(), eventID, unitID)
	if err != nil {
		h.internalError(c, "list_groups", err)
		return
	}
	if groups == nil {
		groups = []ports.Group{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "groups": groups})
}

// SaveSession stores a completed session summary verbatim
func (h *CollectorHandler) SaveSession(c *gin.Context) {
	body, ok := h.jsonBody(c)
	if !ok {
		return
	}
	summary := body.Get("summary")
	if !summary.IsObject() {
		h.fail(c, http.StatusBadRequest, "summary é obrigatório")
		return
	}
	stored := ports.StoredSession{
		EventID:    body.Get("event_id").Int(),
		UnitID:     body.Get("unit_id").Int(),
		GroupID:    body.Get("group_id").Int(),
		SessionID:  summary.Get("session_id").String(),
		SetName:    summary.Get("set_name").String(),
		Payload:    []byte(summary.Raw),
		ReceivedAt: h.now().UTC(),
	}
	if err := h.repo.SaveSession(c.Request.Context(), stored); err != nil {
		h.internalError(c, "save_session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// CreateEvent opens an event for a unit
func (h *CollectorHandler) CreateEvent(c *gin.Context) {
	body, ok := h.jsonBody(c)
	if !ok {
		return
	}
	unitID := body.Get("unit_id").Int()
	name := strings.TrimSpace(body.Get("name").String())
	active := true
	if v := body.Get("active"); v.Exists() {
		active = v.Bool()
	}
	if unitID <= 0 || name == "" {
		h.fail(c, http.StatusBadRequest, "unit_id e name são obrigatórios")
		return
	}
	id, err := h.repo.CreateEvent(c.Request.Context(), unitID, name, active)
	if err != nil {
		h.internalError(c, "create_event", err)
		return
	}
	h.logger.Info("event %q created for unit %d with id %d", name, unitID, id)
	c.JSON(http.StatusOK, gin.H{"ok": true, "event_id": id})
}

func (h *CollectorHandler) jsonBody(c *gin.Context) (gjson.Result, bool) {
	raw, err := c.GetRawData()
	if err != nil || !gjson.ValidBytes(raw) {
		h.fail(c, http.StatusBadRequest, messageBadRequest)
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(raw), true
}

func (h *CollectorHandler) queryInts(c *gin.Context, a, b, d string) (int64, int64, int64, bool) {
	var out [3]int64
	for i, name := range []string{a, b, d} {
		v, err := strconv.ParseInt(c.Query(name), 10, 64)
		if err != nil || v <= 0 {
			h.fail(c, http.StatusBadRequest, messageBadRequest)
			return 0, 0, 0, false
		}
		out[i] = v
	}
	return out[0], out[1], out[2], true
}

func (h *CollectorHandler) fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "message": message})
}

func (h *CollectorHandler) internalError(c *gin.Context, op string, err error) {
	h.logger.Error("%s failed: %v", op, errors.Wrap(err, op))
	h.fail(c, http.StatusInternalServerError, messageServerError)
}

// intMap reads a JSON object of numbers (or numeric strings) into a map
func intMap(obj gjson.Result) map[string]int {
	out := map[string]int{}
	obj.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = int(value.Int())
		return true
	})
	return out
}
