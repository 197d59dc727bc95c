package ui

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"decisionsim/app"
	"decisionsim/domain/answer"
	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
	"decisionsim/internal/errors"
)

type setView struct {
	Name    string              `json:"name"`
	Title   string              `json:"title"`
	Aspects []aspect.Definition `json:"aspects"`
	Badges  []stage.Badge       `json:"badges"`
	Stages  int                 `json:"stages"`
	Units   map[string]int      `json:"units"`
	Offline bool                `json:"offline"`
}

func (a *App) handleSet(w http.ResponseWriter, r *http.Request) {
	set := a.sessions.Set()
	writeJSON(w, http.StatusOK, setView{
		Name:    set.Name,
		Title:   set.Title,
		Aspects: set.Aspects.Definitions(),
		Badges:  set.Badges,
		Stages:  set.Len(),
		Units:   set.Units(),
		Offline: a.sessions.Offline(),
	})
}

func (a *App) handleStage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, errors.InvalidInput("stage id must be a number"))
		return
	}
	st, err := a.sessions.StageByID(id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *App) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := a.sessions.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": sess,
		"state":   sess.State(a.sessions.Set().Len()),
	})
}

func (a *App) handleCurrent(w http.ResponseWriter, r *http.Request) {
	st, state, err := a.sessions.Current(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stage": st, "state": state})
}

func (a *App) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var resp answer.Response
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		a.writeError(w, r, core.NewInvalidAnswerError(0, "malformed body"))
		return
	}
	result, err := a.sessions.Submit(r.Context(), resp)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) handleSkipAnswered(w http.ResponseWriter, r *http.Request) {
	result, err := a.sessions.SkipAnswered(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, err := a.sessions.Restart(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (a *App) handleResult(w http.ResponseWriter, r *http.Request) {
	summary, err := a.sessions.Result(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = app.FormatJSON
	}
	summary, err := a.sessions.Result(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	history, err := a.history.List(r.Context())
	if err != nil {
		a.logger.Warn("history unavailable for export: %v", err)
	}

	switch format {
	case app.FormatJSON, app.FormatCSV, app.FormatXLSX, app.FormatMarkdown, app.FormatHTML:
	default:
		a.writeError(w, r, errors.InvalidInput(fmt.Sprintf("unknown format %q", format)))
		return
	}
	w.Header().Set("Content-Type", app.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="resultado-%s.%s"`, summary.SessionID, format))
	if err := a.reports.Write(w, format, summary, history); err != nil {
		a.logger.Error("export %s failed: %v", format, err)
	}
}

func (a *App) handleResultPage(w http.ResponseWriter, r *http.Request) {
	summary, err := a.sessions.Result(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	set := a.sessions.Set()
	a.renderTemplate(w, "result.html", map[string]interface{}{
		"Title":   set.Title,
		"Badges":  set.Badges,
		"Summary": summary,
		"Report":  template.HTML(a.reports.HTML(summary)),
	})
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	list, err := a.history.List(r.Context())
	if err != nil {
		a.writeError(w, r, errors.StorageError("failed to read history", err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.history.Stats(r.Context())
	if err != nil {
		a.writeError(w, r, errors.StorageError("failed to read history", err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *App) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := a.history.Clear(r.Context()); err != nil {
		a.writeError(w, r, errors.StorageError("failed to clear history", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *App) handleGroup(w http.ResponseWriter, r *http.Request) {
	g, err := a.groups.Current(r.Context())
	if err != nil {
		a.writeError(w, r, errors.StorageError("failed to read group", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"group": g, "missing": g.Missing()})
}

func (a *App) handleClearGroup(w http.ResponseWriter, r *http.Request) {
	if err := a.groups.Clear(r.Context()); err != nil {
		a.writeError(w, r, errors.StorageError("failed to clear group", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *App) handleSelectUnit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, r, errors.InvalidInput("malformed body"))
		return
	}
	g, err := a.groups.SelectUnit(r.Context(), body.Code)
	if err != nil {
		a.writeGroupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *App) handleRegisterGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, r, errors.InvalidInput("malformed body"))
		return
	}
	g, err := a.groups.Register(r.Context(), body.Name)
	if err != nil {
		a.writeGroupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *App) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := a.groups.List(r.Context())
	if err != nil {
		a.writeGroupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (a *App) handleGroupScore(w http.ResponseWriter, r *http.Request) {
	score, err := a.groups.RemoteScore(r.Context())
	resp := map[string]interface{}{"ok": err == nil, "score": score}
	if err != nil {
		resp["message"] = core.SyncMessage(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeGroupError surfaces the collector's own message for sync failures
func (a *App) writeGroupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.GetCode(err) == errors.CodeExternalService {
		a.logger.Warn("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"ok":      false,
			"code":    errors.CodeExternalService,
			"message": core.SyncMessage(err),
		})
		return
	}
	a.writeError(w, r, err)
}
