package ui

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"decisionsim/app"
	"decisionsim/internal"
	"decisionsim/internal/errors"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App exposes the participant session over HTTP
type App struct {
	router    *chi.Mux
	sessions  *app.SessionService
	groups    *app.GroupService
	reports   *app.ReportService
	history   *app.HistoryService
	templates *template.Template
	logger    *internal.Logger
}

// Services bundles the application services the UI calls
type Services struct {
	Sessions *app.SessionService
	Groups   *app.GroupService
	Reports  *app.ReportService
	History  *app.HistoryService
}

// NewApp creates the UI application
func NewApp(services Services, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	a := &App{
		router:    chi.NewRouter(),
		sessions:  services.Sessions,
		groups:    services.Groups,
		reports:   services.Reports,
		history:   services.History,
		templates: templates,
		logger:    logger.Named("ui"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// Handler returns the root HTTP handler
func (a *App) Handler() http.Handler { return a.router }

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
	a.router.Use(a.requestLogger)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleResultPage)

	a.router.Route("/api", func(r chi.Router) {
		r.Get("/set", a.handleSet)
		r.Get("/stages/{id}", a.handleStage)

		r.Get("/session", a.handleSession)
		r.Get("/session/current", a.handleCurrent)
		r.Post("/session/answer", a.handleSubmit)
		r.Post("/session/restart", a.handleRestart)
		r.Post("/session/skip-answered", a.handleSkipAnswered)

		r.Get("/result", a.handleResult)
		r.Get("/result/export", a.handleExport)

		r.Get("/history", a.handleHistory)
		r.Get("/history/stats", a.handleHistoryStats)
		r.Delete("/history", a.handleClearHistory)

		r.Get("/group", a.handleGroup)
		r.Delete("/group", a.handleClearGroup)
		r.Post("/group/unit", a.handleSelectUnit)
		r.Post("/group/register", a.handleRegisterGroup)
		r.Get("/group/list", a.handleListGroups)
		r.Get("/group/score", a.handleGroupScore)
	})
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Debug("%s %s -> %d (%s) [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

// Template helpers
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the participant message for err. Details stay in the log.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		a.logger.Debug("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, map[string]interface{}{
		"ok":      false,
		"code":    errors.GetCode(err),
		"message": errors.UserMessage(err),
	})
}
