package main

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diewo77/nexus-crm/httpx"
	"github.com/diewo77/nexus-crm/internal/handlers"
	"github.com/diewo77/nexus-crm/internal/shell"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux *http.ServeMux
	crm *handlers.CRMHandler
	log zerolog.Logger
}

// NewApp creates a new application with all routes configured.
func NewApp(sh *shell.Shell, apiBase string, log zerolog.Logger) *App {
	app := &App{
		mux: http.NewServeMux(),
		crm: handlers.NewCRMHandler(sh, apiBase, log.With().Str("component", "handlers").Logger()),
		log: log,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := a.withRequestID(a.withLogging(a.withRecovery(a.mux)))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	h := a.crm

	a.mux.HandleFunc("GET /{$}", h.Dashboard)
	a.mux.HandleFunc("GET /healthz", h.Healthz)
	a.mux.HandleFunc("POST /refresh", h.Refresh)

	// Resource tables and their dialogs
	a.mux.HandleFunc("GET /r/{key}", h.List)
	a.mux.HandleFunc("GET /r/{key}/rows", h.Rows)
	a.mux.HandleFunc("GET /r/{key}/export.xlsx", h.Export)
	a.mux.HandleFunc("GET /r/{key}/new", h.New)
	a.mux.HandleFunc("POST /r/{key}", h.Create)
	a.mux.HandleFunc("POST /r/{key}/lines", h.Lines)
	a.mux.HandleFunc("GET /r/{key}/{id}", h.View)
	a.mux.HandleFunc("GET /r/{key}/{id}/edit", h.Edit)
	a.mux.HandleFunc("POST /r/{key}/{id}", h.Update)
	a.mux.HandleFunc("GET /r/{key}/{id}/delete", h.ConfirmDelete)
	a.mux.HandleFunc("POST /r/{key}/{id}/delete", h.Delete)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

type ctxKey struct{}

// withRequestID tags every request with an id, reusing X-Request-ID when the
// caller sent one.
func (a *App) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		l := a.log.With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging middleware.
func (a *App) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// withRecovery turns a panic into a 500 JSON error.
func (a *App) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				zerolog.Ctx(r.Context()).Error().Interface("panic", p).Str("path", r.URL.Path).Msg("panic recovered")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
