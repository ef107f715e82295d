// Package ui exposes the analysis operations over HTTP as a JSON API.
package ui

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"evtlab/app"
	"evtlab/ports"
)

// App represents the HTTP application
type App struct {
	router  *chi.Mux
	service *app.AnalysisService
	reader  ports.RunLedgerReader
	logger  zerolog.Logger
}

// Config holds HTTP application configuration
type Config struct {
	Port string
}

// NewApp wires the analysis service and run ledger into an HTTP router.
// reader may be nil when no ledger is configured; the run endpoints then
// return 404.
func NewApp(service *app.AnalysisService, reader ports.RunLedgerReader, logger zerolog.Logger) *App {
	a := &App{
		router:  chi.NewRouter(),
		service: service,
		reader:  reader,
		logger:  logger,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
	a.router.Use(a.requestLogger)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	// Distribution and risk measures
	a.router.Post("/api/risk/crash", a.handleCrashRisk)
	a.router.Post("/api/risk/var", a.handleValueAtRisk)
	a.router.Post("/api/risk/cvar", a.handleConditionalValueAtRisk)

	// Covariate link
	a.router.Post("/api/link", a.handleLink)

	// Threshold diagnostics
	a.router.Post("/api/threshold/mrl", a.handleMeanResidualLife)
	a.router.Post("/api/threshold/stability", a.handleParameterStability)

	// Hierarchical pooling and full runs
	a.router.Post("/api/pool", a.handlePool)
	a.router.Post("/api/analysis", a.handleAnalysis)
	a.router.Get("/api/runs", a.handleListRuns)
	a.router.Get("/api/runs/{id}", a.handleGetRun)
	a.router.Get("/api/runs/{id}/report", a.handleRunReport)
	a.router.Get("/api/runs/{id}/report.xlsx", a.handleRunWorkbook)

	// Backtests
	a.router.Post("/api/backtest/kupiec", a.handleKupiec)
	a.router.Post("/api/backtest/christoffersen", a.handleChristoffersen)
	a.router.Post("/api/backtest/dq", a.handleDynamicQuantile)

	a.router.Get("/health", a.handleHealth)
}

// Router exposes the chi mux for tests and embedding.
func (a *App) Router() http.Handler {
	return a.router
}

// Run starts the HTTP server
func (a *App) Run(config Config) error {
	addr := ":" + config.Port
	a.logger.Info().Str("addr", addr).Msg("starting HTTP server")
	return http.ListenAndServe(addr, a.router)
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
