// Package server provides the HTTP server and routing for Artha.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/artha-io/artha/internal/config"
	"github.com/artha-io/artha/internal/database"
	accounthandlers "github.com/artha-io/artha/internal/modules/accounts/handlers"
	alerthandlers "github.com/artha-io/artha/internal/modules/alerts/handlers"
	assethandlers "github.com/artha-io/artha/internal/modules/assets/handlers"
	backuphandlers "github.com/artha-io/artha/internal/modules/backup/handlers"
	expensehandlers "github.com/artha-io/artha/internal/modules/expenses/handlers"
	portfoliohandlers "github.com/artha-io/artha/internal/modules/portfolio/handlers"
	snapshothandlers "github.com/artha-io/artha/internal/modules/snapshots/handlers"
	userhandlers "github.com/artha-io/artha/internal/modules/users/handlers"
	"github.com/artha-io/artha/internal/scheduler"
)

// Handlers bundles the per-module HTTP handlers mounted under /api.
type Handlers struct {
	Users      *userhandlers.Handler
	Portfolios *portfoliohandlers.Handler
	Accounts   *accounthandlers.Handler
	Assets     *assethandlers.Handler
	Expenses   *expensehandlers.Handler
	Alerts     *alerthandlers.Handler
	Snapshots  *snapshothandlers.Handler
	Backup     *backuphandlers.Handler
}

// Config holds server configuration
type Config struct {
	Port      int
	Log       zerolog.Logger
	DB        *database.DB
	Config    *config.Config
	DevMode   bool
	Handlers  Handlers
	Scheduler *scheduler.Scheduler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	db             *database.DB
	cfg            *config.Config
	handlers       Handlers
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		db:             cfg.DB,
		cfg:            cfg.Config,
		handlers:       cfg.Handlers,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.DB, cfg.Scheduler),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetJobs registers job references for manual triggering
// Called after jobs are registered in main.go
func (s *Server) SetJobs(snapshots, cloudBackup scheduler.Job) {
	s.systemHandlers.SetJobs(snapshots, cloudBackup)
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// System
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/database", s.systemHandlers.HandleDatabaseStats)
			r.Post("/jobs/snapshots", s.systemHandlers.HandleTriggerSnapshots)
			r.Post("/jobs/backup", s.systemHandlers.HandleTriggerBackup)
		})

		s.handlers.Users.RegisterRoutes(r)
		s.handlers.Portfolios.RegisterRoutes(r)
		s.handlers.Accounts.RegisterRoutes(r)
		s.handlers.Assets.RegisterRoutes(r)
		s.handlers.Expenses.RegisterRoutes(r)
		s.handlers.Alerts.RegisterRoutes(r)
		s.handlers.Snapshots.RegisterRoutes(r)
		s.handlers.Backup.RegisterRoutes(r)
	})
}

// handleHealth returns basic liveness plus a database ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := s.db.QuickCheck(ctx); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":%q,"time":%q}`, status, time.Now().Format(time.RFC3339))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
