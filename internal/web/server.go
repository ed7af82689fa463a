// Package web serves the pipeline over HTTP: trigger a run, inspect the
// latest result and its views, and download the report and snapshot.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/salesetl/internal/config"
	"github.com/JonMunkholm/salesetl/internal/pipeline"
	mw "github.com/JonMunkholm/salesetl/internal/web/middleware"
)

// Server is the HTTP server for the ETL pipeline.
type Server struct {
	runner   *pipeline.Runner
	cfg      config.ServerConfig
	security config.SecurityConfig
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server around runner.
func NewServer(runner *pipeline.Runner, cfg *config.Config) *Server {
	s := &Server{
		runner:   runner,
		cfg:      cfg.Server,
		security: cfg.Security,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if len(s.security.TrustedProxies) > 0 {
		s.router.Use(mw.TrustedRealIP(s.security.TrustedProxies))
	} else {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.With(mw.APIKeyAuth(s.security)).Post("/runs", s.handleRun)
		r.Get("/runs/latest", s.handleLatestRun)
		r.Get("/views", s.handleListViews)
		r.Get("/views/{view}", s.handleView)
	})

	s.router.Get("/reports/latest.pdf", s.handleLatestReport)
	s.router.Get("/snapshots/latest.parquet", s.handleLatestSnapshot)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: s.cfg.ReadTimeout,
		IdleTimeout: s.cfg.IdleTimeout,
		// Runs are synchronous and may take minutes.
		WriteTimeout: 0,
	}

	slog.Info("server starting", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
