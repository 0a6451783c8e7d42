// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every dependency — database, token service,
// OAuth provider, GitHub client, Gemini client, services, handlers — is
// constructed and wired here, in one place. Nothing reaches for ambient
// state; components receive their collaborators at construction time.
//
// DEPENDENCY CHAIN:
//
//	sqlite.DB ─┬→ AuthService ──→ AuthHandler
//	           └→ AnalysisService → AnalysisHandler
//	auth.TokenService → RequireAuth middleware (and AuthService)
//	github.CommitService, gemini.Service → AnalysisService
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/suzuki-tomok/github-analyzer/internal/auth"
	"github.com/suzuki-tomok/github-analyzer/internal/gemini"
	"github.com/suzuki-tomok/github-analyzer/internal/github"
	"github.com/suzuki-tomok/github-analyzer/internal/handler"
	"github.com/suzuki-tomok/github-analyzer/internal/middleware"
	sqliteRepo "github.com/suzuki-tomok/github-analyzer/internal/repository/sqlite"
	"github.com/suzuki-tomok/github-analyzer/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port               int
	DBPath             string
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GeminiAPIKey       string
	GeminiModel        string
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, builds the full dependency
// graph, and wires the routes.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the services, and registers
// every route.
//
// ROUTE STRUCTURE:
//
//	GET    /                     → service identifier
//	POST   /auth/github/callback → OAuth code exchange, returns JWT
//	GET    /auth/me              → caller's profile            [bearer]
//	POST   /analyses             → run an analysis             [bearer]
//	GET    /analyses             → list, newest first          [bearer]
//	GET    /analyses/{id}        → full analysis               [bearer]
//	PATCH  /analyses/{id}        → update memo                 [bearer]
//	DELETE /analyses/{id}        → delete                      [bearer]
func (s *Server) setupRoutes(ctx context.Context) error {
	// Global middleware — runs on every request, in order.
	s.router.Use(chimiddleware.RequestID) // assigns an id for tracing
	s.router.Use(chimiddleware.RealIP)    // extracts real IP from proxy headers
	s.router.Use(chimiddleware.Recoverer) // panics become 500s, not crashes
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	githubProvider := auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret)
	commitService := github.NewCommitService(s.logger)

	geminiService, err := gemini.NewService(ctx, s.config.GeminiAPIKey, s.config.GeminiModel, s.logger)
	if err != nil {
		return fmt.Errorf("creating gemini service: %w", err)
	}

	authService := service.NewAuthService(s.db, githubProvider, tokens, s.logger)
	analysisService := service.NewAnalysisService(s.db, commitService, geminiService, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	analysisHandler := handler.NewAnalysisHandler(analysisService, authService, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Get("/", handler.HandleRoot)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/github/callback", authHandler.HandleGitHubCallback)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)
	})

	s.router.Route("/analyses", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", analysisHandler.HandleCreate)
		r.Get("/", analysisHandler.HandleList)
		r.Get("/{id}", analysisHandler.HandleGet)
		r.Patch("/{id}", analysisHandler.HandleUpdateMemo)
		r.Delete("/{id}", analysisHandler.HandleDelete)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // analysis runs wait on GitHub + Gemini
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
