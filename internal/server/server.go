// Package server wires the application together: database, services,
// handlers, middleware, and routes. It is the composition root — every
// dependency is assembled here and nowhere else.
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

	"github.com/kidslearn/api/internal/auth"
	"github.com/kidslearn/api/internal/handler"
	"github.com/kidslearn/api/internal/middleware"
	sqliteRepo "github.com/kidslearn/api/internal/repository/sqlite"
	"github.com/kidslearn/api/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port   int
	DBPath string

	// JWTSecret enables sessions. When empty, the auth routes aren't
	// registered and every request is anonymous.
	JWTSecret string

	// GitHub OAuth app credentials. Optional even when JWTSecret is set;
	// without them only email/password sign-in is available.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the resources that must be released on
// shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency chain: database → repositories → services →
// handlers → routes. runner may be nil when the sandbox is unavailable; the
// run endpoint then answers 503 instead of taking the whole API down.
func New(cfg Config, logger *slog.Logger, runner handler.Runner) (*Server, error) {
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

	if err := s.setupRoutes(runner); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes registers middleware and all endpoints.
//
// Routes:
//
//	GET  /                      liveness message
//	POST /api/run-code          execute a student script
//	GET  /api/scores            leaderboard
//	POST /api/scores            submit a score (attributed when signed in)
//	GET  /api/me                current user            [requires JWT_SECRET]
//	POST /auth/register         email/password sign-up  [requires JWT_SECRET]
//	POST /auth/login            email/password sign-in  [requires JWT_SECRET]
//	POST /auth/logout           clear the session       [requires JWT_SECRET]
//	GET  /auth/github/login     start OAuth             [requires GitHub creds]
//	GET  /auth/github/callback  finish OAuth            [requires GitHub creds]
func (s *Server) setupRoutes(runner handler.Runner) error {
	// Order matters: RequestID before the logger so log lines carry the ID,
	// Recoverer innermost so panics are logged as 500s rather than lost.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/", handler.HandleRoot)

	runHandler := handler.NewRunHandler(runner, s.logger)

	scoreService := service.NewScoreService(s.db, s.logger)
	scoreHandler := handler.NewScoreHandler(scoreService, s.logger)

	var tokens *auth.TokenService
	if s.config.JWTSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
	}

	var authHandler *handler.AuthHandler
	var github *auth.GitHubProvider
	if tokens != nil {
		authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)

		if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
			github = auth.NewGitHubProvider(
				s.config.GitHubClientID,
				s.config.GitHubClientSecret,
				s.config.GitHubCallbackURL,
			)
		}

		authHandler = handler.NewAuthHandler(github, authService, s.logger)
	} else {
		s.logger.Warn("JWT secret not configured — running without accounts")
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/run-code", runHandler.HandleRun)

		r.Get("/scores", scoreHandler.HandleListTop)
		if tokens != nil {
			r.With(auth.OptionalAuth(tokens)).Post("/scores", scoreHandler.HandleSubmit)
			r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
		} else {
			r.Post("/scores", scoreHandler.HandleSubmit)
		}
	})

	if authHandler != nil {
		s.router.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)

			if github != nil {
				r.Get("/github/login", authHandler.HandleGitHubLogin)
				r.Get("/github/callback", authHandler.HandleGitHubCallback)
			}
		})
	}

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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
