// Command server runs the KidsLearnPython API: a sandboxed Python runner and
// a quiz leaderboard for kids' coding lessons.
//
// Configuration is entirely via environment variables:
//
//	PORT                  listen port (default 8080)
//	DB_PATH               SQLite file (default data/kidslearn.db)
//	SANDBOX_TIMEOUT_MS    per-script deadline (default 2000)
//	JWT_SECRET            enables accounts; unset runs anonymous-only
//	GITHUB_CLIENT_ID      GitHub OAuth app (optional)
//	GITHUB_CLIENT_SECRET
//	GITHUB_CALLBACK_URL   default http://localhost:$PORT/auth/github/callback
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kidslearn/api/internal/handler"
	"github.com/kidslearn/api/internal/sandbox"
	"github.com/kidslearn/api/internal/sandbox/docker"
	"github.com/kidslearn/api/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/kidslearn.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	sandboxCfg := docker.DefaultConfig()
	if msStr := os.Getenv("SANDBOX_TIMEOUT_MS"); msStr != "" {
		ms, err := strconv.Atoi(msStr)
		if err != nil || ms <= 0 {
			logger.Error("invalid SANDBOX_TIMEOUT_MS value", slog.String("value", msStr))
			os.Exit(1)
		}
		sandboxCfg.Deadline = time.Duration(ms) * time.Millisecond
	}

	// The sandbox is optional at startup: without a Docker daemon the server
	// still serves scores, and /api/run-code answers 503.
	var runner handler.Runner
	exec, err := docker.New(sandboxCfg, logger)
	if err != nil {
		logger.Warn("sandbox unavailable — code execution disabled",
			slog.String("error", err.Error()),
		)
	} else {
		defer exec.Close()
		runner = sandbox.NewEngine(exec, logger)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Warn("JWT_SECRET not set — accounts are disabled")
	}

	githubCallbackURL := os.Getenv("GITHUB_CALLBACK_URL")
	if githubCallbackURL == "" {
		githubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  githubCallbackURL,
	}

	srv, err := server.New(cfg, logger, runner)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
