package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/dukerupert/helpline/internal/config"
	"github.com/dukerupert/helpline/internal/database"
	"github.com/dukerupert/helpline/internal/email"
	"github.com/dukerupert/helpline/internal/logging"
	"github.com/dukerupert/helpline/internal/server"
)

const cleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	mailer := email.NewClient(cfg.PostmarkToken, cfg.FromEmail, cfg.BaseURL)
	if !mailer.Configured() {
		logger.Warn("postmark token not set, password reset mail disabled")
	}

	srv, err := server.New(db, server.Options{
		Token:          cfg.TokenConfig(),
		ResetTTL:       cfg.ResetTTL,
		Mailer:         mailer,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		db.Close()
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runCleanup(ctx, srv, logger.With("component", "cleanup"))

	go func() {
		logger.Info("helpline listening", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Live websockets would hold Shutdown open until its deadline.
	srv.Hub().Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = multierr.Combine(
		httpServer.Shutdown(shutdownCtx),
		db.Close(),
	)
	if err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
}

// runCleanup purges expired reset tokens and stale rate-limit entries.
func runCleanup(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := srv.PasswordResetStore().DeleteExpired()
			if err != nil {
				logger.Error("delete expired resets", "error", err)
			} else if n > 0 {
				logger.Info("deleted expired resets", "count", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}
}
