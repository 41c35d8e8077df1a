package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/cloudbyte/internal/config"
	"github.com/dukerupert/cloudbyte/internal/database"
	"github.com/dukerupert/cloudbyte/internal/email"
	"github.com/dukerupert/cloudbyte/internal/handler"
	"github.com/dukerupert/cloudbyte/internal/logging"
	"github.com/dukerupert/cloudbyte/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if cfg.GeneratedSecret {
		logger.Warn("CLOUDBYTE_JWT_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(cfg.Email.PostmarkToken, cfg.Email.FromAddress, cfg.HTTP.BaseURL)
	if !emailClient.Configured() {
		logger.Info("postmark token not set, transactional email disabled")
	}

	srv, err := server.New(db, server.Config{
		BaseURL:           cfg.HTTP.BaseURL,
		JWTSecret:         []byte(cfg.Auth.JWTSecret),
		SessionTTL:        cfg.Auth.SessionTTL,
		SecureCookie:      cfg.Auth.SecureCookie,
		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
		Mailer:            emailClient,
		Terminal: handler.TerminalConfig{
			SSHHost:      cfg.Terminal.SSHHost,
			ProjectDir:   cfg.Terminal.ProjectDir,
			SupportEmail: cfg.Terminal.SupportEmail,
		},
	}, logger)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	warmCtx, warmCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := srv.Warm(warmCtx); err != nil {
		slog.Error("failed to warm session cache", "error", err)
		warmCancel()
		os.Exit(1)
	}
	warmCancel()

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.Cleanup(cleanupCtx)
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("cloudbyte starting", "addr", cfg.Addr(), "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
