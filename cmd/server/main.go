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

	"value-bet-finder/internal/app"
	"value-bet-finder/internal/config"
	"value-bet-finder/internal/metrics"
	"value-bet-finder/internal/portfolio"
	"value-bet-finder/internal/server"
)

func main() {
	cfg := config.Load()
	app.NewLogger(cfg)

	if err := config.Validate(cfg); err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	for _, issue := range config.Issues(cfg) {
		slog.Info("Config", "note", issue)
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder := metrics.New()

	feed, closeFeed, err := app.NewFeed(ctx, cfg)
	if err != nil {
		slog.Error("Odds feed unavailable", "err", err)
		os.Exit(1)
	}
	defer closeFeed()

	scanner, err := app.NewScanner(cfg, feed, recorder)
	if err != nil {
		slog.Error("Building scanner failed", "err", err)
		os.Exit(1)
	}

	// Initialize database; the feed endpoints keep working without it
	var store server.BetStore
	db, err := portfolio.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("DB disabled", "err", err)
	} else {
		defer db.Close()
		store = db
		slog.Info("Database connected", "dialect", db.Dialect())
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: server.New(scanner, store, recorder, server.Options{
			AllowedOrigins: cfg.AllowedOrigins,
		}).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Value Bet Finder listening",
			"addr", srv.Addr,
			"sharp", cfg.SharpBooks,
			"devig", cfg.DevigMethod,
			"bankroll", cfg.Bankroll,
			"kelly", cfg.KellyFraction)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "err", err)
			srv.Close()
		}
		slog.Info("Server stopped gracefully")
	}
}
