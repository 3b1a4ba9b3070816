// Package app wires configuration into the feed, scanner and logger shared by
// the binaries.
package app

import (
	"context"
	"log/slog"
	"os"

	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/api"
	"value-bet-finder/internal/config"
	"value-bet-finder/internal/engine"
	"value-bet-finder/internal/odds"
)

// feedRetries is the retry budget for one odds request.
const feedRetries = 2

// NewLogger installs a text slog handler on stderr at the configured level
// and returns it.
func NewLogger(cfg config.Config) *slog.Logger {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// NewFeed picks the live Odds API client when a key is set and the embedded
// sample otherwise, then wraps it with the Redis snapshot cache if REDIS_URL
// is set. The returned close func releases the cache connection.
func NewFeed(ctx context.Context, cfg config.Config) (api.Feed, func(), error) {
	var feed api.Feed
	if cfg.OddsAPIKey != "" {
		feed = api.NewOddsAPIClient(api.OddsAPIConfig{
			APIKey:            cfg.OddsAPIKey,
			BaseURL:           cfg.OddsAPIBaseURL,
			Regions:           cfg.Regions,
			Markets:           cfg.Markets,
			RequestsPerMinute: cfg.MaxRequestsPerMinute,
			Timeout:           cfg.FeedTimeout,
			MaxRetries:        feedRetries,
		})
		slog.Info("Using The Odds API", "regions", cfg.Regions, "markets", cfg.Markets)
	} else {
		sample, err := api.NewSampleFeed()
		if err != nil {
			return nil, nil, err
		}
		feed = sample
		slog.Info("Using embedded sample odds")
	}

	if cfg.RedisURL == "" || cfg.FeedCacheTTL == 0 {
		return feed, func() {}, nil
	}

	cache, err := api.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		// The service still works uncached
		slog.Warn("Redis cache disabled", "err", err)
		return feed, func() {}, nil
	}
	slog.Info("Caching odds snapshots in Redis", "ttl", cfg.FeedCacheTTL)

	return api.NewCachedFeed(feed, cache, cfg.FeedCacheTTL, slog.Default()), func() { cache.Close() }, nil
}

// NewScanner builds the scanner from cfg over feed.
func NewScanner(cfg config.Config, feed api.Feed, metrics engine.Metrics) (*engine.Scanner, error) {
	devigger, err := odds.NewDevigger(cfg.DevigMethod)
	if err != nil {
		return nil, err
	}

	return engine.New(feed, devigger, analysis.GreedyComposer{}, metrics, engine.Config{
		SharpBooks:    cfg.SharpBooks,
		Bankroll:      cfg.Bankroll,
		KellyFraction: cfg.KellyFraction,
		FeedTimeout:   cfg.FeedTimeout,
	}), nil
}
