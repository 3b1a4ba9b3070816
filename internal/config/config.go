package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for configuration values.
const (
	DefaultOddsAPIBaseURL       = "https://api.the-odds-api.com/v4/sports"
	DefaultRegions              = "us"
	DefaultMarkets              = "h2h,spreads,totals"
	DefaultSharpBooks           = "pinnacle"
	DefaultDevigMethod          = "multiplicative"
	DefaultBankroll             = 1000.0
	DefaultKellyFraction        = 0.25
	DefaultFeedTimeout          = 10 * time.Second
	DefaultMaxRequestsPerMinute = 10
	DefaultDatabaseURL          = "./bets.db"
	DefaultFeedCacheTTL         = 60 * time.Second
	DefaultPort                 = "8000"
	DefaultLogLevel             = "info"
)

// DefaultAllowedOrigins are the local dashboard origins.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// Config holds all application configuration.
type Config struct {
	// Odds feed
	OddsAPIKey           string
	OddsAPIBaseURL       string
	Regions              string
	Markets              string
	FeedTimeout          time.Duration
	MaxRequestsPerMinute int
	RedisURL             string // empty disables the snapshot cache
	FeedCacheTTL         time.Duration

	// Pricing
	SharpBooks    []string
	DevigMethod   string
	Bankroll      float64
	KellyFraction float64

	// Service
	DatabaseURL    string
	Port           string
	AllowedOrigins []string
	LogLevel       string
}

// Load reads configuration from environment variables (and .env file if present).
func Load() Config {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg := Config{
		OddsAPIKey:           os.Getenv("ODDS_API_KEY"),
		OddsAPIBaseURL:       DefaultOddsAPIBaseURL,
		Regions:              DefaultRegions,
		Markets:              DefaultMarkets,
		FeedTimeout:          DefaultFeedTimeout,
		MaxRequestsPerMinute: DefaultMaxRequestsPerMinute,
		RedisURL:             os.Getenv("REDIS_URL"),
		FeedCacheTTL:         DefaultFeedCacheTTL,

		SharpBooks:    splitList(DefaultSharpBooks),
		DevigMethod:   DefaultDevigMethod,
		Bankroll:      DefaultBankroll,
		KellyFraction: DefaultKellyFraction,

		DatabaseURL:    DefaultDatabaseURL,
		Port:           DefaultPort,
		AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
		LogLevel:       DefaultLogLevel,
	}

	if v := os.Getenv("ODDS_API_BASE_URL"); v != "" {
		cfg.OddsAPIBaseURL = strings.TrimRight(v, "/")
	}

	if v := os.Getenv("ODDS_REGIONS"); v != "" {
		cfg.Regions = v
	}

	if v := os.Getenv("ODDS_MARKETS"); v != "" {
		cfg.Markets = v
	}

	if v := os.Getenv("FEED_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.FeedTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if v := os.Getenv("MAX_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRequestsPerMinute = n
		}
	}

	if v := os.Getenv("FEED_CACHE_TTL_SEC"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.FeedCacheTTL = time.Duration(s) * time.Second
		}
	}

	if v := os.Getenv("SHARP_BOOKS"); v != "" {
		cfg.SharpBooks = splitList(v)
	}

	if v := os.Getenv("DEVIG_METHOD"); v != "" {
		cfg.DevigMethod = strings.ToLower(v)
	}

	if v := os.Getenv("BANKROLL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Bankroll = f
		}
	}

	if v := os.Getenv("KELLY_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.KellyFraction = f
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, strings.TrimRight(v, "/"))
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	return cfg
}

// Validate checks that configuration values are within acceptable ranges.
func Validate(cfg Config) error {
	if cfg.KellyFraction <= 0 || cfg.KellyFraction > 1 {
		return fmt.Errorf("KELLY_FRACTION must be between 0 and 1, got %f", cfg.KellyFraction)
	}
	if cfg.Bankroll <= 0 {
		return fmt.Errorf("BANKROLL must be positive, got %f", cfg.Bankroll)
	}
	if len(cfg.SharpBooks) == 0 {
		return fmt.Errorf("SHARP_BOOKS must name at least one book")
	}
	if cfg.DevigMethod != "multiplicative" && cfg.DevigMethod != "power" {
		return fmt.Errorf("DEVIG_METHOD must be multiplicative or power, got %q", cfg.DevigMethod)
	}
	if cfg.FeedTimeout < 100*time.Millisecond {
		return fmt.Errorf("FEED_TIMEOUT_MS must be at least 100ms, got %v", cfg.FeedTimeout)
	}
	if cfg.MaxRequestsPerMinute <= 0 {
		return fmt.Errorf("MAX_REQUESTS_PER_MINUTE must be positive, got %d", cfg.MaxRequestsPerMinute)
	}
	if cfg.FeedCacheTTL < 0 {
		return fmt.Errorf("FEED_CACHE_TTL_SEC must be non-negative, got %v", cfg.FeedCacheTTL)
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// Issues lists non-fatal configuration notes worth logging at startup.
func Issues(cfg Config) []string {
	var issues []string
	if cfg.OddsAPIKey == "" {
		issues = append(issues, "ODDS_API_KEY not set, serving embedded sample odds")
	} else if len(cfg.OddsAPIKey) < 10 {
		issues = append(issues, "ODDS_API_KEY looks too short")
	}
	if UsesPostgres(cfg.DatabaseURL) {
		issues = append(issues, "Using PostgreSQL for saved bets")
	} else {
		issues = append(issues, "Using SQLite for saved bets (local only)")
	}
	if cfg.RedisURL == "" {
		issues = append(issues, "REDIS_URL not set, odds snapshots are not cached")
	}
	return issues
}

// UsesPostgres reports whether databaseURL points at PostgreSQL.
func UsesPostgres(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", level)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
