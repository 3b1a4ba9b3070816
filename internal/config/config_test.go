package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"ODDS_API_KEY", "ODDS_API_BASE_URL", "ODDS_REGIONS", "ODDS_MARKETS",
	"FEED_TIMEOUT_MS", "MAX_REQUESTS_PER_MINUTE", "REDIS_URL", "FEED_CACHE_TTL_SEC",
	"SHARP_BOOKS", "DEVIG_METHOD", "BANKROLL", "KELLY_FRACTION",
	"DATABASE_URL", "PORT", "ALLOWED_ORIGINS", "FRONTEND_URL", "LOG_LEVEL",
}

func clearEnv() {
	for _, key := range envKeys {
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	// Clear env vars that could affect defaults
	clearEnv()

	cfg := Load()

	if cfg.OddsAPIBaseURL != DefaultOddsAPIBaseURL {
		t.Errorf("OddsAPIBaseURL = %q, want %q", cfg.OddsAPIBaseURL, DefaultOddsAPIBaseURL)
	}
	if cfg.Regions != DefaultRegions || cfg.Markets != DefaultMarkets {
		t.Errorf("Regions/Markets = %q/%q", cfg.Regions, cfg.Markets)
	}
	if len(cfg.SharpBooks) != 1 || cfg.SharpBooks[0] != "pinnacle" {
		t.Errorf("SharpBooks = %v, want [pinnacle]", cfg.SharpBooks)
	}
	if cfg.DevigMethod != DefaultDevigMethod {
		t.Errorf("DevigMethod = %q, want %q", cfg.DevigMethod, DefaultDevigMethod)
	}
	if cfg.Bankroll != DefaultBankroll {
		t.Errorf("Bankroll = %f, want %f", cfg.Bankroll, DefaultBankroll)
	}
	if cfg.KellyFraction != DefaultKellyFraction {
		t.Errorf("KellyFraction = %f, want %f", cfg.KellyFraction, DefaultKellyFraction)
	}
	if cfg.FeedTimeout != DefaultFeedTimeout {
		t.Errorf("FeedTimeout = %v, want %v", cfg.FeedTimeout, DefaultFeedTimeout)
	}
	if cfg.MaxRequestsPerMinute != DefaultMaxRequestsPerMinute {
		t.Errorf("MaxRequestsPerMinute = %d, want %d", cfg.MaxRequestsPerMinute, DefaultMaxRequestsPerMinute)
	}
	if cfg.DatabaseURL != DefaultDatabaseURL {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, DefaultDatabaseURL)
	}
	if cfg.FeedCacheTTL != DefaultFeedCacheTTL {
		t.Errorf("FeedCacheTTL = %v, want %v", cfg.FeedCacheTTL, DefaultFeedCacheTTL)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", cfg.Port, DefaultPort)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.OddsAPIKey != "" || cfg.RedisURL != "" {
		t.Error("API key and Redis URL should default to empty")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv()
	os.Setenv("ODDS_API_KEY", "abcdef0123456789")
	os.Setenv("SHARP_BOOKS", "pinnacle, circa ,")
	os.Setenv("DEVIG_METHOD", "Power")
	os.Setenv("BANKROLL", "5000")
	os.Setenv("KELLY_FRACTION", "0.5")
	os.Setenv("FEED_TIMEOUT_MS", "2500")
	os.Setenv("FEED_CACHE_TTL_SEC", "30")
	os.Setenv("DATABASE_URL", "postgres://u:p@db/bets")
	os.Setenv("FRONTEND_URL", "https://valuebets.example.com/")
	os.Setenv("LOG_LEVEL", "DEBUG")
	defer clearEnv()

	cfg := Load()

	if cfg.OddsAPIKey != "abcdef0123456789" {
		t.Errorf("OddsAPIKey = %q", cfg.OddsAPIKey)
	}
	if len(cfg.SharpBooks) != 2 || cfg.SharpBooks[1] != "circa" {
		t.Errorf("SharpBooks = %v, want [pinnacle circa]", cfg.SharpBooks)
	}
	if cfg.DevigMethod != "power" {
		t.Errorf("DevigMethod = %q, want power", cfg.DevigMethod)
	}
	if cfg.Bankroll != 5000 {
		t.Errorf("Bankroll = %f, want 5000", cfg.Bankroll)
	}
	if cfg.KellyFraction != 0.5 {
		t.Errorf("KellyFraction = %f, want 0.5", cfg.KellyFraction)
	}
	if cfg.FeedTimeout != 2500*time.Millisecond {
		t.Errorf("FeedTimeout = %v, want 2.5s", cfg.FeedTimeout)
	}
	if cfg.FeedCacheTTL != 30*time.Second {
		t.Errorf("FeedCacheTTL = %v, want 30s", cfg.FeedCacheTTL)
	}
	last := cfg.AllowedOrigins[len(cfg.AllowedOrigins)-1]
	if last != "https://valuebets.example.com" {
		t.Errorf("FRONTEND_URL origin = %q", last)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if !UsesPostgres(cfg.DatabaseURL) {
		t.Error("postgres DATABASE_URL not detected")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		SharpBooks:           []string{"pinnacle"},
		DevigMethod:          "multiplicative",
		Bankroll:             1000,
		KellyFraction:        0.25,
		FeedTimeout:          10 * time.Second,
		MaxRequestsPerMinute: 10,
		FeedCacheTTL:         time.Minute,
		LogLevel:             "info",
	}

	if err := Validate(valid); err != nil {
		t.Errorf("valid config should pass: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero Kelly", func(c *Config) { c.KellyFraction = 0 }},
		{"Kelly > 1", func(c *Config) { c.KellyFraction = 1.5 }},
		{"zero bankroll", func(c *Config) { c.Bankroll = 0 }},
		{"no sharp books", func(c *Config) { c.SharpBooks = nil }},
		{"unknown devig", func(c *Config) { c.DevigMethod = "additive" }},
		{"timeout too short", func(c *Config) { c.FeedTimeout = time.Millisecond }},
		{"zero rate limit", func(c *Config) { c.MaxRequestsPerMinute = 0 }},
		{"negative ttl", func(c *Config) { c.FeedCacheTTL = -time.Second }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)
			if err := Validate(c); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestIssues(t *testing.T) {
	issues := Issues(Config{DatabaseURL: "./bets.db"})
	joined := strings.Join(issues, "\n")
	for _, want := range []string{"sample odds", "SQLite", "REDIS_URL"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Issues() missing %q: %v", want, issues)
		}
	}

	issues = Issues(Config{OddsAPIKey: "abcdef0123456789", DatabaseURL: "postgresql://db/bets", RedisURL: "redis://localhost:6379/0"})
	if len(issues) != 1 || !strings.Contains(issues[0], "PostgreSQL") {
		t.Errorf("Issues() = %v", issues)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
