package app

import (
	"context"
	"testing"
	"time"

	"value-bet-finder/internal/api"
	"value-bet-finder/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		SharpBooks:           []string{"pinnacle"},
		DevigMethod:          "multiplicative",
		Bankroll:             1000,
		KellyFraction:        0.25,
		FeedTimeout:          time.Second,
		MaxRequestsPerMinute: 10,
		LogLevel:             "error",
	}
}

func TestNewFeedWithoutKeyUsesSample(t *testing.T) {
	feed, closeFn, err := NewFeed(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("NewFeed() error = %v", err)
	}
	defer closeFn()

	if _, ok := feed.(*api.SampleFeed); !ok {
		t.Errorf("feed = %T, want *api.SampleFeed", feed)
	}
}

func TestNewFeedWithKeyUsesOddsAPI(t *testing.T) {
	cfg := testConfig()
	cfg.OddsAPIKey = "abcdef0123456789"

	feed, closeFn, err := NewFeed(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewFeed() error = %v", err)
	}
	defer closeFn()

	if _, ok := feed.(*api.OddsAPIClient); !ok {
		t.Errorf("feed = %T, want *api.OddsAPIClient", feed)
	}
}

func TestNewScanner(t *testing.T) {
	feed, _ := api.NewSampleFeed()

	cfg := testConfig()
	s, err := NewScanner(cfg, feed, nil)
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}
	res, err := s.Scan(context.Background(), "basketball_nba")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Opportunities) == 0 {
		t.Error("expected opportunities from sample feed")
	}

	cfg.DevigMethod = "additive"
	if _, err := NewScanner(cfg, feed, nil); err == nil {
		t.Error("expected error for unknown devig method")
	}
}

func TestNewLogger(t *testing.T) {
	if NewLogger(testConfig()) == nil {
		t.Fatal("NewLogger() = nil")
	}
}
