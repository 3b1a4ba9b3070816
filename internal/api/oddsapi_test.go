package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const oddsResponse = `[{
	"id": "evt1",
	"sport_key": "basketball_nba",
	"sport_title": "NBA",
	"commence_time": "2026-10-15T23:30:00Z",
	"home_team": "Boston Celtics",
	"away_team": "New York Knicks",
	"bookmakers": [{
		"key": "pinnacle",
		"title": "Pinnacle",
		"last_update": "2026-10-15T20:00:00Z",
		"markets": [
			{"key": "h2h", "outcomes": [{"name": "Boston Celtics", "price": -180}, {"name": "New York Knicks", "price": 160}]},
			{"key": "spreads", "outcomes": [{"name": "Boston Celtics", "price": -105, "point": -4.5}, {"name": "New York Knicks", "price": -105, "point": 4.5}]}
		]
	}]
}]`

func testClient(baseURL string) *OddsAPIClient {
	return NewOddsAPIClient(OddsAPIConfig{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		RequestsPerMinute: 600,
		Timeout:           2 * time.Second,
	})
}

func TestOddsAPIClientGetOdds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/basketball_nba/odds/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("apiKey") != "test-key" {
			t.Errorf("apiKey = %q", q.Get("apiKey"))
		}
		if q.Get("oddsFormat") != "american" {
			t.Errorf("oddsFormat = %q, want american", q.Get("oddsFormat"))
		}
		if q.Get("markets") != "h2h,spreads,totals" {
			t.Errorf("markets = %q", q.Get("markets"))
		}
		if q.Get("regions") != "us" {
			t.Errorf("regions = %q", q.Get("regions"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(oddsResponse))
	}))
	defer srv.Close()

	events, err := testClient(srv.URL).GetOdds(context.Background(), "basketball_nba")
	if err != nil {
		t.Fatalf("GetOdds() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.MatchName() != "Boston Celtics vs New York Knicks" {
		t.Errorf("MatchName() = %q", e.MatchName())
	}
	if len(e.Bookmakers) != 1 || len(e.Bookmakers[0].Markets) != 2 {
		t.Fatalf("unexpected bookmakers: %+v", e.Bookmakers)
	}
	h2h := e.Bookmakers[0].Markets[0]
	if h2h.Outcomes[0].Price != -180 || h2h.Outcomes[0].Point != nil {
		t.Errorf("h2h outcome = %+v", h2h.Outcomes[0])
	}
	spread := e.Bookmakers[0].Markets[1]
	if spread.Outcomes[0].Point == nil || *spread.Outcomes[0].Point != -4.5 {
		t.Errorf("spread point = %v, want -4.5", spread.Outcomes[0].Point)
	}
}

func TestOddsAPIClientUpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Invalid API key"}`},
		{"bad json", http.StatusOK, `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := testClient(srv.URL).GetOdds(context.Background(), "basketball_nba")
			if !errors.Is(err, ErrUpstreamFeed) {
				t.Errorf("GetOdds() error = %v, want ErrUpstreamFeed", err)
			}
		})
	}
}

func TestRateLimitedClientRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewRateLimitedClient(600, time.Second, 2)
	body, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRateLimitedClientContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewRateLimitedClient(600, time.Second, 10)
	if _, err := c.Get(ctx, srv.URL, nil); err == nil {
		t.Fatal("Get() expected error after context deadline")
	}
}

func TestSupportedSports(t *testing.T) {
	if !IsSupported("basketball_nba") {
		t.Error("basketball_nba should be supported")
	}
	if IsSupported("cricket_ipl") {
		t.Error("cricket_ipl should not be supported")
	}

	keys := SportKeys()
	if len(keys) != len(SupportedSports) {
		t.Fatalf("SportKeys() len = %d, want %d", len(keys), len(SupportedSports))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("SportKeys() not sorted: %v", keys)
		}
	}
}

func TestRateLimitedClientHonorsRetryAfter(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewRateLimitedClient(600, time.Second, 0)
	_, err := c.Get(context.Background(), srv.URL, nil)

	var se *statusError
	if !errors.As(err, &se) || se.code != http.StatusTooManyRequests {
		t.Fatalf("Get() error = %v, want 429 statusError", err)
	}
	if se.retryAfter != time.Second {
		t.Errorf("retryAfter = %v, want 1s", se.retryAfter)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoff(t *testing.T) {
	c := NewRateLimitedClient(60, time.Second, 3)

	tests := []struct {
		name    string
		attempt int
		err     error
		want    time.Duration
	}{
		{"server error first retry", 1, &statusError{code: 502}, 100 * time.Millisecond},
		{"server error third retry", 3, &statusError{code: 503}, 400 * time.Millisecond},
		{"transport error", 2, errors.New("connection reset"), 200 * time.Millisecond},
		{"rate limited", 2, &statusError{code: 429}, 2 * time.Second},
		{"rate limited with retry-after", 2, &statusError{code: 429, retryAfter: 5 * time.Second}, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.backoff(tt.attempt, tt.err); got != tt.want {
				t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestTokenBucketBurst(t *testing.T) {
	b := newTokenBucket(60) // burst 10, one token per second
	for i := 0; i < 10; i++ {
		if d := b.reserve(); d != 0 {
			t.Fatalf("reserve() #%d = %v, want immediate", i, d)
		}
	}
	if d := b.reserve(); d <= 0 || d > time.Second {
		t.Errorf("reserve() after burst = %v, want (0, 1s]", d)
	}
}
