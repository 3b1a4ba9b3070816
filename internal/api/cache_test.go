package api

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memCache struct {
	data map[string][]byte
	sets int
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.sets++
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

type countingFeed struct {
	calls  int
	events []Event
	err    error
}

func (f *countingFeed) GetOdds(ctx context.Context, sport string) ([]Event, error) {
	f.calls++
	return f.events, f.err
}

func TestCachedFeedServesFromCache(t *testing.T) {
	upstream := &countingFeed{events: []Event{{ID: "evt1", HomeTeam: "A", AwayTeam: "B"}}}
	cache := newMemCache()
	feed := NewCachedFeed(upstream, cache, time.Minute, nil)

	for i := 0; i < 3; i++ {
		events, err := feed.GetOdds(context.Background(), "basketball_nba")
		if err != nil {
			t.Fatalf("GetOdds() error = %v", err)
		}
		if len(events) != 1 || events[0].ID != "evt1" {
			t.Fatalf("GetOdds() = %+v", events)
		}
	}

	if upstream.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", upstream.calls)
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}
}

func TestCachedFeedCacheErrorFallsThrough(t *testing.T) {
	upstream := &countingFeed{events: []Event{{ID: "evt1"}}}
	cache := newMemCache()
	cache.err = errors.New("connection refused")
	feed := NewCachedFeed(upstream, cache, time.Minute, nil)

	events, err := feed.GetOdds(context.Background(), "basketball_nba")
	if err != nil {
		t.Fatalf("GetOdds() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events, want 1", len(events))
	}
}

func TestCachedFeedUpstreamErrorNotCached(t *testing.T) {
	upstream := &countingFeed{err: ErrUpstreamFeed}
	cache := newMemCache()
	feed := NewCachedFeed(upstream, cache, time.Minute, nil)

	if _, err := feed.GetOdds(context.Background(), "basketball_nba"); !errors.Is(err, ErrUpstreamFeed) {
		t.Fatalf("GetOdds() error = %v, want ErrUpstreamFeed", err)
	}
	if cache.sets != 0 {
		t.Errorf("cache sets = %d, want 0", cache.sets)
	}
}

func TestCachedFeedDiscardsCorruptSnapshot(t *testing.T) {
	upstream := &countingFeed{events: []Event{{ID: "fresh"}}}
	cache := newMemCache()
	cache.data["basketball_nba"] = []byte("{broken")
	feed := NewCachedFeed(upstream, cache, time.Minute, nil)

	events, err := feed.GetOdds(context.Background(), "basketball_nba")
	if err != nil {
		t.Fatalf("GetOdds() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != "fresh" {
		t.Errorf("GetOdds() = %+v, want fresh upstream events", events)
	}
}
