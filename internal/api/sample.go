package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed sample_odds.json
var sampleOdds []byte

// SampleFeed serves a fixed snapshot of odds for local runs without an API
// key. Sports missing from the snapshot return no events.
type SampleFeed struct {
	events map[string][]Event
}

// NewSampleFeed parses the embedded snapshot.
func NewSampleFeed() (*SampleFeed, error) {
	var events map[string][]Event
	if err := json.Unmarshal(sampleOdds, &events); err != nil {
		return nil, fmt.Errorf("parsing sample odds: %w", err)
	}
	return &SampleFeed{events: events}, nil
}

// GetOdds returns a copy of the snapshot's events for sport.
func (f *SampleFeed) GetOdds(ctx context.Context, sport string) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFeed, err)
	}
	events := f.events[sport]
	out := make([]Event, len(events))
	copy(out, events)
	return out, nil
}
