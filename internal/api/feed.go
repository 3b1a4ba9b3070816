package api

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrUpstreamFeed wraps any failure fetching odds from the ingestion feed.
var ErrUpstreamFeed = errors.New("upstream odds feed failed")

// Feed supplies the current events, with every book's quotes, for one sport.
type Feed interface {
	GetOdds(ctx context.Context, sport string) ([]Event, error)
}

// Event is one fixture with the books quoting it.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// MatchName is the display name used on opportunities, "Home vs Away".
func (e Event) MatchName() string {
	return e.HomeTeam + " vs " + e.AwayTeam
}

// Bookmaker is one book's markets for an event.
type Bookmaker struct {
	Key        string       `json:"key"`
	Title      string       `json:"title"`
	LastUpdate time.Time    `json:"last_update"`
	Markets    []MarketOdds `json:"markets"`
}

// MarketOdds is a single market ("h2h", "spreads", "totals") at one book.
type MarketOdds struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is a selection with its American price. Point is set for spreads
// and totals.
type Outcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// SupportedSports maps feed sport keys to display titles.
var SupportedSports = map[string]string{
	"basketball_nba":            "NBA Basketball",
	"americanfootball_nfl":      "NFL Football",
	"baseball_mlb":              "MLB Baseball",
	"icehockey_nhl":             "NHL Hockey",
	"soccer_epl":                "English Premier League",
	"soccer_uefa_champs_league": "UEFA Champions League",
}

// IsSupported reports whether sport is a known feed key.
func IsSupported(sport string) bool {
	_, ok := SupportedSports[sport]
	return ok
}

// SportKeys returns the supported sport keys in sorted order.
func SportKeys() []string {
	keys := make([]string, 0, len(SupportedSports))
	for k := range SupportedSports {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
