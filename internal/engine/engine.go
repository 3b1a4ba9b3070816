package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/api"
	"value-bet-finder/internal/market"
	"value-bet-finder/internal/odds"
)

// DefaultFeedTimeout bounds a single feed call.
const DefaultFeedTimeout = 10 * time.Second

// Metrics receives scan outcomes. A nil Metrics is replaced with a no-op.
type Metrics interface {
	RecordScan(sport string, seconds float64, opportunities, skipped int)
	RecordError(kind string)
}

type nopMetrics struct{}

func (nopMetrics) RecordScan(string, float64, int, int) {}
func (nopMetrics) RecordError(string) {}

// Config holds the scanner's pricing parameters.
type Config struct {
	SharpBooks    []string
	Bankroll      float64
	KellyFraction float64
	FeedTimeout   time.Duration
}

// Warning records a market skipped during a scan.
type Warning struct {
	MatchName string
	Market    string
	Err       error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %v", w.MatchName, w.Market, w.Err)
}

// ScanResult is the output of one scan. Opportunities is never nil.
type ScanResult struct {
	ScanID        string
	Sport         string
	Markets       int
	Opportunities []analysis.BetOpportunity
	Warnings      []Warning
}

// Scanner prices every market of a sport against the sharp books and keeps the
// +EV quotes. It holds no state between scans, so one Scanner serves
// concurrent requests.
type Scanner struct {
	feed     api.Feed
	devigger odds.Devigger
	composer analysis.Composer
	metrics  Metrics
	cfg      Config

	now func() time.Time
}

// New creates a Scanner. A nil devigger defaults to multiplicative, a nil
// composer to the greedy one.
func New(feed api.Feed, devigger odds.Devigger, composer analysis.Composer, metrics Metrics, cfg Config) *Scanner {
	if devigger == nil {
		devigger = odds.Multiplicative{}
	}
	if composer == nil {
		composer = analysis.GreedyComposer{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if len(cfg.SharpBooks) == 0 {
		cfg.SharpBooks = []string{market.DefaultSharpBook}
	}
	if cfg.Bankroll <= 0 {
		cfg.Bankroll = analysis.DefaultBankroll
	}
	if cfg.KellyFraction <= 0 {
		cfg.KellyFraction = analysis.DefaultKellyFraction
	}
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = DefaultFeedTimeout
	}

	return &Scanner{
		feed:     feed,
		devigger: devigger,
		composer: composer,
		metrics:  metrics,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Scan fetches sport from the feed and returns its +EV opportunities sorted by
// EV descending. Unknown sports yield an empty result without touching the
// feed. Malformed markets are skipped and reported in Warnings; a feed failure
// returns an error wrapping api.ErrUpstreamFeed.
func (s *Scanner) Scan(ctx context.Context, sport string) (ScanResult, error) {
	res := ScanResult{
		ScanID:        uuid.NewString(),
		Sport:         sport,
		Opportunities: []analysis.BetOpportunity{},
	}

	if !api.IsSupported(sport) {
		slog.Debug("Unsupported sport, returning empty feed", "scan", res.ScanID, "sport", sport)
		return res, nil
	}

	start := time.Now()

	feedCtx, cancel := context.WithTimeout(ctx, s.cfg.FeedTimeout)
	events, err := s.feed.GetOdds(feedCtx, sport)
	cancel()
	if err != nil {
		s.metrics.RecordError("feed")
		slog.Error("Fetching odds failed", "scan", res.ScanID, "sport", sport, "err", err)
		if !errors.Is(err, api.ErrUpstreamFeed) {
			err = fmt.Errorf("%w: %v", api.ErrUpstreamFeed, err)
		}
		return res, err
	}

	markets, err := market.Build(events)
	if err != nil {
		s.metrics.RecordError("invalid_odds")
		return res, fmt.Errorf("building %s markets: %w", sport, err)
	}
	res.Markets = len(markets)

	ts := s.now().UTC()
	for _, m := range markets {
		opps, err := s.scoreMarket(m, ts)
		if err != nil {
			if errors.Is(err, odds.ErrInvalidMarketData) || errors.Is(err, odds.ErrInsufficientMarketData) {
				w := Warning{MatchName: m.MatchName, Market: m.Key, Err: err}
				res.Warnings = append(res.Warnings, w)
				slog.Warn("Skipping market", "scan", res.ScanID, "match", m.MatchName, "market", m.Key, "err", err)
				continue
			}
			s.metrics.RecordError("scoring")
			return res, fmt.Errorf("scoring %s %s: %w", m.MatchName, m.Key, err)
		}
		res.Opportunities = append(res.Opportunities, opps...)
	}

	sort.SliceStable(res.Opportunities, func(i, j int) bool {
		return res.Opportunities[i].EVPercent > res.Opportunities[j].EVPercent
	})

	elapsed := time.Since(start)
	s.metrics.RecordScan(sport, elapsed.Seconds(), len(res.Opportunities), len(res.Warnings))
	slog.Info("Scan complete",
		"scan", res.ScanID,
		"sport", sport,
		"events", len(events),
		"markets", res.Markets,
		"opportunities", len(res.Opportunities),
		"skipped", len(res.Warnings),
		"duration", elapsed.Round(time.Millisecond))

	return res, nil
}

// scoreMarket de-vigs m from the sharp books and scores every other book's
// quote. Opportunities follow book order, then outcome order.
func (s *Scanner) scoreMarket(m market.Market, ts time.Time) ([]analysis.BetOpportunity, error) {
	sharp, err := market.SharpImplied(m, s.cfg.SharpBooks)
	if err != nil {
		return nil, err
	}

	fair, err := s.devigger.Fair(sharp.Implied)
	if err != nil {
		return nil, err
	}

	var opps []analysis.BetOpportunity
	for _, book := range m.Books() {
		if market.IsSharp(book, s.cfg.SharpBooks) {
			continue
		}

		for i, o := range m.Outcomes {
			q, ok := o.Quote(book)
			if !ok {
				continue
			}

			ev, err := analysis.CalculateEV(fair[i], q.OddsDecimal)
			if err != nil {
				return nil, err
			}
			if !analysis.Qualifies(ev, q.Book, sharp.Books) {
				continue
			}

			stake := analysis.KellyStake(fair[i], q.OddsDecimal, s.cfg.Bankroll, s.cfg.KellyFraction)

			opps = append(opps, analysis.BetOpportunity{
				MatchName:           m.MatchName,
				Sport:               m.Sport,
				Market:              m.DisplayName(o),
				Selection:           o.Name,
				TargetBook:          q.BookTitle,
				TargetOddsAmerican:  q.OddsAmerican,
				TargetOddsDecimal:   q.OddsDecimal,
				SharpBook:           sharp.PrimaryTitle,
				SharpOddsDecimal:    append([]float64(nil), sharp.PrimaryDecimal...),
				FairProb:            fair[i],
				EVPercent:           ev,
				KellyFraction:       stake.Fraction,
				KellyStakeSuggested: stake.Amount,
				Timestamp:           ts,
				EventID:             m.EventID,
				BookKey:             q.Book,
			})
		}
	}

	return opps, nil
}

// Parlay scans sport and composes a ticket for targetBook. A nil
// recommendation means no ticket reaches minOdds. An invalid minOdds fails
// with odds.ErrInvalidOdds before the feed is called.
func (s *Scanner) Parlay(ctx context.Context, sport, targetBook string, minOdds float64) (*analysis.ParlayRecommendation, error) {
	if _, err := analysis.MinOddsThreshold(minOdds); err != nil {
		return nil, err
	}

	res, err := s.Scan(ctx, sport)
	if err != nil {
		return nil, err
	}
	return s.ComposeParlay(res, targetBook, minOdds)
}

// ComposeParlay builds a ticket for targetBook from an existing scan result
// without calling the feed again.
func (s *Scanner) ComposeParlay(res ScanResult, targetBook string, minOdds float64) (*analysis.ParlayRecommendation, error) {
	rec, err := s.composer.Compose(res.Opportunities, targetBook, minOdds)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		slog.Info("Parlay composed",
			"scan", res.ScanID,
			"book", rec.Book,
			"legs", len(rec.Legs),
			"odds", rec.TotalOddsAmerican)
	}
	return rec, nil
}

// Watch scans each sport every interval until ctx is cancelled, handing every
// result to fn. The first round runs immediately.
func (s *Scanner) Watch(ctx context.Context, sports []string, interval time.Duration, fn func(ScanResult, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Starting scan loop", "sports", len(sports), "interval", interval)

	for {
		for _, sport := range sports {
			if ctx.Err() != nil {
				break
			}
			fn(s.Scan(ctx, sport))
		}

		select {
		case <-ctx.Done():
			slog.Info("Scan loop stopped")
			return
		case <-ticker.C:
		}
	}
}
