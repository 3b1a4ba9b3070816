// Command evscan prints the current +EV opportunities for one or all
// supported sports to the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"value-bet-finder/internal/alerts"
	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/api"
	"value-bet-finder/internal/app"
	"value-bet-finder/internal/config"
	"value-bet-finder/internal/engine"
)

func main() {
	sport := flag.String("sport", "basketball_nba", "sport key, or \"all\"")
	book := flag.String("book", "", "only show opportunities at this book")
	parlay := flag.String("parlay", "", "compose a parlay at this book")
	minOdds := flag.Float64("min-odds", 20, "parlay target in hundreds of American odds")
	interval := flag.Duration("interval", 0, "rescan on this interval; 0 scans once")
	cooldown := flag.Duration("cooldown", 30*time.Minute, "watch mode: minimum time before re-alerting the same quote")
	flag.Parse()

	cfg := config.Load()
	app.NewLogger(cfg)

	if err := config.Validate(cfg); err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	sports := []string{*sport}
	if *sport == "all" {
		sports = api.SportKeys()
	} else if !api.IsSupported(*sport) {
		fmt.Fprintf(os.Stderr, "unsupported sport %q, want one of: %s\n", *sport, strings.Join(api.SportKeys(), ", "))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feed, closeFeed, err := app.NewFeed(ctx, cfg)
	if err != nil {
		slog.Error("Odds feed unavailable", "err", err)
		os.Exit(1)
	}
	defer closeFeed()

	scanner, err := app.NewScanner(cfg, feed, nil)
	if err != nil {
		slog.Error("Building scanner failed", "err", err)
		os.Exit(1)
	}

	if *interval > 0 {
		notifier := alerts.NewNotifier(*cooldown, slog.Default())
		scanner.Watch(ctx, sports, *interval, func(res engine.ScanResult, err error) {
			if err != nil {
				slog.Error("Scan failed", "err", err)
				return
			}
			sent := notifier.AlertOpportunities(filterBook(res.Opportunities, *book))
			slog.Info("Scan complete", "sport", res.Sport, "opportunities", len(res.Opportunities), "new", sent)

			if *parlay != "" && res.Sport == sports[0] {
				rec, err := scanner.ComposeParlay(res, *parlay, *minOdds)
				if err != nil {
					slog.Error("Parlay failed", "err", err)
					return
				}
				notifier.AlertParlay(rec)
			}
			notifier.CleanupOldAlerts(2 * *cooldown)
		})
		return
	}

	results, err := scanAll(ctx, scanner, sports)
	if err != nil {
		slog.Error("Scan failed", "err", err)
		os.Exit(1)
	}
	printResults(os.Stdout, results, *book)

	if *parlay != "" {
		rec, err := scanner.ComposeParlay(results[0], *parlay, *minOdds)
		if err != nil {
			slog.Error("Parlay failed", "err", err)
			os.Exit(1)
		}
		printParlay(os.Stdout, rec, *parlay, *minOdds)
	}
}

// scanAll scans every sport concurrently. Results keep the order of sports.
func scanAll(ctx context.Context, scanner *engine.Scanner, sports []string) ([]engine.ScanResult, error) {
	results := make([]engine.ScanResult, len(sports))

	g, ctx := errgroup.WithContext(ctx)
	for i, sport := range sports {
		i, sport := i, sport
		g.Go(func() error {
			res, err := scanner.Scan(ctx, sport)
			if err != nil {
				if errors.Is(err, api.ErrUpstreamFeed) && len(sports) > 1 {
					// One dead sport should not hide the others
					slog.Warn("Skipping sport", "sport", sport, "err", err)
					results[i] = engine.ScanResult{Sport: sport}
					return nil
				}
				return fmt.Errorf("scan %s: %w", sport, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printResults(w io.Writer, results []engine.ScanResult, book string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SPORT\tMATCH\tBOOK\tMARKET\tBET\tODDS\tEV%\tSTAKE")

	found := 0
	for _, res := range results {
		for _, opp := range filterBook(res.Opportunities, book) {
			found++
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%+d\t%.2f\t$%.2f\n",
				res.Sport, opp.MatchName, opp.TargetBook, opp.Market, opp.Selection,
				opp.TargetOddsAmerican, opp.EVPercent, opp.KellyStakeSuggested)
		}
		for _, warn := range res.Warnings {
			slog.Debug("Skipped market", "sport", res.Sport, "warning", warn.String())
		}
	}
	tw.Flush()

	fmt.Fprintf(w, "\nScan complete at %s. Found %d opportunities.\n", time.Now().Format(time.Kitchen), found)
}

func printParlay(w io.Writer, rec *analysis.ParlayRecommendation, book string, minOdds float64) {
	if rec == nil {
		fmt.Fprintf(w, "\nNo %s parlay reaches %+.0f.\n", book, minOdds*100)
		return
	}

	fmt.Fprintf(w, "\n%s parlay %+d (%.2f), combined EV %.2f%%\n", rec.Book, rec.TotalOddsAmerican, rec.TotalOddsDecimal, rec.ExpectedValueCombined)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, leg := range rec.Legs {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%+d\t%.2f%%\n", leg.MatchName(), leg.Market(), leg.Selection(), leg.OddsAmerican(), leg.EVPercent())
	}
	tw.Flush()
	fmt.Fprintln(w, rec.Note)
}

// filterBook keeps the opportunities at book, matched by title prefix or key.
// An empty book keeps everything.
func filterBook(opps []analysis.BetOpportunity, book string) []analysis.BetOpportunity {
	if book == "" {
		return opps
	}
	book = strings.ToLower(book)

	var out []analysis.BetOpportunity
	for _, opp := range opps {
		if strings.HasPrefix(strings.ToLower(opp.TargetBook), book) || strings.ToLower(opp.BookKey) == book {
			out = append(out, opp)
		}
	}
	return out
}
