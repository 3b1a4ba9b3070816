package market

import (
	"fmt"
	"strings"

	"value-bet-finder/internal/odds"
)

// DefaultSharpBook is the reference book for fair probabilities.
const DefaultSharpBook = "pinnacle"

// SharpPrices is the sharp side of a market: implied probabilities per
// outcome, averaged across every configured sharp book that quotes all
// outcomes.
type SharpPrices struct {
	Primary        string    // key of the first complete sharp book
	PrimaryTitle   string    // display name of Primary
	PrimaryDecimal []float64 // primary book's decimal odds, in outcome order
	Books          []string  // every complete sharp book used
	Implied        []float64 // averaged implied probability, in outcome order
}

// IsSharp reports whether book is one of sharpBooks.
func IsSharp(book string, sharpBooks []string) bool {
	for _, s := range sharpBooks {
		if strings.EqualFold(book, s) {
			return true
		}
	}
	return false
}

// SharpImplied collects the sharp reference prices for m. Sharp books missing
// any outcome are ignored; if none is complete the market cannot be priced and
// odds.ErrInsufficientMarketData is returned.
func SharpImplied(m Market, sharpBooks []string) (SharpPrices, error) {
	var sp SharpPrices
	if len(m.Outcomes) < 2 {
		return sp, fmt.Errorf("%w: %d outcome(s)", odds.ErrInsufficientMarketData, len(m.Outcomes))
	}

	totals := make([]float64, len(m.Outcomes))

	for _, sharp := range sharpBooks {
		decimals, ok := completeQuotes(m, sharp)
		if !ok {
			continue
		}

		for i, d := range decimals {
			p, err := odds.DecimalToImpliedProb(d)
			if err != nil {
				return SharpPrices{}, err
			}
			totals[i] += p
		}

		q, _ := m.Outcomes[0].Quote(sharp)
		key := q.Book
		if sp.Primary == "" {
			sp.Primary = key
			sp.PrimaryTitle = m.BookTitle(key)
			sp.PrimaryDecimal = decimals
		}
		sp.Books = append(sp.Books, key)
	}

	if len(sp.Books) == 0 {
		return SharpPrices{}, fmt.Errorf("%w: no sharp book (%s) quotes every outcome",
			odds.ErrInsufficientMarketData, strings.Join(sharpBooks, ","))
	}

	sp.Implied = make([]float64, len(totals))
	for i, t := range totals {
		sp.Implied[i] = t / float64(len(sp.Books))
	}
	return sp, nil
}

func completeQuotes(m Market, key string) ([]float64, bool) {
	decimals := make([]float64, len(m.Outcomes))
	for i, o := range m.Outcomes {
		q, ok := o.Quote(key)
		if !ok {
			return nil, false
		}
		decimals[i] = q.OddsDecimal
	}
	return decimals, true
}
