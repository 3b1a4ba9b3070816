// Package market turns feed events into markets: the outcomes of one line
// with every book's quote for each outcome.
package market

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"value-bet-finder/internal/api"
	"value-bet-finder/internal/odds"
)

// Feed market keys
const (
	KeyMoneyline = "h2h"
	KeySpreads   = "spreads"
	KeyTotals    = "totals"
)

// Quote is one book's price on one outcome.
type Quote struct {
	Book         string // feed key, e.g. "pinnacle"
	BookTitle    string // display name, e.g. "Pinnacle"
	Outcome      string
	Point        *float64
	OddsAmerican int
	OddsDecimal  float64
}

// Outcome is a selection within a market with the quotes offered on it, in
// book order.
type Outcome struct {
	Name   string
	Point  *float64
	Quotes []Quote
}

// Quote returns the quote from the book with the given key, matched
// case-insensitively.
func (o Outcome) Quote(key string) (Quote, bool) {
	for _, q := range o.Quotes {
		if strings.EqualFold(q.Book, key) {
			return q, true
		}
	}
	return Quote{}, false
}

// Market is one line of one event. Outcomes keep the order of the first book
// that quoted the line.
type Market struct {
	EventID   string
	Sport     string
	MatchName string
	Key       string
	Outcomes  []Outcome
	books     []book
}

type book struct {
	key   string
	title string
}

// Books returns the keys of every book quoting at least one outcome, in the
// order they appeared in the feed.
func (m Market) Books() []string {
	keys := make([]string, len(m.books))
	for i, b := range m.books {
		keys[i] = b.key
	}
	return keys
}

// BookTitle returns the display name for a book key, or the key if unknown.
func (m Market) BookTitle(key string) string {
	for _, b := range m.books {
		if strings.EqualFold(b.key, key) {
			return b.title
		}
	}
	return key
}

// DisplayName is the market label shown with an outcome: "Moneyline",
// "Spread -3.5" or "Total 210.5".
func (m Market) DisplayName(o Outcome) string {
	switch m.Key {
	case KeyMoneyline:
		return "Moneyline"
	case KeySpreads:
		return "Spread " + formatPoint(o.Point)
	case KeyTotals:
		return "Total " + formatPoint(o.Point)
	default:
		return m.Key
	}
}

func formatPoint(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// Build groups every book's quotes into markets. Books quoting the same
// outcomes at the same points share a market; a book quoting a different line
// starts a new one. A book quoting only some outcomes of a line joins the line
// that contains them. Markets are returned in feed order.
//
// A quote with invalid American odds is a feed defect and fails the whole
// build with odds.ErrInvalidOdds.
func Build(events []api.Event) ([]Market, error) {
	var markets []Market

	for _, e := range events {
		lines := eventLines(e)
		first := len(markets)

		for _, l := range lines {
			m := Market{
				EventID:   e.ID,
				Sport:     e.SportKey,
				MatchName: e.MatchName(),
				Key:       l.key,
				Outcomes:  make([]Outcome, len(l.outcomes)),
			}
			for i, o := range l.outcomes {
				m.Outcomes[i] = Outcome{Name: o.Name, Point: o.Point}
			}
			markets = append(markets, m)
		}

		for _, b := range e.Bookmakers {
			for _, mo := range b.Markets {
				if len(mo.Outcomes) == 0 {
					continue
				}
				pos := first + lineFor(lines, mo)
				if err := addQuotes(&markets[pos], b, mo); err != nil {
					return nil, fmt.Errorf("event %s: %w", e.ID, err)
				}
			}
		}
	}

	return markets, nil
}

// line is one distinct outcome set quoted for an event.
type line struct {
	sig      string
	key      string
	pairs    map[string]bool
	outcomes []api.Outcome // order of the first book quoting it
}

func (l line) contains(other line) bool {
	if l.key != other.key || len(other.pairs) > len(l.pairs) {
		return false
	}
	for p := range other.pairs {
		if !l.pairs[p] {
			return false
		}
	}
	return true
}

// eventLines returns the maximal lines of e in order of first appearance:
// a line whose outcomes are a strict subset of another line is dropped.
func eventLines(e api.Event) []line {
	var all []line
	seen := make(map[string]bool)
	for _, b := range e.Bookmakers {
		for _, mo := range b.Markets {
			if len(mo.Outcomes) == 0 {
				continue
			}
			l := newLine(mo)
			if seen[l.sig] {
				continue
			}
			seen[l.sig] = true
			all = append(all, l)
		}
	}

	var kept []line
	for i, l := range all {
		partial := false
		for j, other := range all {
			if i != j && len(other.pairs) > len(l.pairs) && other.contains(l) {
				partial = true
				break
			}
		}
		if !partial {
			kept = append(kept, l)
		}
	}
	return kept
}

// lineFor returns the index in lines of the line mo quotes: the exact line if
// kept, else the first line containing it. Every quoted outcome set is in at
// least one maximal line.
func lineFor(lines []line, mo api.MarketOdds) int {
	l := newLine(mo)
	for i, cand := range lines {
		if cand.sig == l.sig {
			return i
		}
	}
	for i, cand := range lines {
		if cand.contains(l) {
			return i
		}
	}
	return 0
}

func newLine(mo api.MarketOdds) line {
	l := line{key: mo.Key, pairs: make(map[string]bool, len(mo.Outcomes)), outcomes: mo.Outcomes}
	parts := make([]string, 0, len(mo.Outcomes))
	for _, o := range mo.Outcomes {
		p := o.Name + "|" + formatPoint(o.Point)
		l.pairs[p] = true
		parts = append(parts, p)
	}
	sort.Strings(parts)
	l.sig = mo.Key + "#" + strings.Join(parts, ";")
	return l
}

func addQuotes(m *Market, b api.Bookmaker, mo api.MarketOdds) error {
	title := b.Title
	if title == "" {
		title = b.Key
	}

	for _, o := range mo.Outcomes {
		dec, err := odds.AmericanToDecimal(o.Price)
		if err != nil {
			return fmt.Errorf("%s %s %q: %w", b.Key, mo.Key, o.Name, err)
		}

		q := Quote{
			Book:         b.Key,
			BookTitle:    title,
			Outcome:      o.Name,
			Point:        o.Point,
			OddsAmerican: o.Price,
			OddsDecimal:  dec,
		}

		for i := range m.Outcomes {
			out := &m.Outcomes[i]
			if out.Name != o.Name || !samePoint(out.Point, o.Point) {
				continue
			}
			if _, dup := out.Quote(b.Key); !dup {
				out.Quotes = append(out.Quotes, q)
			}
			break
		}
	}

	for _, known := range m.books {
		if strings.EqualFold(known.key, b.Key) {
			return nil
		}
	}
	m.books = append(m.books, book{key: b.Key, title: title})
	return nil
}

func samePoint(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
