package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"value-bet-finder/internal/odds"
)

// ParlayNote accompanies every recommended ticket.
const ParlayNote = "Parlay built from uncorrelated +EV bets. Variance is high."

// Composer builds a single parlay ticket for targetBook from a scored
// opportunity set. A nil recommendation with a nil error means no ticket
// satisfies the constraints.
type Composer interface {
	Compose(opps []BetOpportunity, targetBook string, minOdds float64) (*ParlayRecommendation, error)
}

// GreedyComposer takes the highest-EV leg from each distinct match at the
// target book, in descending EV order, multiplying odds until the combined
// price reaches the minimum.
//
// This is a heuristic, not an optimal subset search: a lower-EV leg with
// longer odds can reach the target with fewer legs, and the greedy pass will
// not find it. In exchange it is deterministic and costs O(n log n).
type GreedyComposer struct{}

// Compose implements Composer. minOdds is expressed in hundreds of American
// odds: 20 means +2000 (decimal 21.0).
func (GreedyComposer) Compose(opps []BetOpportunity, targetBook string, minOdds float64) (*ParlayRecommendation, error) {
	threshold, err := MinOddsThreshold(minOdds)
	if err != nil {
		return nil, err
	}

	candidates := make([]*BetOpportunity, 0, len(opps))
	for i := range opps {
		if opps[i].EVPercent > 0 && bookMatches(opps[i].TargetBook, targetBook) {
			candidates = append(candidates, &opps[i])
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EVPercent > candidates[j].EVPercent
	})

	var legs []ParlayLeg
	usedMatches := make(map[string]bool)
	combined := 1.0

	for _, opp := range candidates {
		// One leg per event keeps legs independent
		key := matchKey(opp)
		if usedMatches[key] {
			continue
		}
		usedMatches[key] = true

		legs = append(legs, NewParlayLeg(opp))
		combined *= opp.TargetOddsDecimal

		if combined >= threshold {
			break
		}
	}

	if combined < threshold {
		return nil, nil
	}

	american, err := odds.DecimalToAmerican(combined)
	if err != nil {
		return nil, err
	}

	evProduct := 1.0
	for _, leg := range legs {
		evProduct *= 1 + leg.EVPercent()/100
	}

	return &ParlayRecommendation{
		Book:                  targetBook,
		TotalOddsAmerican:     american,
		TotalOddsDecimal:      combined,
		ExpectedValueCombined: (evProduct - 1) * 100,
		Legs:                  legs,
		Note:                  ParlayNote,
	}, nil
}

// MinOddsThreshold converts a min_odds parameter (hundreds of American odds)
// to the combined decimal price a ticket must reach. +N American is decimal
// 1 + N/100, so the threshold is 1 + min_odds rounded to whole American odds.
// It stays in float64 so very large targets cannot wrap.
func MinOddsThreshold(minOdds float64) (float64, error) {
	if math.IsNaN(minOdds) || math.IsInf(minOdds, 0) || minOdds < 1 {
		return 0, fmt.Errorf("%w: min_odds must be >= 1 (+100), got %v", odds.ErrInvalidOdds, minOdds)
	}
	return 1 + math.Round(minOdds*100)/100, nil
}

// bookMatches compares book names case-insensitively, letting "FanDuel" match
// "FanDuel Sportsbook" in either direction.
func bookMatches(offered, target string) bool {
	a, b := strings.ToLower(offered), strings.ToLower(target)
	if a == "" || b == "" {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func matchKey(opp *BetOpportunity) string {
	if opp.EventID != "" {
		return opp.EventID
	}
	return opp.MatchName
}
