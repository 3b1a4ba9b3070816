package analysis

import (
	"fmt"
	"strings"

	"value-bet-finder/internal/odds"
)

// CalculateEV calculates the expected value of a bet as a percentage of stake
// EV = (trueProb * profit) - ((1 - trueProb) * stake), stake = 1, profit = d - 1
// Simplified: EV% = (fairProb * decimalOdds - 1) * 100
//
// A fair probability of exactly 0 or 1 is a certainty outcome that no real
// market carries, so it is rejected as bad market data.
func CalculateEV(fairProb, decimalOdds float64) (float64, error) {
	if fairProb <= 0 || fairProb >= 1 {
		return 0, fmt.Errorf("%w: fair probability %v outside (0,1)", odds.ErrInvalidMarketData, fairProb)
	}
	if decimalOdds <= 1 {
		return 0, fmt.Errorf("%w: decimal odds must be > 1.0, got %v", odds.ErrInvalidOdds, decimalOdds)
	}

	return (fairProb*decimalOdds - 1) * 100, nil
}

// Qualifies reports whether a scored price belongs in the feed: the edge must
// be strictly positive and the target book must not be one of the books the
// fair probability was derived from.
func Qualifies(evPercent float64, targetBook string, sharpBooks []string) bool {
	if evPercent <= 0 {
		return false
	}
	for _, sharp := range sharpBooks {
		if strings.EqualFold(sharp, targetBook) {
			return false
		}
	}
	return true
}
