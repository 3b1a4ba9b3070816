package analysis

import "math"

// Defaults used when a caller does not override bankroll or Kelly multiplier.
const (
	DefaultBankroll      = 1000.0
	DefaultKellyFraction = 0.25
)

// Stake is a fractional-Kelly sizing recommendation.
type Stake struct {
	FullKelly float64 // f* before the multiplier, floored at 0
	Fraction  float64 // applied bankroll fraction, in [0, multiplier]
	Amount    float64 // Fraction * bankroll
}

// CalculateKellyDecimal computes the applied Kelly fraction for decimal odds
// Kelly formula: f* = (b*p - q) / b
// where: p = fair probability, q = 1-p, b = decimal odds - 1
//
// fraction scales the result (e.g., 0.25 for quarter Kelly). The result never
// goes negative, so a non-positive edge always sizes to zero regardless of
// whether the caller filtered by EV first.
func CalculateKellyDecimal(fairProb, decimalOdds, fraction float64) float64 {
	if decimalOdds <= 1 || fairProb <= 0 || fairProb >= 1 || fraction <= 0 {
		return 0
	}

	p := fairProb
	q := 1.0 - p
	b := decimalOdds - 1

	kelly := (b*p - q) / b

	kelly = math.Max(0, kelly)
	kelly = math.Min(kelly, 1.0) // Never bet more than 100% of bankroll

	return kelly * fraction
}

// OptimalBetSize returns the dollar amount to bet given bankroll
func OptimalBetSize(bankroll, kellyFraction float64) float64 {
	if bankroll <= 0 || kellyFraction <= 0 {
		return 0
	}
	return bankroll * kellyFraction
}

// KellyStake sizes a bet against bankroll using multiplier-scaled Kelly.
func KellyStake(fairProb, decimalOdds, bankroll, multiplier float64) Stake {
	applied := CalculateKellyDecimal(fairProb, decimalOdds, multiplier)
	if applied <= 0 {
		return Stake{}
	}

	return Stake{
		FullKelly: applied / multiplier,
		Fraction:  applied,
		Amount:    OptimalBetSize(bankroll, applied),
	}
}
