package odds

import (
	"fmt"
	"math"
)

// AmericanToDecimal converts American odds to decimal odds
// Example: +150 → 2.50, -150 → 1.667, -110 → 1.909
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("%w: american odds cannot be 0", ErrInvalidOdds)
	}

	if american > 0 {
		// Underdog: profit on a $100 stake
		return 1 + float64(american)/100.0, nil
	}
	// Favorite: stake needed to profit $100
	return 1 + 100.0/math.Abs(float64(american)), nil
}

// DecimalToAmerican converts decimal odds to American odds, rounded to the
// nearest integer. Decimal >= 2.0 maps to positive odds, below 2.0 to negative.
func DecimalToAmerican(decimal float64) (int, error) {
	if math.IsNaN(decimal) || math.IsInf(decimal, 0) || decimal <= 1.0 {
		return 0, fmt.Errorf("%w: decimal odds must be > 1.0, got %v", ErrInvalidOdds, decimal)
	}

	if decimal >= 2.0 {
		return int(math.Round((decimal - 1) * 100)), nil
	}
	return int(math.Round(-100 / (decimal - 1))), nil
}

// DecimalToImpliedProb converts decimal odds to implied probability
// Example: 2.00 → 0.50, 1.50 → 0.667
func DecimalToImpliedProb(decimal float64) (float64, error) {
	if math.IsNaN(decimal) || decimal <= 1.0 {
		return 0, fmt.Errorf("%w: decimal odds must be > 1.0, got %v", ErrInvalidOdds, decimal)
	}
	return 1 / decimal, nil
}

// AmericanToImplied converts American odds to implied probability
// Example: -150 → 0.6 (60%), +150 → 0.4 (40%)
func AmericanToImplied(american int) (float64, error) {
	decimal, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}
	return DecimalToImpliedProb(decimal)
}
