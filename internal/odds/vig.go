package odds

import (
	"fmt"
	"math"
)

// Devigger strips the bookmaker margin from one market's implied
// probabilities, returning fair probabilities in the same outcome order.
type Devigger interface {
	Fair(implied []float64) ([]float64, error)
	Name() string
}

// Method names accepted by NewDevigger.
const (
	MethodMultiplicative = "multiplicative"
	MethodPower          = "power"
)

// NewDevigger returns the Devigger for a method name.
func NewDevigger(method string) (Devigger, error) {
	switch method {
	case "", MethodMultiplicative:
		return Multiplicative{}, nil
	case MethodPower:
		return Power{}, nil
	default:
		return nil, fmt.Errorf("unknown de-vig method %q", method)
	}
}

// Multiplicative removes vig proportionally:
//
//	fair[o] = implied[o] / sum(implied)
//
// Exact for two-way markets, a standard approximation for n-way markets.
type Multiplicative struct{}

// Name implements Devigger.
func (Multiplicative) Name() string { return MethodMultiplicative }

// Fair implements Devigger.
func (Multiplicative) Fair(implied []float64) ([]float64, error) {
	if err := checkImplied(implied); err != nil {
		return nil, err
	}

	var total float64
	for _, p := range implied {
		total += p
	}

	fair := make([]float64, len(implied))
	for i, p := range implied {
		fair[i] = p / total
	}
	return fair, nil
}

// Power removes vig using the power method.
// This accounts for the favorite-longshot bias: longshots are systematically overbet.
// Finds k such that sum(p_i^k) = 1, then fair_i = p_i^k.
// This deflates longshot probabilities more than favorites.
type Power struct{}

// Name implements Devigger.
func (Power) Name() string { return MethodPower }

// Fair implements Devigger.
func (Power) Fair(implied []float64) ([]float64, error) {
	if err := checkImplied(implied); err != nil {
		return nil, err
	}

	// Already fair: nothing to remove
	if math.Abs(sum(implied)-1.0) < 1e-12 {
		return append([]float64(nil), implied...), nil
	}

	k := findPowerExponent(implied)

	fair := make([]float64, len(implied))
	for i, p := range implied {
		fair[i] = math.Pow(p, k)
	}

	// Bisection lands within tolerance; renormalize so the sum is exact
	total := sum(fair)
	for i := range fair {
		fair[i] /= total
	}
	return fair, nil
}

// findPowerExponent finds k such that sum(p_i^k) = 1 using bisection search
// For implied probabilities (0 < p < 1), higher k reduces p^k
// So for overround markets (sum > 1), k will be > 1 to reduce the sum
// For underround markets (sum < 1), k will be < 1 to increase the sum
func findPowerExponent(probs []float64) float64 {
	const (
		tolerance = 1e-12
		maxIters  = 200
	)

	low, high := 0.01, 10.0

	for i := 0; i < maxIters; i++ {
		mid := (low + high) / 2
		currentSum := 0.0
		for _, p := range probs {
			currentSum += math.Pow(p, mid)
		}

		if math.Abs(currentSum-1.0) < tolerance {
			return mid
		}

		if currentSum > 1 {
			low = mid
		} else {
			high = mid
		}
	}

	return (low + high) / 2
}

func checkImplied(implied []float64) error {
	if len(implied) < 2 {
		return fmt.Errorf("%w: need at least 2 outcomes, got %d", ErrInsufficientMarketData, len(implied))
	}
	for i, p := range implied {
		if math.IsNaN(p) || p <= 0 || p >= 1 {
			return fmt.Errorf("%w: implied probability %v at outcome %d outside (0,1)", ErrInvalidMarketData, p, i)
		}
	}
	return nil
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
