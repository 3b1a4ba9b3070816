package odds

import "errors"

var (
	// ErrInvalidOdds marks malformed odds input: zero American odds or decimal
	// odds at or below 1.0. It indicates a data defect and is never swallowed.
	ErrInvalidOdds = errors.New("invalid odds")

	// ErrInvalidMarketData marks probabilities outside (0,1).
	ErrInvalidMarketData = errors.New("invalid market data")

	// ErrInsufficientMarketData marks a market the sharp book does not fully
	// price, or one with fewer than two outcomes.
	ErrInsufficientMarketData = errors.New("insufficient market data")
)
