package analysis

import (
	"encoding/json"
	"math"
	"time"
)

// BetOpportunity is a +EV price offered by a target book, scored against the
// sharp book's fair probability. JSON field names are consumed by the
// dashboard and must not change.
type BetOpportunity struct {
	MatchName string `json:"match_name"`
	Sport     string `json:"sport"`
	Market    string `json:"market"`    // e.g. "Moneyline", "Spread -3.5"
	Selection string `json:"selection"` // e.g. "Lakers", "Over"

	// The book we are betting on
	TargetBook         string  `json:"target_book"`
	TargetOddsAmerican int     `json:"target_odds_american"`
	TargetOddsDecimal  float64 `json:"target_odds_decimal"`

	// The sharp reference
	SharpBook        string    `json:"sharp_book"`
	SharpOddsDecimal []float64 `json:"sharp_odds_decimal"` // primary sharp, one per outcome

	FairProb            float64   `json:"fair_prob"`
	EVPercent           float64   `json:"ev_percent"`
	KellyFraction       float64   `json:"kelly_fraction"`
	KellyStakeSuggested float64   `json:"kelly_stake_suggested"`
	Timestamp           time.Time `json:"timestamp"`

	EventID string `json:"-"`
	BookKey string `json:"-"`
}

// MarshalJSON rounds numeric fields for display. Values held in memory stay
// unrounded so sorting and parlay maths are unaffected.
func (o BetOpportunity) MarshalJSON() ([]byte, error) {
	type plain BetOpportunity
	r := plain(o)
	r.TargetOddsDecimal = Round(o.TargetOddsDecimal, 3)
	r.FairProb = Round(o.FairProb, 4)
	r.EVPercent = Round(o.EVPercent, 2)
	r.KellyFraction = Round(o.KellyFraction, 4)
	r.KellyStakeSuggested = Round(o.KellyStakeSuggested, 2)
	r.SharpOddsDecimal = make([]float64, len(o.SharpOddsDecimal))
	for i, d := range o.SharpOddsDecimal {
		r.SharpOddsDecimal[i] = Round(d, 3)
	}
	return json.Marshal(r)
}

// ParlayLeg is a read-only view of the opportunity that produced it.
type ParlayLeg struct {
	opp *BetOpportunity
}

// NewParlayLeg wraps opp without copying it.
func NewParlayLeg(opp *BetOpportunity) ParlayLeg {
	return ParlayLeg{opp: opp}
}

// Opportunity returns the underlying opportunity.
func (l ParlayLeg) Opportunity() *BetOpportunity { return l.opp }

// MatchName returns the leg's match, "Home vs Away".
func (l ParlayLeg) MatchName() string { return l.opp.MatchName }

// Selection returns the outcome backed by the leg.
func (l ParlayLeg) Selection() string { return l.opp.Selection }

// Market returns the market label, e.g. "Moneyline".
func (l ParlayLeg) Market() string { return l.opp.Market }

// OddsAmerican returns the target book's American price.
func (l ParlayLeg) OddsAmerican() int { return l.opp.TargetOddsAmerican }

// OddsDecimal returns the target book's decimal price.
func (l ParlayLeg) OddsDecimal() float64 { return l.opp.TargetOddsDecimal }

// EVPercent returns the leg's expected value in percent.
func (l ParlayLeg) EVPercent() float64 { return l.opp.EVPercent }

// MarshalJSON projects the leg fields of the referenced opportunity.
func (l ParlayLeg) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MatchName    string  `json:"match_name"`
		Sport        string  `json:"sport"`
		Market       string  `json:"market"`
		Selection    string  `json:"selection"`
		OddsAmerican int     `json:"odds_american"`
		OddsDecimal  float64 `json:"odds_decimal"`
		EVPercent    float64 `json:"ev_percent"`
	}{
		MatchName:    l.opp.MatchName,
		Sport:        l.opp.Sport,
		Market:       l.opp.Market,
		Selection:    l.opp.Selection,
		OddsAmerican: l.opp.TargetOddsAmerican,
		OddsDecimal:  Round(l.opp.TargetOddsDecimal, 3),
		EVPercent:    Round(l.opp.EVPercent, 2),
	})
}

// ParlayRecommendation is a combined ticket at one book.
type ParlayRecommendation struct {
	Book                  string      `json:"book"`
	TotalOddsAmerican     int         `json:"total_odds_american"`
	TotalOddsDecimal      float64     `json:"total_odds_decimal"`
	ExpectedValueCombined float64     `json:"expected_value_combined"`
	Legs                  []ParlayLeg `json:"legs"`
	Note                  string      `json:"note"`
}

// MarshalJSON rounds the combined odds and EV for display.
func (p ParlayRecommendation) MarshalJSON() ([]byte, error) {
	type plain ParlayRecommendation
	r := plain(p)
	r.TotalOddsDecimal = Round(p.TotalOddsDecimal, 2)
	r.ExpectedValueCombined = Round(p.ExpectedValueCombined, 2)
	return json.Marshal(r)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
