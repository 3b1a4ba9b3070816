package analysis

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBetOpportunityJSON(t *testing.T) {
	opp := BetOpportunity{
		MatchName:           "Los Angeles Lakers vs Boston Celtics",
		Sport:               "basketball_nba",
		Market:              "Moneyline",
		Selection:           "Los Angeles Lakers",
		TargetBook:          "FanDuel",
		TargetOddsAmerican:  -105,
		TargetOddsDecimal:   1.952380952,
		SharpBook:           "Pinnacle",
		SharpOddsDecimal:    []float64{1.869158878, 2.05},
		FairProb:            0.523012345,
		EVPercent:           2.1143987,
		KellyFraction:       0.0055555,
		KellyStakeSuggested: 5.55555,
		Timestamp:           time.Date(2026, 1, 5, 19, 0, 0, 0, time.UTC),
		EventID:             "evt-1",
		BookKey:             "fanduel",
	}

	data, err := json.Marshal(opp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]any{
		"match_name":            "Los Angeles Lakers vs Boston Celtics",
		"sport":                 "basketball_nba",
		"market":                "Moneyline",
		"selection":             "Los Angeles Lakers",
		"target_book":           "FanDuel",
		"target_odds_american":  -105.0,
		"target_odds_decimal":   1.952,
		"sharp_book":            "Pinnacle",
		"fair_prob":             0.523,
		"ev_percent":            2.11,
		"kelly_fraction":        0.0056,
		"kelly_stake_suggested": 5.56,
		"timestamp":             "2026-01-05T19:00:00Z",
	}
	for key, val := range want {
		if raw[key] != val {
			t.Errorf("%s = %v, want %v", key, raw[key], val)
		}
	}

	sharp := raw["sharp_odds_decimal"].([]any)
	if len(sharp) != 2 || sharp[0].(float64) != 1.869 || sharp[1].(float64) != 2.05 {
		t.Errorf("sharp_odds_decimal = %v", sharp)
	}

	if _, ok := raw["EventID"]; ok {
		t.Error("internal fields must not be serialized")
	}
	if len(raw) != 14 {
		t.Errorf("expected 14 fields, got %d: %s", len(raw), data)
	}

	// Rounding is display only
	if opp.EVPercent != 2.1143987 {
		t.Error("MarshalJSON must not mutate the opportunity")
	}
}
