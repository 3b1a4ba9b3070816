package alerts

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"value-bet-finder/internal/analysis"
)

// Notifier logs newly found opportunities, suppressing repeats of the same
// quote inside the cooldown window.
type Notifier struct {
	mu         sync.Mutex
	lastAlerts map[string]time.Time // Dedupe alerts
	cooldown   time.Duration        // Minimum time between same alerts
	logger     *slog.Logger

	now func() time.Time
}

// NewNotifier creates a new notifier. A nil logger uses slog.Default().
func NewNotifier(cooldown time.Duration, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		lastAlerts: make(map[string]time.Time),
		cooldown:   cooldown,
		logger:     logger,
		now:        time.Now,
	}
}

// checkCooldown reports whether key was alerted within the cooldown, and
// records the alert when it was not.
func (n *Notifier) checkCooldown(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if lastTime, ok := n.lastAlerts[key]; ok && now.Sub(lastTime) < n.cooldown {
		return true
	}
	n.lastAlerts[key] = now
	return false
}

// AlertOpportunity logs a +EV quote. It returns false when the alert was
// suppressed.
func (n *Notifier) AlertOpportunity(opp analysis.BetOpportunity) bool {
	key := opportunityKey(opp)
	if n.checkCooldown(key) {
		return false
	}

	n.logger.Info("+EV BET",
		"match", opp.MatchName,
		"market", opp.Market,
		"selection", opp.Selection,
		"book", opp.TargetBook,
		"odds", opp.TargetOddsAmerican,
		"fair", fmt.Sprintf("%.1f%%", opp.FairProb*100),
		"ev", fmt.Sprintf("%.2f%%", opp.EVPercent),
		"stake", fmt.Sprintf("$%.2f", opp.KellyStakeSuggested))
	return true
}

// AlertOpportunities alerts each opportunity and returns how many were new.
func (n *Notifier) AlertOpportunities(opps []analysis.BetOpportunity) int {
	sent := 0
	for _, opp := range opps {
		if n.AlertOpportunity(opp) {
			sent++
		}
	}
	return sent
}

// AlertParlay logs a parlay recommendation once per distinct ticket.
func (n *Notifier) AlertParlay(rec *analysis.ParlayRecommendation) bool {
	if rec == nil {
		return false
	}

	legs := make([]string, len(rec.Legs))
	for i, leg := range rec.Legs {
		legs[i] = leg.Selection()
	}
	if n.checkCooldown("parlay-" + rec.Book + "-" + strings.Join(legs, "|")) {
		return false
	}

	n.logger.Info("PARLAY",
		"book", rec.Book,
		"legs", strings.Join(legs, ", "),
		"odds", rec.TotalOddsAmerican,
		"ev", fmt.Sprintf("%.2f%%", rec.ExpectedValueCombined))
	return true
}

// CleanupOldAlerts removes alert records older than maxAge.
func (n *Notifier) CleanupOldAlerts(maxAge time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := n.now().Add(-maxAge)
	for key, t := range n.lastAlerts {
		if t.Before(cutoff) {
			delete(n.lastAlerts, key)
		}
	}
}

// The price is part of the key so a line move alerts again.
func opportunityKey(opp analysis.BetOpportunity) string {
	return fmt.Sprintf("%s-%s-%s-%s-%d", opp.EventID, opp.Market, opp.Selection, opp.BookKey, opp.TargetOddsAmerican)
}
