package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/api"
	"value-bet-finder/internal/portfolio"
)

// Query parameter defaults for /ev/parlay.
const (
	DefaultParlayBook  = "FanDuel"
	DefaultParlaySport = "basketball_nba"
	DefaultMinOdds     = 20.0
)

const maxBetBodyBytes = 64 << 10

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "active",
		"system": "Value Bet Finder v1",
	})
}

// handleHealth reports healthy unless the bet store is configured and
// unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.store.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "value-bet-finder",
	})
}

func (s *Server) handleSports(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, api.SupportedSports)
}

// handleFeed returns the +EV opportunities for ?sport=, sorted by EV.
// Unknown or missing sports give an empty array.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	sport := r.URL.Query().Get("sport")

	res, err := s.scanner.Scan(r.Context(), sport)
	if err != nil {
		respondScanError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, res.Opportunities)
}

// handleParlay composes a ticket for ?target_book= reaching ?min_odds=
// (hundreds of American odds). Replies null when no ticket qualifies.
func (s *Server) handleParlay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	book := q.Get("target_book")
	if book == "" {
		book = DefaultParlayBook
	}

	sport := q.Get("sport")
	if sport == "" {
		sport = DefaultParlaySport
	}

	minOdds := DefaultMinOdds
	if v := q.Get("min_odds"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "min_odds must be a number", err)
			return
		}
		minOdds = f
	}
	if _, err := analysis.MinOddsThreshold(minOdds); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	rec, err := s.scanner.Parlay(r.Context(), sport, book, minOdds)
	if err != nil {
		respondScanError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSaveBet(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "bet storage is not configured", nil)
		return
	}

	var bet portfolio.SavedBet
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBetBodyBytes))
	if err := dec.Decode(&bet); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	bet.ID = 0

	saved, err := s.store.SaveBet(r.Context(), bet)
	if errors.Is(err, portfolio.ErrInvalidBet) {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save bet", err)
		return
	}

	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "bet storage is not configured", nil)
		return
	}

	bets, err := s.store.ListBets(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve bets", err)
		return
	}
	if bets == nil {
		bets = []portfolio.SavedBet{}
	}

	respondJSON(w, http.StatusOK, bets)
}

func (s *Server) handleGetBet(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "bet storage is not configured", nil)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "bet id must be a positive integer", nil)
		return
	}

	bet, err := s.store.GetBet(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve bet", err)
		return
	}
	if bet == nil {
		respondError(w, http.StatusNotFound, "bet not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, bet)
}

func respondScanError(w http.ResponseWriter, err error) {
	if errors.Is(err, api.ErrUpstreamFeed) {
		respondError(w, http.StatusBadGateway, "odds feed unavailable", err)
		return
	}
	respondError(w, http.StatusInternalServerError, "scan failed", err)
}
