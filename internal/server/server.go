// Package server exposes the scanner and the saved-bet store over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/engine"
	"value-bet-finder/internal/portfolio"
)

// Scanner runs scans on demand.
type Scanner interface {
	Scan(ctx context.Context, sport string) (engine.ScanResult, error)
	Parlay(ctx context.Context, sport, targetBook string, minOdds float64) (*analysis.ParlayRecommendation, error)
}

// BetStore persists saved bets.
type BetStore interface {
	SaveBet(ctx context.Context, bet portfolio.SavedBet) (portfolio.SavedBet, error)
	ListBets(ctx context.Context) ([]portfolio.SavedBet, error)
	GetBet(ctx context.Context, id int64) (*portfolio.SavedBet, error)
	Ping(ctx context.Context) error
}

// Metrics records served requests and exposes the scrape endpoint.
type Metrics interface {
	RecordRequest(route string, code int, d time.Duration)
	Handler() http.Handler
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Server holds the handler dependencies.
type Server struct {
	scanner Scanner
	store   BetStore
	metrics Metrics
	opts    Options
}

// New creates a Server. store and metrics may be nil; bet endpoints then
// answer 503 and /metrics is not mounted.
func New(scanner Scanner, store BetStore, metrics Metrics, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Server{scanner: scanner, store: store, metrics: metrics, opts: opts}
}

// Routes builds the chi router with middleware and every endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.opts.RequestTimeout))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/sports", s.handleSports)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/ev/feed", s.handleFeed)
	r.Get("/ev/parlay", s.handleParlay)

	r.Post("/bets", s.handleSaveBet)
	r.Get("/history", s.handleHistory)
	r.Get("/history/{id}", s.handleGetBet)

	return r
}
