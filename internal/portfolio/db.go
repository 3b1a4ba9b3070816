package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDatabaseURL is a SQLite file in the working directory.
const DefaultDatabaseURL = "./bets.db"

// StatusPending is the status of a newly saved bet.
const StatusPending = "pending"

// ErrInvalidBet is returned when a bet is missing required fields.
var ErrInvalidBet = errors.New("invalid bet")

// SavedBet is a bet the user chose to track.
type SavedBet struct {
	ID              int64     `json:"id"`
	MatchName       string    `json:"match_name"`
	Selection       string    `json:"selection"`
	Odds            float64   `json:"odds"`
	Stake           float64   `json:"stake"`
	PotentialPayout float64   `json:"potential_payout"`
	EVPercent       float64   `json:"ev_percent"`
	Book            string    `json:"book"`
	Sport           string    `json:"sport"`
	Timestamp       time.Time `json:"timestamp"`
	Status          string    `json:"status"`
}

// Validate checks the fields a bet must carry to be stored.
func (b SavedBet) Validate() error {
	switch {
	case strings.TrimSpace(b.MatchName) == "":
		return fmt.Errorf("%w: match_name is required", ErrInvalidBet)
	case strings.TrimSpace(b.Selection) == "":
		return fmt.Errorf("%w: selection is required", ErrInvalidBet)
	case strings.TrimSpace(b.Book) == "":
		return fmt.Errorf("%w: book is required", ErrInvalidBet)
	case b.Stake < 0:
		return fmt.Errorf("%w: stake must be >= 0, got %v", ErrInvalidBet, b.Stake)
	}
	return nil
}

// DB handles saved bet storage on SQLite or PostgreSQL.
type DB struct {
	db       *sql.DB
	postgres bool
}

// Open connects to databaseURL. postgres:// and postgresql:// URLs use
// PostgreSQL; anything else is a SQLite path, optionally prefixed with
// "sqlite:///".
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	driver, dsn := parseURL(databaseURL)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &DB{db: db, postgres: driver == "postgres"}
	if d.postgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := d.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

func parseURL(databaseURL string) (driver, dsn string) {
	if databaseURL == "" {
		databaseURL = DefaultDatabaseURL
	}
	// Some hosts hand out postgres://, which not every client accepts
	if strings.HasPrefix(databaseURL, "postgres://") {
		databaseURL = "postgresql://" + strings.TrimPrefix(databaseURL, "postgres://")
	}
	if strings.HasPrefix(databaseURL, "postgresql://") {
		return "postgres", databaseURL
	}
	return "sqlite3", strings.TrimPrefix(databaseURL, "sqlite:///")
}

// Dialect names the SQL backend in use, "postgres" or "sqlite".
func (d *DB) Dialect() string {
	if d.postgres {
		return "postgres"
	}
	return "sqlite"
}

func (d *DB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS saved_bets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_name TEXT NOT NULL,
		selection TEXT NOT NULL,
		odds REAL NOT NULL,
		stake REAL NOT NULL,
		potential_payout REAL NOT NULL,
		ev_percent REAL NOT NULL,
		book TEXT NOT NULL,
		sport TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_saved_bets_status ON saved_bets(status);
	`
	if d.postgres {
		schema = `
	CREATE TABLE IF NOT EXISTS saved_bets (
		id BIGSERIAL PRIMARY KEY,
		match_name TEXT NOT NULL,
		selection TEXT NOT NULL,
		odds DOUBLE PRECISION NOT NULL,
		stake DOUBLE PRECISION NOT NULL,
		potential_payout DOUBLE PRECISION NOT NULL,
		ev_percent DOUBLE PRECISION NOT NULL,
		book TEXT NOT NULL,
		sport TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_saved_bets_status ON saved_bets(status);
	`
	}

	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks the connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// SaveBet stores bet and returns it with its assigned ID. A zero timestamp is
// set to now and an empty status to pending.
func (d *DB) SaveBet(ctx context.Context, bet SavedBet) (SavedBet, error) {
	if err := bet.Validate(); err != nil {
		return SavedBet{}, err
	}
	if bet.Timestamp.IsZero() {
		bet.Timestamp = time.Now()
	}
	bet.Timestamp = bet.Timestamp.UTC()
	if bet.Status == "" {
		bet.Status = StatusPending
	}

	err := d.db.QueryRowContext(ctx, d.rebind(`
		INSERT INTO saved_bets (match_name, selection, odds, stake, potential_payout, ev_percent, book, sport, timestamp, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), bet.MatchName, bet.Selection, bet.Odds, bet.Stake, bet.PotentialPayout,
		bet.EVPercent, bet.Book, bet.Sport, bet.Timestamp, bet.Status).Scan(&bet.ID)
	if err != nil {
		return SavedBet{}, fmt.Errorf("inserting bet: %w", err)
	}

	return bet, nil
}

// GetBet retrieves a bet by ID, or nil if it does not exist.
func (d *DB) GetBet(ctx context.Context, id int64) (*SavedBet, error) {
	row := d.db.QueryRowContext(ctx, d.rebind(`
		SELECT id, match_name, selection, odds, stake, potential_payout, ev_percent, book, sport, timestamp, status
		FROM saved_bets WHERE id = ?
	`), id)

	var bet SavedBet
	err := scanBet(row, &bet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning bet: %w", err)
	}

	return &bet, nil
}

// ListBets retrieves all saved bets, newest first.
func (d *DB) ListBets(ctx context.Context) ([]SavedBet, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, match_name, selection, odds, stake, potential_payout, ev_percent, book, sport, timestamp, status
		FROM saved_bets
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying bets: %w", err)
	}
	defer rows.Close()

	bets := []SavedBet{}
	for rows.Next() {
		var bet SavedBet
		if err := scanBet(rows, &bet); err != nil {
			return nil, fmt.Errorf("scanning bet row: %w", err)
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBet(s scanner, bet *SavedBet) error {
	return s.Scan(&bet.ID, &bet.MatchName, &bet.Selection, &bet.Odds, &bet.Stake,
		&bet.PotentialPayout, &bet.EVPercent, &bet.Book, &bet.Sport, &bet.Timestamp, &bet.Status)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d *DB) rebind(query string) string {
	if !d.postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
