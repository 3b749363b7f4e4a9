package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RateSnapshot is the latest stored rate set for one base currency.
type RateSnapshot struct {
	ID           int64              `json:"id"`
	BaseCurrency string             `json:"base_currency"`
	Rates        map[string]float64 `json:"rates"`
	LastUpdated  time.Time          `json:"last_updated"`
}

// RateHistoryEntry is one immutable record of a past fetch.
type RateHistoryEntry struct {
	ID           int64              `json:"id"`
	BaseCurrency string             `json:"base_currency"`
	Rates        map[string]float64 `json:"rates"`
	FetchedAt    time.Time          `json:"fetched_at"`
}

// RateRepository defines DB operations for rate snapshots and history.
type RateRepository interface {
	UpsertLatest(ctx context.Context, base string, rates map[string]float64, at time.Time) error
	InsertHistory(ctx context.Context, base string, rates map[string]float64, at time.Time) error
	GetLatest(ctx context.Context, base string) (*RateSnapshot, error)
	DistinctBases(ctx context.Context) ([]string, error)
	ListHistory(ctx context.Context, base string, limit int) ([]RateHistoryEntry, error)
	CountHistory(ctx context.Context, base string) (int64, error)
	PruneHistory(ctx context.Context, before time.Time) (int64, error)
}

// PostgresRateRepository is an implementation of RateRepository using PostgreSQL.
type PostgresRateRepository struct {
	db *sql.DB
}

// NewPostgresRateRepository creates a new PostgresRateRepository.
func NewPostgresRateRepository(db *sql.DB) *PostgresRateRepository {
	return &PostgresRateRepository{db: db}
}

// UpsertLatest replaces the snapshot row for base.
func (r *PostgresRateRepository) UpsertLatest(ctx context.Context, base string, rates map[string]float64, at time.Time) error {
	payload, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}

	query := `INSERT INTO exchange_rates (base_currency, rates, last_updated)
              VALUES ($1, $2::jsonb, $3)
              ON CONFLICT (base_currency)
              DO UPDATE SET rates = EXCLUDED.rates, last_updated = EXCLUDED.last_updated`

	if _, err := r.db.ExecContext(ctx, query, base, string(payload), at); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", base, err)
	}
	return nil
}

// InsertHistory appends a row to the history log.
func (r *PostgresRateRepository) InsertHistory(ctx context.Context, base string, rates map[string]float64, at time.Time) error {
	payload, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}

	query := `INSERT INTO exchange_rates_history (base_currency, rates, fetched_at)
              VALUES ($1, $2::jsonb, $3)`

	if _, err := r.db.ExecContext(ctx, query, base, string(payload), at); err != nil {
		return fmt.Errorf("insert history %s: %w", base, err)
	}
	return nil
}

// GetLatest returns the snapshot for base, or (nil, nil) when there is none.
func (r *PostgresRateRepository) GetLatest(ctx context.Context, base string) (*RateSnapshot, error) {
	query := `SELECT id, base_currency, rates, last_updated
              FROM exchange_rates
              WHERE base_currency = $1`

	var (
		s   RateSnapshot
		raw []byte
	)
	err := r.db.QueryRowContext(ctx, query, base).Scan(&s.ID, &s.BaseCurrency, &raw, &s.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.Rates); err != nil {
		return nil, fmt.Errorf("decode snapshot rates %s: %w", base, err)
	}
	s.LastUpdated = s.LastUpdated.UTC()
	return &s, nil
}

// DistinctBases lists every base currency that has a snapshot.
func (r *PostgresRateRepository) DistinctBases(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT base_currency FROM exchange_rates ORDER BY base_currency`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // best-effort close

	var bases []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		bases = append(bases, b)
	}
	return bases, rows.Err()
}

// ListHistory returns the newest history entries for base, newest first.
func (r *PostgresRateRepository) ListHistory(ctx context.Context, base string, limit int) ([]RateHistoryEntry, error) {
	query := `SELECT id, base_currency, rates, fetched_at
              FROM exchange_rates_history
              WHERE base_currency = $1
              ORDER BY fetched_at DESC, id DESC
              LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, base, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // best-effort close

	entries := []RateHistoryEntry{}
	for rows.Next() {
		var (
			e   RateHistoryEntry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.BaseCurrency, &raw, &e.FetchedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &e.Rates); err != nil {
			return nil, fmt.Errorf("decode history rates %d: %w", e.ID, err)
		}
		e.FetchedAt = e.FetchedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountHistory returns the number of history rows for base.
func (r *PostgresRateRepository) CountHistory(ctx context.Context, base string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exchange_rates_history WHERE base_currency = $1`, base).Scan(&n)
	return n, err
}

// PruneHistory deletes history rows fetched before the cutoff.
func (r *PostgresRateRepository) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM exchange_rates_history WHERE fetched_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
