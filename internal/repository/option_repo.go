package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// OptionRepository stores named JSON values.
type OptionRepository interface {
	GetOption(ctx context.Context, name string, dest any) (bool, error)
	SetOption(ctx context.Context, name string, value any) error
	AddOption(ctx context.Context, name string, value any) (bool, error)
}

// PostgresOptionRepository is an implementation of OptionRepository using PostgreSQL.
type PostgresOptionRepository struct {
	db *sql.DB
}

// NewPostgresOptionRepository creates a new PostgresOptionRepository.
func NewPostgresOptionRepository(db *sql.DB) *PostgresOptionRepository {
	return &PostgresOptionRepository{db: db}
}

// GetOption decodes the stored value into dest. It reports false when the
// option does not exist.
func (r *PostgresOptionRepository) GetOption(ctx context.Context, name string, dest any) (bool, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM options WHERE name = $1`, name).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode option %s: %w", name, err)
	}
	return true, nil
}

// SetOption creates or replaces an option.
func (r *PostgresOptionRepository) SetOption(ctx context.Context, name string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode option %s: %w", name, err)
	}

	query := `INSERT INTO options (name, value, updated_at)
              VALUES ($1, $2::jsonb, NOW())
              ON CONFLICT (name)
              DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, name, string(payload)); err != nil {
		return fmt.Errorf("set option %s: %w", name, err)
	}
	return nil
}

// AddOption stores value only if the option is absent. It reports whether a
// row was inserted.
func (r *PostgresOptionRepository) AddOption(ctx context.Context, name string, value any) (bool, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode option %s: %w", name, err)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO options (name, value) VALUES ($1, $2::jsonb) ON CONFLICT (name) DO NOTHING`,
		name, string(payload))
	if err != nil {
		return false, fmt.Errorf("add option %s: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
