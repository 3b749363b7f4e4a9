// Package repository implements PostgreSQL storage for rate snapshots,
// the rate history log and persisted options.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/alekspanteli/exchange-rate-hub/internal/config"
)

// ApplicationName is reported to Postgres for every connection.
const ApplicationName = "exchange-rate-hub"

// NewPostgresDB opens a pgx-backed pool from cfg and verifies it with a ping.
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	connCfg.RuntimeParams["application_name"] = ApplicationName

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSec) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return db, nil
}
