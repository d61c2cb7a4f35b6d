// Package db provides the PostgreSQL and Redis connection helpers for the
// matching service.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing: the service is read-heavy (scoring fans out over snapshot
// reads) while every accept-cascade holds a row lock, so the pool stays
// small with a bounded connection lifetime.
const (
	maxConns        = 16
	maxConnLifetime = 30 * time.Minute
)

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("matching-service postgres config: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MaxConnLifetime = maxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("matching-service postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("matching-service postgres ping: %w", err)
	}

	return pool, nil
}
