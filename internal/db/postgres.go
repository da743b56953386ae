// Package db opens the optional stores that persist dashboard diagnostics.
//
// Every store is a best-effort sink, so connections are small and a store that
// cannot be reached within ConnectTimeout fails startup instead of hanging it.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectTimeout bounds the startup ping of every store.
const ConnectTimeout = 5 * time.Second

// ApplicationName identifies dashboard sessions in pg_stat_activity and
// Redis CLIENT LIST.
const ApplicationName = "skillscope-dashboard"

const (
	postgresMaxConns        = 4
	postgresMaxConnIdleTime = 5 * time.Minute
)

// PostgresConfig parses databaseURL and sizes the pool for the diagnostics
// journal: a few connections, tagged with ApplicationName.
func PostgresConfig(databaseURL string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = postgresMaxConns
	cfg.MaxConnIdleTime = postgresMaxConnIdleTime
	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if _, set := cfg.ConnConfig.RuntimeParams["application_name"]; !set {
		cfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}
	return cfg, nil
}

// NewPostgresPool opens the diagnostics pool and pings it within ConnectTimeout.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := PostgresConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", cfg.ConnConfig.Host, err)
	}
	return pool, nil
}
