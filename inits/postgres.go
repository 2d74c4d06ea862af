package inits

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/graceful_shutdown"
)

func NewPostgresPool(ac *app_config.AppConfig) *pgxpool.Pool {
	pool, err := newPool(context.Background(), ac)
	if err != nil {
		panic(err)
	}
	graceful_shutdown.AddOutputShutdownFunc(pool.Close)
	return pool
}

func newPool(ctx context.Context, ac *app_config.AppConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(ac.PostgresUrl)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	poolConfig.MaxConns = ac.PostgresMaxConns
	poolConfig.MaxConnLifetime = ac.PostgresConnTTL

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
