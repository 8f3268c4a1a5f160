package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"signal-forest/internal/logger"
)

var Pool *pgxpool.Pool

var (
	newPool  = pgxpool.New
	pingPool = func(ctx context.Context, p *pgxpool.Pool) error {
		return p.Ping(ctx)
	}
)

// InitPostgres opens Pool against databaseURL. An empty URL leaves Pool nil
// so callers run without persistence.
func InitPostgres(ctx context.Context, databaseURL string) error {
	if databaseURL == "" {
		return nil
	}
	p, err := newPool(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pingPool(ctx, p); err != nil {
		p.Close()
		return fmt.Errorf("connect to postgres: %w", err)
	}
	Pool = p
	logger.Info().Msg("connected to postgres")
	return nil
}

// Close releases Pool, if open.
func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
