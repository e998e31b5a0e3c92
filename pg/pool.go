package pg

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rise-and-shine/voiceout/observability/logger"
)

const pingTimeout = 5 * time.Second

// NewPool creates a new PostgreSQL connection pool with the provided configuration
// and waits until the server answers a ping.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"target": cfg.redactedTarget()}))
	}

	poolConfig.MaxConns = cfg.PoolMaxConns
	poolConfig.MinConns = cfg.PoolMinConns
	poolConfig.MaxConnIdleTime = cfg.PoolMaxConnIdleTime
	poolConfig.MaxConnLifetime = cfg.PoolMaxConnLifetime

	pgPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	log := logger.Named("pg.pool")

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()
			return pgPool.Ping(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(max(cfg.ConnectAttempts, 1)),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.With("attempt", n+1).With("error", err.Error()).Warn("postgres is not reachable yet")
		}),
	)
	if err != nil {
		pgPool.Close()
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"target": cfg.redactedTarget()}))
	}

	return pgPool, nil
}
