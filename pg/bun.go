// Package pg provides PostgreSQL database connection and utility functions.
//
// It offers abstractions for creating connection pools, working with the Bun ORM
// and handling PostgreSQL-specific errors. Queries are traced through bunotel.
package pg

import (
	"context"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/extra/bunotel"

	"github.com/rise-and-shine/voiceout/pg/hooks"
)

// NewBunDB creates a new Bun database connection with the provided configuration.
func NewBunDB(ctx context.Context, cfg Config) (*bun.DB, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
	ApplyHooks(db, cfg.Debug)

	return db, nil
}

// ApplyHooks adds the query logging hook (active only when debug is true)
// and the OpenTelemetry hook to db.
func ApplyHooks(db *bun.DB, debug bool) {
	db.AddQueryHook(hooks.NewDebugHook(hooks.WithEnabled(debug)))
	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName("voiceout")))
}
