// Package hooks contains bun query hooks.
package hooks

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/voiceout/observability/logger"
)

var _ bun.QueryHook = (*DebugHook)(nil)

// DebugHook logs executed queries through the service logger.
// Failed queries are logged at error level, slow queries and empty results at warn,
// everything else at debug.
type DebugHook struct {
	enabled            bool
	slowQueryThreshold time.Duration
	log                logger.Logger
}

// DebugHookOption configures a DebugHook.
type DebugHookOption func(*DebugHook)

// NewDebugHook creates a new query hook. By default it is enabled with a 100ms slow query threshold.
func NewDebugHook(opts ...DebugHookOption) *DebugHook {
	hook := &DebugHook{
		enabled:            true,
		slowQueryThreshold: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(hook)
	}

	if hook.log == nil {
		hook.log = logger.Named("pg.debug_hook")
	}

	return hook
}

// WithEnabled sets whether the query hook is enabled.
func WithEnabled(enabled bool) DebugHookOption {
	return func(h *DebugHook) {
		h.enabled = enabled
	}
}

// WithSlowQueryThreshold sets the duration after which a query is logged at warn level.
// Zero disables slow query detection.
func WithSlowQueryThreshold(threshold time.Duration) DebugHookOption {
	return func(h *DebugHook) {
		h.slowQueryThreshold = threshold
	}
}

// WithLogger replaces the global named logger.
func WithLogger(log logger.Logger) DebugHookOption {
	return func(h *DebugHook) {
		h.log = log
	}
}

// BeforeQuery implements bun.QueryHook.
func (h *DebugHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery implements bun.QueryHook.
func (h *DebugHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if !h.enabled {
		return
	}

	duration := time.Since(event.StartTime)
	noRows := errors.Is(event.Err, sql.ErrNoRows)
	failed := event.Err != nil && !noRows && !errors.Is(event.Err, sql.ErrTxDone)

	l := h.log.WithContext(ctx).
		With("query", strings.ReplaceAll(event.Query, `"`, "")).
		With("duration", duration.Round(time.Microsecond))

	msg := "[bun] " + event.Operation()

	switch {
	case failed:
		l.With("error", event.Err.Error()).Error(msg)
	case noRows:
		l.Warn(msg + ": no rows")
	case h.slowQueryThreshold > 0 && duration >= h.slowQueryThreshold:
		l.Warn(msg + ": slow query")
	default:
		l.Debug(msg)
	}
}
