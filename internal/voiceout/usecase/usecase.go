// Package usecase implements the voiceout operations exposed over HTTP.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Publisher announces committed posts to live clients.
type Publisher interface {
	PublishPostCreated(ctx context.Context, post any) error
}

// clock and id generators are swapped in tests.
type deps struct {
	now   func() time.Time
	newID func() string
}

func defaultDeps() deps {
	return deps{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Option customizes a use case.
type Option func(*deps)

// WithClock overrides the creation time source.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(newID func() string) Option {
	return func(d *deps) { d.newID = newID }
}

func buildDeps(opts []Option) deps {
	d := defaultDeps()
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
