// Package repo provides the voiceout repositories.
package repo

import (
	"context"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/voiceout/internal/voiceout/domain"
	"github.com/rise-and-shine/voiceout/repogen"
)

// PostFilter selects posts. Results are always newest first.
type PostFilter struct {
	ID     string
	Limit  int
	Offset int
}

// FeedbackFilter selects feedback entries.
type FeedbackFilter struct {
	ID string
}

type (
	PostRepo     = repogen.Repo[domain.Post, PostFilter]
	FeedbackRepo = repogen.Repo[domain.Feedback, FeedbackFilter]
)

// NewPostRepo creates the post repository.
func NewPostRepo(idb bun.IDB) *repogen.PgRepo[domain.Post, PostFilter] {
	return repogen.NewPgRepo[domain.Post, PostFilter](
		idb,
		domain.CodePostNotFound,
		domain.CodePostConflict,
		func(q *bun.SelectQuery, f PostFilter) *bun.SelectQuery {
			if f.ID != "" {
				q = q.Where("vo.id = ?", f.ID)
			}
			if f.Limit > 0 {
				q = q.Limit(f.Limit)
			}
			if f.Offset > 0 {
				q = q.Offset(f.Offset)
			}
			// id breaks ties between posts created at the same instant
			return q.Order("vo.date DESC", "vo.id DESC")
		},
	)
}

// NewFeedbackRepo creates the feedback repository.
func NewFeedbackRepo(idb bun.IDB) *repogen.PgRepo[domain.Feedback, FeedbackFilter] {
	return repogen.NewPgRepo[domain.Feedback, FeedbackFilter](
		idb,
		domain.CodeFeedbackNotFound,
		domain.CodeFeedbackConflict,
		func(q *bun.SelectQuery, f FeedbackFilter) *bun.SelectQuery {
			if f.ID != "" {
				q = q.Where("fb.id = ?", f.ID)
			}
			return q.Order("fb.date DESC")
		},
	)
}

// Migrate creates the voiceout tables and the post date index when missing.
func Migrate(ctx context.Context, db bun.IDB) error {
	for _, model := range []any{(*domain.Post)(nil), (*domain.Feedback)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return errx.Wrap(err)
		}
	}

	_, err := db.NewCreateIndex().
		Model((*domain.Post)(nil)).
		Index("voice_outs_date_idx").
		Column("date").
		IfNotExists().
		Exec(ctx)
	return errx.Wrap(err)
}
