package repogen

import (
	"context"
	"fmt"
	"reflect"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/voiceout/pg"
)

const (
	codeMultipleRowsFound      = "MULTIPLE_ROWS_FOUND"
	codeIncorrectRowsAffection = "INCORRECT_ROWS_AFFECTION"
	codeStoreFailed            = "STORE_FAILED"
)

// FilterFunc applies filters F to a select query.
type FilterFunc[F any] func(q *bun.SelectQuery, filters F) *bun.SelectQuery

// PgRepo implements Repo on top of bun. Queries avoid dialect specific
// features (no RETURNING), so the same repository runs on SQLite in tests.
type PgRepo[E any, F any] struct {
	idb          bun.IDB
	notFoundCode string
	conflictCode string
	filterFunc   FilterFunc[F]
}

var _ Repo[struct{}, struct{}] = (*PgRepo[struct{}, struct{}])(nil)

// NewPgRepo creates a repository. notFoundCode is used for Get misses,
// conflictCode for unique violations on Create (empty disables the mapping).
func NewPgRepo[E any, F any](
	idb bun.IDB,
	notFoundCode string,
	conflictCode string,
	filterFunc FilterFunc[F],
) *PgRepo[E, F] {
	if filterFunc == nil {
		filterFunc = func(q *bun.SelectQuery, _ F) *bun.SelectQuery { return q }
	}

	return &PgRepo[E, F]{
		idb:          idb,
		notFoundCode: notFoundCode,
		conflictCode: conflictCode,
		filterFunc:   filterFunc,
	}
}

func (r *PgRepo[E, F]) Get(ctx context.Context, filters F) (*E, error) {
	entities := make([]E, 0)
	q := r.idb.NewSelect().Model(&entities)
	q = r.filterFunc(q, filters).Limit(2) //nolint:mnd // limit 2 to check for multiple rows

	if err := q.Scan(ctx); err != nil {
		return nil, storeError(err, q)
	}

	switch len(entities) {
	case 0:
		return nil, errx.New(
			fmt.Sprintf("no %s found", nameOf[E]()),
			errx.WithCode(r.notFoundCode),
			errx.WithType(errx.T_NotFound),
		)
	case 1:
		return &entities[0], nil
	default:
		return nil, errx.New(
			fmt.Sprintf("multiple %s found", nameOf[E]()),
			errx.WithCode(codeMultipleRowsFound),
			errx.WithDetails(pg.GetPgErrorDetails(nil, q)),
		)
	}
}

func (r *PgRepo[E, F]) List(ctx context.Context, filters F) ([]E, error) {
	entities := make([]E, 0)
	q := r.idb.NewSelect().Model(&entities)
	q = r.filterFunc(q, filters)

	if err := q.Scan(ctx); err != nil {
		return nil, storeError(err, q)
	}

	return entities, nil
}

func (r *PgRepo[E, F]) Count(ctx context.Context, filters F) (int, error) {
	q := r.idb.NewSelect().Model((*E)(nil))
	q = r.filterFunc(q, filters).Offset(0).Limit(0)

	count, err := q.Count(ctx)
	if err != nil {
		return 0, storeError(err, q)
	}

	return count, nil
}

func (r *PgRepo[E, F]) Exists(ctx context.Context, filters F) (bool, error) {
	q := r.idb.NewSelect().Model((*E)(nil))
	q = r.filterFunc(q, filters)

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, storeError(err, q)
	}

	return exists, nil
}

func (r *PgRepo[E, F]) Create(ctx context.Context, entity *E) (*E, error) {
	q := r.idb.NewInsert().Model(entity)

	if _, err := q.Exec(ctx); err != nil {
		if r.conflictCode != "" && pg.IsConflict(err) {
			return nil, errx.New(
				fmt.Sprintf("conflict while creating %s", nameOf[E]()),
				errx.WithCode(r.conflictCode),
				errx.WithType(errx.T_Conflict),
				errx.WithDetails(pg.GetPgErrorDetails(err, q)),
			)
		}
		return nil, storeError(err, q)
	}

	return entity, nil
}

func (r *PgRepo[E, F]) Delete(ctx context.Context, entity *E) error {
	q := r.idb.NewDelete().Model(entity).WherePK()

	result, err := q.Exec(ctx)
	if err != nil {
		return storeError(err, q)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError(err, q)
	}

	if rowsAffected == 0 {
		return errx.New(
			fmt.Sprintf("no %s found to delete", nameOf[E]()),
			errx.WithCode(r.notFoundCode),
			errx.WithType(errx.T_NotFound),
		)
	}
	if rowsAffected > 1 {
		return errx.New(
			fmt.Sprintf("%d %s rows deleted by primary key", rowsAffected, nameOf[E]()),
			errx.WithCode(codeIncorrectRowsAffection),
		)
	}

	return nil
}

// storeError wraps a driver failure as an internal error so it surfaces as 5xx.
func storeError(err error, q fmt.Stringer) error {
	return errx.Wrap(err,
		errx.WithCode(codeStoreFailed),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(pg.GetPgErrorDetails(err, q)),
	)
}

func nameOf[E any]() string {
	t := reflect.TypeOf((*E)(nil)).Elem()
	return t.Name()
}
