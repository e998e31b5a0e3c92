// Package repogen provides generic repositories over bun.
//
// A repository is parameterized by the entity type E and a filter type F; the
// filter is translated into query conditions by a function supplied at
// construction time, so domain packages only describe how to filter.
package repogen

import "context"

// ReadOnlyRepo is a generic read-only repository for entities of type E with filter type F.
type ReadOnlyRepo[E any, F any] interface {
	// Get retrieves a single entity matching the provided filters.
	// Returns a not-found error when nothing matches.
	Get(ctx context.Context, filters F) (*E, error)
	// List returns all entities matching the provided filters.
	List(ctx context.Context, filters F) ([]E, error)
	// Count returns the number of entities matching the filters, ignoring limit and offset.
	Count(ctx context.Context, filters F) (int, error)
	// Exists checks if any entity matches the filters.
	Exists(ctx context.Context, filters F) (bool, error)
}

// Repo adds single-row writes to ReadOnlyRepo.
type Repo[E any, F any] interface {
	ReadOnlyRepo[E, F]
	// Create inserts a new entity.
	Create(ctx context.Context, entity *E) (*E, error)
	// Delete removes the entity by its primary key.
	Delete(ctx context.Context, entity *E) error
}
