// Package ucdef defines use case definitions that are used across the application.
package ucdef

import "context"

// UserAction represents a synchronous business operation triggered by a client request.
// It is exposed through the HTTP API and returns an immediate response; errors are
// returned to the client as HTTP error responses.
//
// Type parameters:
//   - I: Input data type (request payload)
//   - O: Output data type (result of the operation)
//
// Examples: CreatePost, ListPosts, CreateFeedback.
type UserAction[I, O any] interface {
	// OperationID returns a unique identifier for the use case.
	OperationID() string

	// Execute executes the use case.
	Execute(ctx context.Context, in I) (O, error)
}
