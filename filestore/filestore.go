// Package filestore provides an abstraction for media storage.
//
// A FileStore stores uploaded objects and hands back a reference that is
// persisted with the post. What the reference looks like depends on the
// backend: a relative path for the local disk store, a blob id for the
// database store and a public URL for S3-compatible storage. Callers treat it
// as opaque and pass it back to Get, Delete and Exists.
package filestore

import (
	"context"
	"io"
	"time"
)

// FileStore defines the interface for media storage operations.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Upload stores the object and returns its metadata including the reference.
	Upload(ctx context.Context, obj Object) (*FileInfo, error)

	// Get retrieves a stored object by reference.
	// The caller is responsible for closing File.Content.
	Get(ctx context.Context, ref string) (*File, error)

	// Delete removes the object. Missing objects yield a CodeFileNotFound error.
	Delete(ctx context.Context, ref string) error

	// Exists checks if an object with the reference exists.
	Exists(ctx context.Context, ref string) (bool, error)
}

// Kind is the coarse resource class of an object, used by S3 style key layouts
// and by clients to decide how to render media.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindRaw   Kind = "raw"
)

// Object is an upload request.
type Object struct {
	// Name is the final object name, already made unique by the caller.
	Name string
	// ContentType is the declared type; backends sniff it when empty.
	ContentType string
	Kind        Kind
	// Size is the content length, or -1 when unknown.
	Size    int64
	Content io.Reader
}

// File represents a stored object with its content and metadata.
type File struct {
	Content io.ReadCloser
	Info    FileInfo
}

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	// Ref is what gets persisted and later passed back to the store.
	Ref string
	// Key is the backend-internal location (path, blob id, object key).
	Key          string
	Name         string
	Size         int64
	ContentType  string
	Kind         Kind
	LastModified time.Time
}
