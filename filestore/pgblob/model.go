package pgblob

import (
	"time"

	"github.com/uptrace/bun"
)

// Blob is the metadata row of a stored object.
type Blob struct {
	bun.BaseModel `bun:"table:media_blobs"`

	ID          string    `bun:"id,pk"`
	Bucket      string    `bun:"bucket,notnull"`
	Filename    string    `bun:"filename,notnull"`
	ContentType string    `bun:"content_type,notnull"`
	Kind        string    `bun:"kind"`
	Size        int64     `bun:"size,notnull"`
	ChunkSize   int       `bun:"chunk_size,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

// Chunk holds the n-th slice of a blob's content.
type Chunk struct {
	bun.BaseModel `bun:"table:media_chunks"`

	BlobID string `bun:"blob_id,pk"`
	N      int    `bun:"n,pk"`
	Data   []byte `bun:"data,notnull"`
}
