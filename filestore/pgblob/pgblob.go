// Package pgblob stores media inside the database, split into fixed size chunks.
//
// Each object is one media_blobs row plus ordered media_chunks rows. The
// reference is the blob id. Objects are scoped by bucket, so several stores
// can share the tables.
package pgblob

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/voiceout/filestore"
	"github.com/rise-and-shine/voiceout/pg"
)

// DefaultChunkSize is 255 KiB.
const DefaultChunkSize = 255 << 10

// Config defines the database blob store options.
type Config struct {
	Bucket    string `yaml:"bucket"     default:"uploads"`
	ChunkSize int    `yaml:"chunk_size" default:"261120" validate:"gt=0"`
}

// Store implements filestore.FileStore over bun.
type Store struct {
	db        *bun.DB
	bucket    string
	chunkSize int
	now       func() time.Time
}

var _ filestore.FileStore = (*Store)(nil)

// New creates a store. Tables are expected to exist, see Migrate.
func New(db *bun.DB, cfg Config) *Store {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Store{
		db:        db,
		bucket:    cfg.Bucket,
		chunkSize: chunkSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the blob tables when they are missing.
func Migrate(ctx context.Context, db bun.IDB) error {
	for _, model := range []any{(*Blob)(nil), (*Chunk)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return errx.Wrap(err)
		}
	}
	return nil
}

// Upload writes the content chunk by chunk and the blob row in a single transaction.
func (s *Store) Upload(ctx context.Context, obj filestore.Object) (*filestore.FileInfo, error) {
	contentType, content, err := filestore.SniffContentType(obj.Content, obj.ContentType)
	if err != nil {
		return nil, filestore.WrapStoreErr(err, errx.D{"name": obj.Name})
	}

	blob := &Blob{
		ID:          uuid.NewString(),
		Bucket:      s.bucket,
		Filename:    obj.Name,
		ContentType: contentType,
		Kind:        string(obj.Kind),
		ChunkSize:   s.chunkSize,
		CreatedAt:   s.now(),
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		buf := make([]byte, s.chunkSize)
		for n := 0; ; n++ {
			read, readErr := io.ReadFull(content, buf)
			if read > 0 {
				chunk := &Chunk{BlobID: blob.ID, N: n, Data: bytes.Clone(buf[:read])}
				if _, err := tx.NewInsert().Model(chunk).Exec(ctx); err != nil {
					return errx.Wrap(err)
				}
				blob.Size += int64(read)
			}
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF { //nolint:errorlint // io.ReadFull returns these unwrapped
				break
			}
			if readErr != nil {
				return errx.Wrap(readErr)
			}
		}

		_, err := tx.NewInsert().Model(blob).Exec(ctx)
		return errx.Wrap(err)
	})
	if err != nil {
		return nil, filestore.WrapStoreErr(err, errx.D{"name": obj.Name, "bucket": s.bucket})
	}

	return blob.info(), nil
}

// Get loads the whole object. Content is buffered because the response body is
// streamed after the request context has been cancelled.
func (s *Store) Get(ctx context.Context, ref string) (*filestore.File, error) {
	blob, err := s.getBlob(ctx, ref)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	err = s.db.NewSelect().
		Model(&chunks).
		Where("blob_id = ?", blob.ID).
		Order("n ASC").
		Scan(ctx)
	if err != nil {
		return nil, filestore.WrapStoreErr(err, errx.D{"ref": ref})
	}

	data := make([]byte, 0, blob.Size)
	for _, c := range chunks {
		data = append(data, c.Data...)
	}

	return &filestore.File{
		Content: io.NopCloser(bytes.NewReader(data)),
		Info:    *blob.info(),
	}, nil
}

// Delete removes chunks and the blob row in one transaction.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if _, err := uuid.Parse(ref); err != nil {
		return filestore.ErrNotFound(ref)
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*Blob)(nil)).
			Where("id = ?", ref).
			Where("bucket = ?", s.bucket).
			Exec(ctx)
		if err != nil {
			return filestore.WrapStoreErr(err, errx.D{"ref": ref})
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return filestore.WrapStoreErr(err, errx.D{"ref": ref})
		}
		if affected == 0 {
			return filestore.ErrNotFound(ref)
		}

		_, err = tx.NewDelete().Model((*Chunk)(nil)).Where("blob_id = ?", ref).Exec(ctx)
		if err != nil {
			return filestore.WrapStoreErr(err, errx.D{"ref": ref})
		}
		return nil
	})
}

// Exists checks whether a blob with the reference exists in the bucket.
func (s *Store) Exists(ctx context.Context, ref string) (bool, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return false, nil
	}

	ok, err := s.db.NewSelect().
		Model((*Blob)(nil)).
		Where("id = ?", ref).
		Where("bucket = ?", s.bucket).
		Exists(ctx)
	if err != nil {
		return false, filestore.WrapStoreErr(err, errx.D{"ref": ref})
	}
	return ok, nil
}

func (s *Store) getBlob(ctx context.Context, ref string) (*Blob, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return nil, filestore.ErrNotFound(ref)
	}

	blob := new(Blob)
	err := s.db.NewSelect().
		Model(blob).
		Where("id = ?", ref).
		Where("bucket = ?", s.bucket).
		Scan(ctx)
	if pg.IsNotFound(err) {
		return nil, filestore.ErrNotFound(ref)
	}
	if err != nil {
		return nil, filestore.WrapStoreErr(err, errx.D{"ref": ref})
	}
	return blob, nil
}

func (b *Blob) info() *filestore.FileInfo {
	return &filestore.FileInfo{
		Ref:          b.ID,
		Key:          b.Bucket + "/" + b.ID,
		Name:         b.Filename,
		Size:         b.Size,
		ContentType:  b.ContentType,
		Kind:         filestore.Kind(b.Kind),
		LastModified: b.CreatedAt,
	}
}
