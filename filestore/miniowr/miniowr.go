// Package miniowr provides an S3-compatible implementation of filestore.FileStore using minio-go.
//
// References are public object URLs of the form <public_base_url>/<bucket>/<key>;
// Delete, Get and Exists map them back to object keys.
package miniowr

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rise-and-shine/voiceout/filestore"
	"github.com/rise-and-shine/voiceout/observability/logger"
)

const (
	codeNoSuchKey = "NoSuchKey"

	bucketAttempts = 5
)

// Client implements the filestore.FileStore interface using MinIO.
type Client struct {
	client  *minio.Client
	bucket  string
	folder  string
	baseURL string
	region  string
}

var _ filestore.FileStore = (*Client)(nil)

// New creates a client. It does not contact the server; call EnsureBucket on startup.
func New(cfg Config) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"endpoint": cfg.Endpoint}))
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = client.EndpointURL().String()
	}

	return &Client{
		client:  client,
		bucket:  cfg.Bucket,
		folder:  strings.Trim(cfg.Folder, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
		region:  cfg.Region,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist, retrying while the server comes up.
func (c *Client) EnsureBucket(ctx context.Context) error {
	log := logger.Named("filestore.minio").With("bucket", c.bucket)

	return retry.Do(
		func() error {
			exists, err := c.client.BucketExists(ctx, c.bucket)
			if err != nil {
				return errx.Wrap(err)
			}
			if exists {
				return nil
			}

			err = c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region})
			if err != nil {
				return errx.Wrap(err)
			}
			log.Info("bucket created")
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(bucketAttempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.With("attempt", n+1).With("error", err.Error()).Warn("object storage is not ready yet")
		}),
	)
}

// Upload stores the object under <folder>/<kind>/<name>.
func (c *Client) Upload(ctx context.Context, obj filestore.Object) (*filestore.FileInfo, error) {
	contentType, content, err := filestore.SniffContentType(obj.Content, obj.ContentType)
	if err != nil {
		return nil, filestore.WrapStoreErr(err, errx.D{"name": obj.Name})
	}

	key := c.Key(obj.Kind, obj.Name)

	size := obj.Size
	if size < 0 {
		size = -1
	}

	info, err := c.client.PutObject(ctx, c.bucket, key, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, filestore.WrapStoreErr(err, errx.D{"bucket": c.bucket, "key": key})
	}

	lastModified := info.LastModified
	if lastModified.IsZero() {
		lastModified = time.Now().UTC()
	}

	return &filestore.FileInfo{
		Ref:          c.RefOf(key),
		Key:          key,
		Name:         obj.Name,
		Size:         info.Size,
		ContentType:  contentType,
		Kind:         obj.Kind,
		LastModified: lastModified,
	}, nil
}

// Get retrieves the object behind ref.
func (c *Client) Get(ctx context.Context, ref string) (*filestore.File, error) {
	key, err := c.KeyOf(ref)
	if err != nil {
		return nil, err
	}

	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, c.wrapMinioError(err, ref)
	}

	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, c.wrapMinioError(err, ref)
	}

	return &filestore.File{
		Content: obj,
		Info: filestore.FileInfo{
			Ref:          ref,
			Key:          key,
			Name:         path.Base(key),
			Size:         stat.Size,
			ContentType:  stat.ContentType,
			Kind:         c.kindOf(key),
			LastModified: stat.LastModified,
		},
	}, nil
}

// Delete removes the object behind ref. S3 deletes are idempotent, so the
// object is stat-ed first to report missing objects.
func (c *Client) Delete(ctx context.Context, ref string) error {
	key, err := c.KeyOf(ref)
	if err != nil {
		return err
	}

	if _, err = c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{}); err != nil {
		return c.wrapMinioError(err, ref)
	}

	if err = c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return c.wrapMinioError(err, ref)
	}
	return nil
}

// Exists checks if the object behind ref exists.
func (c *Client) Exists(ctx context.Context, ref string) (bool, error) {
	key, err := c.KeyOf(ref)
	if err != nil {
		return false, err
	}

	_, err = c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == codeNoSuchKey {
			return false, nil
		}
		return false, filestore.WrapStoreErr(err, errx.D{"ref": ref})
	}
	return true, nil
}

// Key builds the object key for a name of the given kind.
func (c *Client) Key(kind filestore.Kind, name string) string {
	if kind == "" {
		kind = filestore.KindRaw
	}
	return path.Join(c.folder, string(kind), name)
}

// RefOf returns the public URL of key.
func (c *Client) RefOf(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.bucket, key)
}

// KeyOf maps a public URL back to an object key of this bucket.
func (c *Client) KeyOf(ref string) (string, error) {
	key, ok := strings.CutPrefix(ref, fmt.Sprintf("%s/%s/", c.baseURL, c.bucket))
	if !ok || key == "" || strings.Contains(key, "..") {
		return "", filestore.ErrInvalidRef(ref)
	}
	return key, nil
}

func (c *Client) kindOf(key string) filestore.Kind {
	rest := strings.TrimPrefix(key, c.folder+"/")
	kind, _, found := strings.Cut(rest, "/")
	if !found {
		return ""
	}
	return filestore.Kind(kind)
}

// wrapMinioError converts MinIO errors to filestore error codes.
func (c *Client) wrapMinioError(err error, ref string) error {
	if minio.ToErrorResponse(err).Code == codeNoSuchKey {
		return filestore.ErrNotFound(ref)
	}
	return filestore.WrapStoreErr(err, errx.D{"ref": ref, "bucket": c.bucket})
}
