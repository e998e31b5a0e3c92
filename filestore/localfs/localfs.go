// Package localfs provides a filesystem implementation of filestore.FileStore on top of afero.
//
// Objects are written flat into a single directory. The reference handed back
// is "<prefix>/<name>", which is also the URL path the API serves them under.
package localfs

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/code19m/errx"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/rise-and-shine/voiceout/filestore"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Config defines the local disk store options.
type Config struct {
	// Dir is the directory uploads are written to.
	Dir string `yaml:"dir" default:"uploads"`
	// RefPrefix is prepended to object names to build references.
	RefPrefix string `yaml:"ref_prefix" default:"uploads"`
}

// Store implements filestore.FileStore on an afero filesystem.
type Store struct {
	fs     afero.Fs
	dir    string
	prefix string
}

var _ filestore.FileStore = (*Store)(nil)

// New creates the upload directory if needed and returns the store.
// Pass afero.NewOsFs() in production and afero.NewMemMapFs() in tests.
func New(fs afero.Fs, cfg Config) (*Store, error) {
	if err := fs.MkdirAll(cfg.Dir, dirPerm); err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"dir": cfg.Dir}))
	}

	return &Store{
		fs:     fs,
		dir:    cfg.Dir,
		prefix: strings.Trim(cfg.RefPrefix, "/"),
	}, nil
}

// Upload writes the object to <dir>/<name>. Existing files are never overwritten.
func (s *Store) Upload(_ context.Context, obj filestore.Object) (*filestore.FileInfo, error) {
	if !validName(obj.Name) {
		return nil, filestore.ErrInvalidRef(obj.Name)
	}

	contentType, content, err := filestore.SniffContentType(obj.Content, obj.ContentType)
	if err != nil {
		return nil, filestore.WrapStoreErr(err, errx.D{"name": obj.Name})
	}

	p := filepath.Join(s.dir, obj.Name)

	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return nil, filestore.WrapStoreErr(err, errx.D{"path": p})
	}

	size, err := io.Copy(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(p)
		return nil, filestore.WrapStoreErr(err, errx.D{"path": p})
	}

	stat, err := s.fs.Stat(p)
	if err != nil {
		return nil, filestore.WrapStoreErr(err, errx.D{"path": p})
	}

	return &filestore.FileInfo{
		Ref:          s.ref(obj.Name),
		Key:          p,
		Name:         obj.Name,
		Size:         size,
		ContentType:  contentType,
		Kind:         obj.Kind,
		LastModified: stat.ModTime(),
	}, nil
}

// Get opens the file behind ref.
func (s *Store) Get(_ context.Context, ref string) (*filestore.File, error) {
	name, err := s.nameOf(ref)
	if err != nil {
		return nil, err
	}
	p := filepath.Join(s.dir, name)

	f, err := s.fs.Open(p)
	if os.IsNotExist(err) {
		return nil, filestore.ErrNotFound(ref)
	}
	if err != nil {
		return nil, filestore.WrapStoreErr(err, errx.D{"path": p})
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, filestore.WrapStoreErr(err, errx.D{"path": p})
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		_ = f.Close()
		return nil, filestore.WrapStoreErr(err, errx.D{"path": p})
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, filestore.WrapStoreErr(err, errx.D{"path": p})
	}

	return &filestore.File{
		Content: f,
		Info: filestore.FileInfo{
			Ref:          ref,
			Key:          p,
			Name:         name,
			Size:         stat.Size(),
			ContentType:  mtype.String(),
			LastModified: stat.ModTime(),
		},
	}, nil
}

// Delete removes the file behind ref.
func (s *Store) Delete(_ context.Context, ref string) error {
	name, err := s.nameOf(ref)
	if err != nil {
		return err
	}
	p := filepath.Join(s.dir, name)

	err = s.fs.Remove(p)
	if os.IsNotExist(err) {
		return filestore.ErrNotFound(ref)
	}
	if err != nil {
		return filestore.WrapStoreErr(err, errx.D{"path": p})
	}
	return nil
}

// Exists checks whether the file behind ref exists.
func (s *Store) Exists(_ context.Context, ref string) (bool, error) {
	name, err := s.nameOf(ref)
	if err != nil {
		return false, err
	}

	ok, err := afero.Exists(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		return false, filestore.WrapStoreErr(err, errx.D{"ref": ref})
	}
	return ok, nil
}

func (s *Store) ref(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// nameOf maps a reference back to a file name inside dir and rejects anything
// that would escape it.
func (s *Store) nameOf(ref string) (string, error) {
	name := ref
	if s.prefix != "" {
		var ok bool
		name, ok = strings.CutPrefix(strings.TrimPrefix(ref, "/"), s.prefix+"/")
		if !ok {
			return "", filestore.ErrInvalidRef(ref)
		}
	}

	if !validName(name) {
		return "", filestore.ErrInvalidRef(ref)
	}
	return name, nil
}

func validName(name string) bool {
	return name != "" &&
		name != "." &&
		name != ".." &&
		!strings.ContainsAny(name, `/\`) &&
		!strings.ContainsRune(name, 0)
}
