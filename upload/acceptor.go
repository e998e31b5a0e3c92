// Package upload accepts media files attached to create-post requests.
//
// An upload is checked against extension and content type allow-lists,
// classified into a resource kind, given a unique name and written to the
// configured filestore before the post itself is created.
package upload

import (
	"context"
	"mime/multipart"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/voiceout/filestore"
	"github.com/rise-and-shine/voiceout/observability/logger"
)

// Media is an accepted and stored upload.
type Media struct {
	Ref         string
	Kind        filestore.Kind
	ContentType string
	Size        int64
	Name        string
}

// Acceptor validates and stores uploads.
type Acceptor struct {
	store filestore.FileStore
	rules Rules
	namer *Namer
	log   logger.Logger

	maxImageWidth int
}

// NewAcceptor creates an acceptor. Empty rule lists fall back to DefaultRules.
func NewAcceptor(store filestore.FileStore, rules Rules, namer *Namer, opts ...AcceptorOption) *Acceptor {
	if namer == nil {
		namer = NewNamer()
	}

	a := &Acceptor{
		store: store,
		rules: rules.withDefaults(),
		namer: namer,
		log:   logger.Named("upload.acceptor"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Accept validates fh and stores its content. Nothing is written when validation fails.
func (a *Acceptor) Accept(ctx context.Context, fh *multipart.FileHeader) (*Media, error) {
	contentType := fh.Header.Get("Content-Type")

	if err := a.rules.Check(fh.Filename, contentType); err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errx.Wrap(err, errx.WithCode(CodeInvalidMultipart), errx.WithType(errx.T_Validation))
	}
	defer f.Close()

	ext := Ext(fh.Filename)
	kind := Classify(ext)
	name := a.namer.Name(fh.Filename)
	contentType = normalizeContentType(contentType)

	content, size, err := a.prepareContent(f, fh.Size, contentType)
	if err != nil {
		return nil, err
	}

	info, err := a.store.Upload(ctx, filestore.Object{
		Name:        name,
		ContentType: contentType,
		Kind:        kind,
		Size:        size,
		Content:     content,
	})
	if err != nil {
		return nil, errx.Wrap(err,
			errx.WithCode(filestore.CodeStoreFailed),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"filename": fh.Filename, "name": name}),
		)
	}

	a.log.WithContext(ctx).
		With("ref", info.Ref).
		With("kind", string(kind)).
		With("size", info.Size).
		Debug("media stored")

	return &Media{
		Ref:         info.Ref,
		Kind:        kind,
		ContentType: info.ContentType,
		Size:        info.Size,
		Name:        name,
	}, nil
}

// Release deletes stored media. Missing objects are not an error.
func (a *Acceptor) Release(ctx context.Context, ref string) error {
	err := a.store.Delete(ctx, ref)
	if err == nil || filestore.IsNotFound(err) {
		return nil
	}
	return errx.Wrap(err)
}
