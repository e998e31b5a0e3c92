package upload

import (
	"bytes"
	"io"

	"github.com/code19m/errx"
	"github.com/disintegration/imaging"

	"github.com/rise-and-shine/voiceout/filestore"
)

// AcceptorOption configures an Acceptor.
type AcceptorOption func(*Acceptor)

// WithMaxImageWidth scales down JPEG and PNG uploads wider than width,
// keeping the aspect ratio. Zero disables resizing.
func WithMaxImageWidth(width int) AcceptorOption {
	return func(a *Acceptor) {
		a.maxImageWidth = width
	}
}

// encodeFormat is the format shrinkImage writes for contentType. The output
// always matches the content type recorded with the media.
// GIFs are left alone to keep their animation.
func encodeFormat(contentType string) (imaging.Format, bool) {
	switch contentType {
	case filestore.ContentTypeJPEG:
		return imaging.JPEG, true
	case filestore.ContentTypePNG:
		return imaging.PNG, true
	}
	return 0, false
}

// shrinkImage returns content scaled to maxWidth. ok is false when the image
// is already narrow enough or cannot be decoded, in which case the original
// bytes should be stored.
func shrinkImage(content []byte, format imaging.Format, maxWidth int) (out []byte, ok bool, err error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false, nil //nolint:nilerr // undecodable images are stored as sent
	}
	if img.Bounds().Dx() <= maxWidth {
		return nil, false, nil
	}

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, imaging.Resize(img, maxWidth, 0, imaging.Lanczos), format); err != nil {
		return nil, false, errx.Wrap(err)
	}
	return buf.Bytes(), true, nil
}

// prepareContent applies image resizing when enabled. It returns the reader
// to store and its size.
func (a *Acceptor) prepareContent(r io.Reader, size int64, contentType string) (io.Reader, int64, error) {
	format, ok := encodeFormat(contentType)
	if a.maxImageWidth <= 0 || !ok {
		return r, size, nil
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, errx.Wrap(err, errx.WithCode(CodeInvalidMultipart), errx.WithType(errx.T_Validation))
	}

	resized, ok, err := shrinkImage(content, format, a.maxImageWidth)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return bytes.NewReader(content), int64(len(content)), nil
	}
	return bytes.NewReader(resized), int64(len(resized)), nil
}
