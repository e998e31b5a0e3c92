package filestore

import (
	"bytes"
	"errors"
	"io"

	"github.com/code19m/errx"
	"github.com/gabriel-vasile/mimetype"
)

// Media content types accepted by the service.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"

	ContentTypeMP3      = "audio/mpeg"
	ContentTypeMP3Alt   = "audio/mp3"
	ContentTypeWAV      = "audio/wav"
	ContentTypeWAVAlt   = "audio/x-wav"
	ContentTypeM4A      = "audio/mp4"
	ContentTypeM4AAlt   = "audio/x-m4a"
	ContentTypeMP4      = "video/mp4"
	ContentTypeAVI      = "video/x-msvideo"
	ContentTypeAVIAlt   = "video/avi"
	ContentTypeMKV      = "video/x-matroska"
	ContentTypeMKVAlt   = "video/mkv"
	ContentTypeMOV      = "video/quicktime"
	ContentTypePDF      = "application/pdf"
	ContentTypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeText     = "text/plain"
	ContentTypeFallback = "application/octet-stream"
)

// sniffLen matches the default read limit of mimetype.
const sniffLen = 3072

// SniffContentType returns declared when it is set. Otherwise it peeks at the
// head of r and detects the type from magic numbers. The returned reader
// yields the full content, including the peeked bytes.
func SniffContentType(r io.Reader, declared string) (string, io.Reader, error) {
	if declared != "" {
		return declared, r, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, errx.Wrap(err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head).String()
	if mtype == "" {
		mtype = ContentTypeFallback
	}

	return mtype, io.MultiReader(bytes.NewReader(head), r), nil
}
