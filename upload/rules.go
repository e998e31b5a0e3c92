package upload

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/voiceout/filestore"
)

const (
	CodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	CodeInvalidMultipart    = "INVALID_MULTIPART_BODY"
)

// Rules are the upload allow-lists. The extension and the declared content
// type are checked independently and both must be allowed.
type Rules struct {
	Extensions   []string `yaml:"allowed_extensions"`
	ContentTypes []string `yaml:"allowed_content_types"`
}

// DefaultRules allow common images, audio, video and a few document formats.
func DefaultRules() Rules {
	return Rules{
		Extensions: []string{
			"jpeg", "jpg", "png", "gif",
			"mp3", "mp4", "m4a", "wav", "avi", "mkv", "mov",
			"pdf", "docx", "txt",
		},
		ContentTypes: []string{
			filestore.ContentTypeJPEG, filestore.ContentTypePNG, filestore.ContentTypeGIF,
			filestore.ContentTypeMP3, filestore.ContentTypeMP3Alt,
			filestore.ContentTypeWAV, filestore.ContentTypeWAVAlt,
			filestore.ContentTypeM4A, filestore.ContentTypeM4AAlt,
			filestore.ContentTypeMP4,
			filestore.ContentTypeAVI, filestore.ContentTypeAVIAlt,
			filestore.ContentTypeMKV, filestore.ContentTypeMKVAlt,
			filestore.ContentTypeMOV,
			filestore.ContentTypePDF, filestore.ContentTypeDOCX, filestore.ContentTypeText,
		},
	}
}

// withDefaults fills empty lists from DefaultRules and normalizes entries.
func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if len(r.Extensions) == 0 {
		r.Extensions = def.Extensions
	}
	if len(r.ContentTypes) == 0 {
		r.ContentTypes = def.ContentTypes
	}

	r.Extensions = lo.Map(r.Extensions, func(e string, _ int) string {
		return strings.ToLower(strings.TrimPrefix(e, "."))
	})
	r.ContentTypes = lo.Map(r.ContentTypes, func(ct string, _ int) string {
		return normalizeContentType(ct)
	})
	return r
}

// Check validates a file name and its declared content type.
func (r Rules) Check(filename, contentType string) error {
	ext := Ext(filename)
	ct := normalizeContentType(contentType)

	if lo.Contains(r.Extensions, ext) && lo.Contains(r.ContentTypes, ct) {
		return nil
	}

	return errx.New(
		"unsupported file type",
		errx.WithCode(CodeUnsupportedFileType),
		errx.WithType(errx.T_Validation),
		errx.WithFields(errx.M{"file": "unsupported file type"}),
		errx.WithDetails(errx.D{
			"filename":     filename,
			"extension":    ext,
			"content_type": contentType,
		}),
	)
}

// Ext returns the lower-case extension of filename without the dot.
func Ext(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// normalizeContentType drops parameters such as charset and lower-cases the type.
func normalizeContentType(ct string) string {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType, _, _ = strings.Cut(ct, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
