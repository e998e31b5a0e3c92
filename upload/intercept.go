package upload

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/voiceout/observability/logger"
)

type ctxKey struct{}

// DefaultFields are the multipart file field names looked up, in order.
//
//nolint:gochecknoglobals // static list
var DefaultFields = []string{"file", "photo"}

// WithMedia stores m in ctx.
func WithMedia(ctx context.Context, m *Media) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext returns the media attached by the interceptor, or nil.
func FromContext(ctx context.Context) *Media {
	m, _ := ctx.Value(ctxKey{}).(*Media)
	return m
}

// NewInterceptMW returns a route handler that accepts the first file found
// under one of fields and attaches it to the request context. Requests that are
// not multipart, or carry no file, pass through untouched.
//
// When the next handler fails the stored media is released again, so a failed
// post does not leave an orphan behind.
func NewInterceptMW(a *Acceptor, fields ...string) fiber.Handler {
	if len(fields) == 0 {
		fields = DefaultFields
	}

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
			return c.Next()
		}

		form, err := c.MultipartForm()
		if err != nil {
			return errx.Wrap(err,
				errx.WithCode(CodeInvalidMultipart),
				errx.WithType(errx.T_Validation),
			)
		}

		fh := firstFile(form, fields)
		if fh == nil {
			return c.Next()
		}

		media, err := a.Accept(c.UserContext(), fh)
		if err != nil {
			return err
		}

		c.SetUserContext(WithMedia(c.UserContext(), media))

		err = c.Next()
		if err != nil {
			// request context may already be cancelled
			if relErr := a.Release(context.WithoutCancel(c.UserContext()), media.Ref); relErr != nil {
				logger.Named("upload.intercept").
					WithContext(c.UserContext()).
					With("ref", media.Ref).
					Warnx(relErr)
			}
		}
		return err
	}
}

func firstFile(form *multipart.Form, fields []string) *multipart.FileHeader {
	for _, field := range fields {
		if files := form.File[field]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}
