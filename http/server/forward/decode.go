package forward

import (
	"strings"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
)

//nolint:gochecknoglobals // static list
var bodyContentTypes = []string{
	fiber.MIMEApplicationJSON,
	fiber.MIMEApplicationForm,
	fiber.MIMEMultipartForm,
}

// decodeBody decodes a JSON, urlencoded or multipart form body into req.
// Multipart file parts are ignored here; they are handled by the upload interceptor.
func decodeBody[I any](c *fiber.Ctx, req I) error {
	if len(c.Body()) == 0 {
		return nil // No body to decode
	}

	ctype := strings.ToLower(string(c.Request().Header.ContentType()))
	supported := false
	for _, t := range bodyContentTypes {
		if strings.HasPrefix(ctype, t) {
			supported = true
			break
		}
	}
	if !supported {
		return errx.New(
			"content type must be application/json or a form",
			errx.WithType(errx.T_Validation),
			errx.WithCode(codeInvalidContentType),
			errx.WithDetails(errx.D{"content_type": ctype}),
		)
	}

	if err := c.BodyParser(req); err != nil {
		return errx.Wrap(
			err,
			errx.WithType(errx.T_Validation),
			errx.WithCode(codeInvalidBody),
		)
	}

	return nil
}

// decodeQuery decodes the query params into the given request struct.
func decodeQuery[I any](c *fiber.Ctx, req I) error {
	if len(c.Queries()) == 0 {
		return nil // No query params to decode
	}

	if err := c.QueryParser(req); err != nil {
		return errx.Wrap(
			err,
			errx.WithType(errx.T_Validation),
			errx.WithCode(codeInvalidQueryParams),
		)
	}

	return nil
}

// decodePath decodes route params using the `params` struct tag.
func decodePath[I any](c *fiber.Ctx, req I) error {
	if len(c.AllParams()) == 0 {
		return nil
	}

	if err := c.ParamsParser(req); err != nil {
		return errx.Wrap(
			err,
			errx.WithType(errx.T_Validation),
			errx.WithCode(codeInvalidPathParams),
		)
	}

	return nil
}
