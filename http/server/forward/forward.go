// Package forward provides helper functions for forwarding HTTP requests to use cases.
package forward

import (
	"fmt"
	"reflect"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/voiceout/mask"
	"github.com/rise-and-shine/voiceout/observability/logger"
	"github.com/rise-and-shine/voiceout/ucdef"
	"github.com/rise-and-shine/voiceout/val"
)

// Request bodies above this size (typically uploads) are not logged.
const maxLogAllowedSize = 10 << 10

// HeaderProvider is implemented by use case outputs that need response headers,
// e.g. a total count next to a paginated list.
type HeaderProvider interface {
	ResponseHeaders() map[string]string
}

// Option customizes the response written by ToUserAction.
type Option func(*options)

type options struct {
	status int
}

// WithStatus sets the success status code. Default is 200.
func WithStatus(status int) Option {
	return func(o *options) {
		o.status = status
	}
}

// ToUserAction forwards a request to a use case that returns a response.
// The input is decoded from the body, then query, then path params, validated
// with val.ValidateSchema and passed to the use case. The output is written as JSON.
//
// I must be a pointer to a struct.
func ToUserAction[I, O any](uc ucdef.UserAction[I, O], opts ...Option) fiber.Handler {
	o := options{status: fiber.StatusOK}
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *fiber.Ctx) error {
		req, err := newRequest[I]()
		if err != nil {
			return errx.Wrap(err)
		}

		if err = decodeBody(c, req); err != nil {
			return errx.Wrap(err)
		}
		if err = decodeQuery(c, req); err != nil {
			return errx.Wrap(err)
		}
		if err = decodePath(c, req); err != nil {
			return errx.Wrap(err)
		}

		log := logger.
			Named("http.handler").
			WithContext(c.UserContext()).
			With("operation_id", uc.OperationID())

		if len(c.Body()) <= maxLogAllowedSize {
			log = log.With("request_body", mask.StructToOrdMap(req))
		} else {
			log = log.With("request_body", fmt.Sprintf("too large for logging: %d bytes", len(c.Body())))
		}

		if err = val.ValidateSchema(req); err != nil {
			return errx.Wrap(err)
		}

		resp, err := uc.Execute(c.UserContext(), req)
		if err != nil {
			return errx.Wrap(err)
		}

		if hp, ok := any(resp).(HeaderProvider); ok {
			for k, v := range hp.ResponseHeaders() {
				c.Set(k, v)
			}
		}

		size, err := writeJSON(c, o.status, resp)
		if err != nil {
			return errx.Wrap(err)
		}

		log.With("response_size", size).Debug("use case executed")
		return nil
	}
}

// newRequest creates a new request of type I.
// It ensures that I is a pointer to a struct.
func newRequest[I any]() (I, error) {
	var req I

	reqType := reflect.TypeOf((*I)(nil)).Elem()
	if reqType.Kind() != reflect.Pointer || reqType.Elem().Kind() != reflect.Struct {
		return req, errx.New("input type I must be a pointer to a struct")
	}

	reqVal := reflect.New(reqType.Elem()).Interface().(I) //nolint:errcheck // safe type assertion
	return reqVal, nil
}

func writeJSON(c *fiber.Ctx, status int, data any) (int, error) {
	raw, err := c.App().Config().JSONEncoder(data)
	if err != nil {
		return 0, errx.Wrap(err)
	}

	c.Status(status)
	c.Response().SetBodyRaw(raw)
	c.Response().Header.SetContentType(fiber.MIMEApplicationJSON)
	return len(raw), nil
}
