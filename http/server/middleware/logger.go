package middleware

import (
	"time"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/voiceout/http/server"
	"github.com/rise-and-shine/voiceout/observability/logger"
)

// NewLoggerMW creates a middleware that writes one access log line per request.
// The level follows the status class: info for 2xx/3xx, warn for 4xx, error for 5xx.
func NewLoggerMW(log logger.Logger) server.Middleware {
	log = log.Named("middleware.logger")

	return server.Middleware{
		Priority: 500,
		Handler: func(c *fiber.Ctx) error {
			start := time.Now()

			err := c.Next()

			// error handler runs after us, so derive the status it is going to write
			statusCode := c.Response().StatusCode()
			if err != nil && statusCode < fiber.StatusBadRequest {
				statusCode = server.StatusCode(errx.GetType(err))
			}

			l := log.WithContext(c.UserContext()).
				With("http_status_code", statusCode).
				With("http_method", c.Method()).
				With("http_path", c.Path()).
				With("http_route", c.Route().Path).
				With("duration", time.Since(start)).
				With("request_size", c.Request().Header.ContentLength())

			switch {
			case statusCode >= fiber.StatusInternalServerError:
				l.Errorx(err)
			case statusCode >= fiber.StatusBadRequest:
				l.Warnx(err)
			default:
				l.Info("request processed successfully")
			}

			return err
		},
	}
}
