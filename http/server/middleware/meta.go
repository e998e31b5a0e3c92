package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/voiceout/http/server"
	"github.com/rise-and-shine/voiceout/meta"
)

// NewMetaInjectMW creates a middleware that injects request metadata (client ip,
// user agent, referer and service identity) into the request context, where the
// logger picks it up.
func NewMetaInjectMW(serviceName, serviceVersion string) server.Middleware {
	return server.Middleware{
		Priority: 700,
		Handler: func(c *fiber.Ctx) error {
			ctx := meta.InjectMetaToContext(c.UserContext(), map[meta.ContextKey]string{
				meta.IPAddress:      c.IP(),
				meta.UserAgent:      c.Get(fiber.HeaderUserAgent),
				meta.RemoteAddr:     c.Context().RemoteAddr().String(),
				meta.Referer:        c.Get(fiber.HeaderReferer),
				meta.ServiceName:    serviceName,
				meta.ServiceVersion: serviceVersion,
				meta.AcceptLanguage: c.Get(fiber.HeaderAcceptLanguage),
			})
			c.SetUserContext(ctx)

			return c.Next()
		},
	}
}
