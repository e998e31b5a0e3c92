package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.23.1"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/voiceout/http/server"
	"github.com/rise-and-shine/voiceout/meta"
	"github.com/rise-and-shine/voiceout/observability/tracing"
)

const traceIDHeader = "X-Trace-ID"

// NewTracingMW creates a middleware that starts a server span for each request,
// stores the trace id in the request context and echoes it as X-Trace-ID.
func NewTracingMW() server.Middleware {
	return server.Middleware{
		Priority: 900,
		Handler: func(c *fiber.Ctx) error {
			ctx, span := otel.Tracer("http-server").Start(
				c.UserContext(),
				fmt.Sprintf("%s %s", c.Method(), c.Path()),
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			traceID := tracing.GetStartingTraceID(ctx)
			c.Set(traceIDHeader, traceID)
			c.SetUserContext(meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
				meta.TraceID: traceID,
			}))

			err := c.Next()

			route := c.Route().Path
			if route != "" && route != "/" {
				span.SetName(fmt.Sprintf("%s %s", c.Method(), route))
			}

			span.SetAttributes(
				semconv.HTTPMethodKey.String(c.Method()),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPURLKey.String(c.OriginalURL()),
				semconv.HTTPStatusCodeKey.Int(c.Response().StatusCode()),
			)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}

			return err
		},
	}
}
