package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/rise-and-shine/voiceout/http/server"
)

// NewCORSMW allows cross-origin requests from any origin.
// X-Total-Count is exposed so browsers can read it on paginated lists.
func NewCORSMW() server.Middleware {
	return server.Middleware{
		Priority: 950,
		Handler: cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: strings.Join([]string{
				fiber.MethodGet,
				fiber.MethodPost,
				fiber.MethodHead,
				fiber.MethodPut,
				fiber.MethodDelete,
				fiber.MethodPatch,
			}, ","),
			ExposeHeaders: "X-Total-Count,X-Trace-ID",
		}),
	}
}
