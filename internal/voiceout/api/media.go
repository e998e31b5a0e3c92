package api

import (
	"net/http"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/voiceout/filestore"
)

// Stored names are unique per upload and never rewritten.
const mediaCacheControl = "public, max-age=31536000, immutable"

func serveMedia(store filestore.FileStore, refPrefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ref := refPrefix + c.Params("name")

		file, err := store.Get(c.UserContext(), ref)
		if err != nil {
			return errx.Wrap(err)
		}

		info := file.Info
		c.Set(fiber.HeaderContentType, info.ContentType)
		c.Set(fiber.HeaderCacheControl, mediaCacheControl)
		if !info.LastModified.IsZero() {
			c.Set(fiber.HeaderLastModified, info.LastModified.UTC().Format(http.TimeFormat))
		}

		// fasthttp closes the stream once the body is written
		return c.SendStream(file.Content, int(info.Size))
	}
}
