// Package api mounts the voiceout routes on a fiber router.
package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/voiceout/broadcast"
	"github.com/rise-and-shine/voiceout/filestore"
	"github.com/rise-and-shine/voiceout/http/server/forward"
	"github.com/rise-and-shine/voiceout/internal/voiceout/repo"
	"github.com/rise-and-shine/voiceout/internal/voiceout/usecase"
	"github.com/rise-and-shine/voiceout/upload"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Posts     repo.PostRepo
	Feedbacks repo.FeedbackRepo
	Media     filestore.FileStore
	Acceptor  *upload.Acceptor
	Publisher usecase.Publisher
	Hub       *broadcast.Hub

	// MediaRoute is where stored media is served from, for example "/uploads".
	// Empty disables serving, the minio backend hands out public URLs instead.
	MediaRoute string
	// MediaRefPrefix turns the served name back into a filestore ref.
	MediaRefPrefix string

	UseCaseOptions []usecase.Option
}

// NewRouter returns a register function for server.HTTPServer.RegisterRouter.
func NewRouter(d Deps) func(r fiber.Router) {
	return func(r fiber.Router) {
		r.Get("/health", health)

		a := r.Group("/api")
		a.Post("/postVoiceOut",
			upload.NewInterceptMW(d.Acceptor),
			forward.ToUserAction(usecase.NewCreatePost(d.Posts, d.Publisher, d.UseCaseOptions...)),
		)
		a.Get("/getVoiceOuts", forward.ToUserAction(usecase.NewListPosts(d.Posts)))
		a.Delete("/deleteVoiceOut/:id", forward.ToUserAction(usecase.NewDeletePost(d.Posts, d.Media)))
		a.Post("/createFeedback",
			forward.ToUserAction(usecase.NewCreateFeedback(d.Feedbacks, d.UseCaseOptions...), forward.WithStatus(fiber.StatusCreated)),
		)

		if d.MediaRoute != "" {
			r.Get(strings.TrimSuffix(d.MediaRoute, "/")+"/:name", serveMedia(d.Media, d.MediaRefPrefix))
		}

		if d.Hub != nil {
			ws := d.Hub.Handler()
			r.Get("/ws", broadcast.UpgradeMW(), ws)
			r.Get("/", broadcast.UpgradeMW(), ws)
		}
	}
}

func health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
