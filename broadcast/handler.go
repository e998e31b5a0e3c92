package broadcast

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/voiceout/meta"
)

// UpgradeMW rejects requests that are not websocket upgrades.
func UpgradeMW() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler upgrades the request and keeps the connection registered until the
// client goes away. Inbound frames are only read to notice the close.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id := h.Register(conn)

		ctx := meta.InjectMetaToContext(context.Background(), map[meta.ContextKey]string{
			meta.ConnectionID: strconv.FormatUint(id, 10),
			meta.IPAddress:    conn.IP(),
		})
		log := h.log.WithContext(ctx)
		log.Info("websocket connected")

		defer func() {
			if h.Unregister(id) {
				_ = conn.Close()
			}
			log.Info("websocket disconnected")
		}()

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == websocket.TextMessage && !json.Valid(data) {
				log.With("size", len(data)).Debug("discarding non-JSON frame")
				continue
			}
			log.With("size", len(data)).Debug("ignoring inbound frame")
		}
	})
}
