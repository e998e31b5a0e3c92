// Package broadcast pushes newly created posts to every connected websocket client.
//
// The Hub keeps an explicit registry of open connections. Posts reach it
// through an in-process Bus, which only returns from a publish once the hub
// has written the message to every registered connection.
package broadcast

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/voiceout/meta"
	"github.com/rise-and-shine/voiceout/observability/logger"
)

// TypeVoiceOut is the message type of a new post.
const TypeVoiceOut = "voice_out"

// textMessage is the websocket text frame opcode (RFC 6455).
const textMessage = 1

// DefaultWriteTimeout bounds a single frame write to one connection.
const DefaultWriteTimeout = 5 * time.Second

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	id   uint64
	conn Conn

	// gorilla style connections allow one concurrent writer
	mu sync.Mutex
}

func (c *client) send(data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(textMessage, data)
}

// Hub is a registry of open connections. It is safe for concurrent use.
type Hub struct {
	mu           sync.RWMutex
	clients      map[uint64]*client
	nextID       atomic.Uint64
	writeTimeout time.Duration
	log          logger.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithWriteTimeout overrides DefaultWriteTimeout. Non-positive values are ignored.
func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:      make(map[uint64]*client),
		writeTimeout: DefaultWriteTimeout,
		log:          logger.Named("broadcast.hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds conn and returns its id.
func (h *Hub) Register(conn Conn) uint64 {
	c := &client{id: h.nextID.Add(1), conn: conn}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	return c.id
}

// Unregister removes the connection with id. It reports whether it was registered.
// The connection itself is not closed.
func (h *Hub) Unregister(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[id]; !ok {
		return false
	}
	delete(h.clients, id)
	return true
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every registered connection. Connections that fail
// or do not accept the frame within the write timeout are closed and removed;
// the failure is logged and never returned.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	h.mu.RLock()
	snapshot := lo.Values(h.clients)
	h.mu.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithContext(ctx).Errorx(errx.Wrap(err, errx.WithDetails(errx.D{"type": msg.Type})))
		return
	}

	for _, c := range snapshot {
		if err := c.send(data, h.writeTimeout); err != nil {
			h.drop(ctx, c, err)
		}
	}
}

// Close closes and removes every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[uint64]*client)
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) drop(ctx context.Context, c *client, cause error) {
	ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
		meta.ConnectionID: strconv.FormatUint(c.id, 10),
	})
	h.log.WithContext(ctx).With("error", cause.Error()).Warn("broadcast send failed, dropping connection")

	if h.Unregister(c.id) {
		_ = c.conn.Close()
	}
}
