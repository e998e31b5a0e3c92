package broadcast_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/voiceout/broadcast"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) messages(t *testing.T) []broadcast.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]broadcast.Message, 0, len(c.frames))
	for _, f := range c.frames {
		var m broadcast.Message
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// stalledConn never accepts a frame, like a peer that stopped reading.
// Writes fail once the write deadline passes unless ignoreDeadline is set.
type stalledConn struct {
	ignoreDeadline bool

	mu       sync.Mutex
	deadline time.Time
	closed   bool
	release  chan struct{}
	once     sync.Once
}

func newStalledConn(ignoreDeadline bool) *stalledConn {
	return &stalledConn{ignoreDeadline: ignoreDeadline, release: make(chan struct{})}
}

func (c *stalledConn) WriteMessage(int, []byte) error {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	if c.ignoreDeadline || deadline.IsZero() {
		<-c.release
		return errors.New("use of closed network connection")
	}

	select {
	case <-time.After(time.Until(deadline)):
		return errors.New("i/o timeout")
	case <-c.release:
		return errors.New("use of closed network connection")
	}
}

func (c *stalledConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *stalledConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.unblock()
	return nil
}

func (c *stalledConn) unblock() { c.once.Do(func() { close(c.release) }) }

func (c *stalledConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHub_Broadcast(t *testing.T) {
	ctx := context.Background()
	hub := broadcast.NewHub()

	a, b, broken := &fakeConn{}, &fakeConn{}, &fakeConn{fail: true}
	hub.Register(a)
	idB := hub.Register(b)
	hub.Register(broken)
	require.Equal(t, 3, hub.Len())

	hub.Broadcast(ctx, broadcast.Message{Type: broadcast.TypeVoiceOut, Data: map[string]string{"voice_out": "first"}})

	assert.Len(t, a.messages(t), 1)
	assert.Len(t, b.messages(t), 1)
	assert.Equal(t, broadcast.TypeVoiceOut, a.messages(t)[0].Type)
	assert.Equal(t, map[string]any{"voice_out": "first"}, a.messages(t)[0].Data)

	// failing connection is closed and forgotten, others keep receiving
	assert.True(t, broken.isClosed())
	assert.Equal(t, 2, hub.Len())

	require.True(t, hub.Unregister(idB))
	assert.False(t, hub.Unregister(idB))

	hub.Broadcast(ctx, broadcast.Message{Type: broadcast.TypeVoiceOut, Data: "second"})
	assert.Len(t, a.messages(t), 2)
	assert.Len(t, b.messages(t), 1)
	assert.False(t, b.isClosed())
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := broadcast.NewHub()
	assert.NotPanics(t, func() {
		hub.Broadcast(context.Background(), broadcast.Message{Type: broadcast.TypeVoiceOut, Data: "nobody"})
	})
}

func TestHub_ConcurrentRegisterAndBroadcast(t *testing.T) {
	ctx := context.Background()
	hub := broadcast.NewHub()

	const n = 50
	conns := make([]*fakeConn, n)

	var wg sync.WaitGroup
	for i := range n {
		conns[i] = &fakeConn{}
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Register(conns[i])
		}()
		go func() {
			defer wg.Done()
			hub.Broadcast(ctx, broadcast.Message{Type: broadcast.TypeVoiceOut, Data: i})
		}()
	}
	wg.Wait()

	assert.Equal(t, n, hub.Len())

	hub.Close()
	assert.Zero(t, hub.Len())
	for _, c := range conns {
		assert.True(t, c.isClosed())
	}
}

func TestBus_PublishReturnsAfterFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := broadcast.NewBus()
	defer bus.Close()

	hub := broadcast.NewHub()
	require.NoError(t, hub.Consume(ctx, bus))

	early := &fakeConn{}
	hub.Register(early)

	for _, text := range []string{"one", "two"} {
		require.NoError(t, bus.PublishPostCreated(ctx, map[string]string{"voice_out": text}))
	}

	// publish blocks until the hub acked, so no waiting is needed
	msgs := early.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]any{"voice_out": "one"}, msgs[0].Data)
	assert.Equal(t, map[string]any{"voice_out": "two"}, msgs[1].Data)

	late := &fakeConn{}
	hub.Register(late)
	assert.Empty(t, late.messages(t))
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := broadcast.NewBus()
	defer bus.Close()

	require.NoError(t, bus.PublishPostCreated(context.Background(), map[string]string{"voice_out": "lost"}))
}

func TestHub_BroadcastDropsStalledConnection(t *testing.T) {
	hub := broadcast.NewHub(broadcast.WithWriteTimeout(50 * time.Millisecond))

	stalled, healthy := newStalledConn(false), &fakeConn{}
	hub.Register(stalled)
	hub.Register(healthy)

	done := make(chan struct{})
	go func() {
		hub.Broadcast(context.Background(), broadcast.Message{Type: broadcast.TypeVoiceOut, Data: "first"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		stalled.unblock()
		t.Fatal("broadcast did not return after the write timeout")
	}

	assert.True(t, stalled.isClosed())
	assert.Equal(t, 1, hub.Len())
	assert.Len(t, healthy.messages(t), 1)

	hub.Broadcast(context.Background(), broadcast.Message{Type: broadcast.TypeVoiceOut, Data: "second"})
	assert.Len(t, healthy.messages(t), 2)
}

func TestBus_PublishGivesUpWhenContextDone(t *testing.T) {
	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := broadcast.NewBus()
	defer bus.Close()

	hub := broadcast.NewHub()
	require.NoError(t, hub.Consume(subCtx, bus))

	stalled := newStalledConn(true)
	defer stalled.unblock()
	hub.Register(stalled)

	ctx, cancelReq := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancelReq()

	start := time.Now()
	err := bus.PublishPostCreated(ctx, map[string]string{"voice_out": "stuck"})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 2*time.Second)
}
