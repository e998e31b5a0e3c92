package broadcast

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/code19m/errx"

	"github.com/rise-and-shine/voiceout/meta"
	"github.com/rise-and-shine/voiceout/observability/logger"
)

// TopicPostCreated carries posts right after they were committed.
const TopicPostCreated = "voice_out.created"

const metadataTraceID = "trace_id"

// Bus is an in-process pub/sub built on watermill's go channel implementation.
// Publishing blocks until every subscriber acknowledged the message or the
// publisher context is done.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates a bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{BlockPublishUntilSubscriberAck: true},
			newLoggerAdapter(logger.Named("broadcast.bus")),
		),
	}
}

// PublishPostCreated publishes post (any JSON-marshalable value). Without
// subscribers the message is dropped. When ctx is done before the subscribers
// acknowledged, it returns ctx.Err() while delivery goes on in the background.
func (b *Bus) PublishPostCreated(ctx context.Context, post any) error {
	payload, err := json.Marshal(post)
	if err != nil {
		return errx.Wrap(err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataTraceID, meta.Find(ctx, meta.TraceID))
	msg.SetContext(ctx)

	done := make(chan error, 1)
	go func() {
		done <- b.pubsub.Publish(TopicPostCreated, msg)
	}()

	select {
	case err := <-done:
		return errx.Wrap(err)
	case <-ctx.Done():
		return errx.Wrap(ctx.Err(), errx.WithDetails(errx.D{"topic": TopicPostCreated, "message_uuid": msg.UUID}))
	}
}

// Subscribe returns the post-created stream. It ends when ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	msgs, err := b.pubsub.Subscribe(ctx, TopicPostCreated)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return msgs, nil
}

// Close stops the bus and ends every subscription.
func (b *Bus) Close() error {
	return errx.Wrap(b.pubsub.Close())
}

// Consume subscribes the hub to post-created events and fans each one out to
// all connections before acknowledging it. The subscription is active when
// Consume returns; processing continues in the background until ctx is done.
func (h *Hub) Consume(ctx context.Context, bus *Bus) error {
	msgs, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			msgCtx := meta.InjectMetaToContext(context.Background(), map[meta.ContextKey]string{
				meta.TraceID: msg.Metadata.Get(metadataTraceID),
			})

			h.Broadcast(msgCtx, Message{Type: TypeVoiceOut, Data: json.RawMessage(msg.Payload)})
			msg.Ack()
		}
		h.log.Debug("post-created subscription closed")
	}()

	return nil
}
