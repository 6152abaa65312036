package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-quiz-session/credentials"
	"github.com/rs/zerolog/log"
)

const TopicCredentialsChanged = "credentials.changed"

var _ credentials.Notifier = (*Bus)(nil)

// Bus carries credential change events between the tabs of one process.
// Every subscriber receives every event, including events its own tab emitted.
type Bus struct {
	pubsub *gochannel.GoChannel
	topic  string
}

func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewLogger()),
		topic:  TopicCredentialsChanged,
	}
}

func (b *Bus) Publish(event credentials.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("origin", event.Origin)
	msg.Metadata.Set("op", string(event.Op))

	if err := b.pubsub.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe delivers events to handle until ctx is done. Events arriving
// from separate publishes may be handled in any order.
func (b *Bus) Subscribe(ctx context.Context, handle func(credentials.ChangeEvent)) error {
	messages, err := b.pubsub.Subscribe(ctx, b.topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.topic, err)
	}

	go func() {
		for msg := range messages {
			var event credentials.ChangeEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping undecodable change event")
				msg.Ack()
				continue
			}
			handle(event)
			msg.Ack()
		}
	}()
	return nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// zerologAdapter routes watermill's logging to zerolog
type zerologAdapter struct {
	fields watermill.LogFields
}

func NewLogger() watermill.LoggerAdapter {
	return zerologAdapter{}
}

func (a zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	log.Error().Err(err).Fields(map[string]interface{}(a.fields.Add(fields))).Msg(msg)
}

func (a zerologAdapter) Info(msg string, fields watermill.LogFields) {
	log.Debug().Fields(map[string]interface{}(a.fields.Add(fields))).Msg(msg)
}

func (a zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	log.Trace().Fields(map[string]interface{}(a.fields.Add(fields))).Msg(msg)
}

func (a zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	log.Trace().Fields(map[string]interface{}(a.fields.Add(fields))).Msg(msg)
}

func (a zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return zerologAdapter{fields: a.fields.Add(fields)}
}
