package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/Nafis5858/Krishak/pkg/logger"
)

const notificationConsumerName = "notification-writer"

type eventWriter interface {
	Emit(ctx context.Context, event Event) error
}

type processedTracker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// Consumer persists notification events published by the API.
type Consumer struct {
	writer       eventWriter
	subscription receiver
	idempotency  processedTracker
	logg         *logger.Logger
}

// NewConsumer builds the notification worker's message handler. writer is
// normally a DirectEmitter.
func NewConsumer(writer eventWriter, subscription *gcppubsub.Subscriber, tracker processedTracker, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	return newConsumer(writer, subscription, tracker, logg)
}

func newConsumer(writer eventWriter, subscription receiver, tracker processedTracker, logg *logger.Logger) (*Consumer, error) {
	if writer == nil {
		return nil, fmt.Errorf("notification writer required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		writer:       writer,
		subscription: subscription,
		idempotency:  tracker,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_id":   attrs[attrEventID],
		"kind":       attrs[attrKind],
	})

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	if envelope.Version != envelopeVersion {
		c.logg.Warn(logCtx, fmt.Sprintf("skipping envelope version %d", envelope.Version))
		return processResult{ack: true}
	}
	event := envelope.Event
	if err := event.validate(); err != nil {
		c.logg.Error(logCtx, "invalid notification event", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumerName, event.ID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.writer.Emit(ctx, event); err != nil {
		c.logg.Error(logCtx, "notification persistence failed", err)
		_ = c.idempotency.Release(ctx, notificationConsumerName, event.ID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, fmt.Sprintf("stored %d notifications", len(event.Rows())))
	return processResult{ack: true}
}
