package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/Nafis5858/Krishak/pkg/logger"
)

const (
	envelopeVersion       = 1
	attrEventID           = "event_id"
	attrKind              = "kind"
	defaultPublishTimeout = 10 * time.Second
)

// Emitter hands a notification event to whatever delivers it.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// DirectEmitter writes inbox rows in-process.
type DirectEmitter struct {
	repo Repository
}

func NewDirectEmitter(repo Repository) (*DirectEmitter, error) {
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	return &DirectEmitter{repo: repo}, nil
}

func (d *DirectEmitter) Emit(ctx context.Context, event Event) error {
	if err := event.validate(); err != nil {
		return err
	}
	return d.repo.CreateBatch(ctx, event.Rows())
}

// Envelope is the Pub/Sub message body.
type Envelope struct {
	Version int   `json:"version"`
	Event   Event `json:"event"`
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubEmitter publishes events for the notification worker to persist.
type PubSubEmitter struct {
	pub publisher
}

func NewPubSubEmitter(p *gcppubsub.Publisher) (*PubSubEmitter, error) {
	if p == nil {
		return nil, errors.New("notification publisher required")
	}
	return &PubSubEmitter{pub: &gcpPublisher{Publisher: p}}, nil
}

func (p *PubSubEmitter) Emit(ctx context.Context, event Event) error {
	if err := event.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(Envelope{Version: envelopeVersion, Event: event})
	if err != nil {
		return fmt.Errorf("encode notification envelope: %w", err)
	}
	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			attrEventID: event.ID.String(),
			attrKind:    string(event.Kind),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := p.pub.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish notification %s: %w", event.ID, err)
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}

type failureRecorder interface {
	NotificationFailed(kind string)
}

// Dispatcher is what services call after their transaction commits. Delivery
// problems are logged and counted but never surface to the caller.
type Dispatcher struct {
	emitter Emitter
	logg    *logger.Logger
	metrics failureRecorder
}

func NewDispatcher(emitter Emitter, logg *logger.Logger, metrics failureRecorder) *Dispatcher {
	return &Dispatcher{emitter: emitter, logg: logg, metrics: metrics}
}

func (d *Dispatcher) Dispatch(ctx context.Context, events ...Event) {
	if d == nil || d.emitter == nil {
		return
	}
	for _, event := range events {
		if err := d.emitter.Emit(ctx, event); err != nil {
			if d.metrics != nil {
				d.metrics.NotificationFailed(string(event.Kind))
			}
			if d.logg != nil {
				fields := map[string]any{"kind": event.Kind, "event_id": event.ID.String()}
				if event.OrderID != nil {
					fields["order_id"] = event.OrderID.String()
				}
				d.logg.Error(d.logg.WithFields(ctx, fields), "notification dispatch failed", err)
			}
		}
	}
}
