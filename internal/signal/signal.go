package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/practicedesk/billing/internal/config"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/pubsub"
	"github.com/practicedesk/billing/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
)

// Signal is a typed change notification
type Signal struct {
	ID         string           `json:"id"`
	Type       types.SignalType `json:"type"`
	AffectedID string           `json:"affected_id,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// New builds a signal of the given type
func New(signalType types.SignalType, affectedID string) Signal {
	return Signal{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SIGNAL),
		Type:       signalType,
		AffectedID: affectedID,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler reacts to one signal
type Handler func(ctx context.Context, sig Signal) error

// Subscription is a live subscription to the bus
type Subscription interface {
	// Close stops delivery and waits for the in-flight handler to return
	Close()
}

// Bus is the publish/subscribe channel used to propagate changes between
// the parts of the application that keep their own view of installments
type Bus interface {
	Publish(ctx context.Context, sig Signal) error
	// Subscribe delivers signals of the given types, or of every type when none is given
	Subscribe(ctx context.Context, handler Handler, signalTypes ...types.SignalType) (Subscription, error)
}

type bus struct {
	pubSub pubsub.PubSub
	topic  string
	logger *logger.Logger
}

// NewBus creates a bus on top of a pubsub topic
func NewBus(pubSub pubsub.PubSub, cfg *config.Configuration, logger *logger.Logger) Bus {
	return &bus{
		pubSub: pubSub,
		topic:  cfg.Signals.Topic,
		logger: logger,
	}
}

func (b *bus) Publish(ctx context.Context, sig Signal) error {
	if err := sig.Type.Validate(); err != nil {
		return err
	}
	if sig.ID == "" {
		sig.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SIGNAL)
	}
	if sig.OccurredAt.IsZero() {
		sig.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(sig)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode change signal").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(sig.ID, payload)
	msg.Metadata.Set("signal_type", string(sig.Type))

	b.logger.Debugw("publishing signal",
		"signal_id", sig.ID,
		"signal_type", sig.Type,
		"affected_id", sig.AffectedID,
		"topic", b.topic,
	)

	if err := b.pubSub.Publish(ctx, b.topic, msg); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to publish change signal").
			Mark(ierr.ErrSystem)
	}
	return nil
}

func (b *bus) Subscribe(ctx context.Context, handler Handler, signalTypes ...types.SignalType) (Subscription, error) {
	if handler == nil {
		return nil, ierr.NewError("signal handler is required").
			WithHint("A handler must be provided to subscribe").
			Mark(ierr.ErrValidation)
	}

	subCtx, cancel := context.WithCancel(ctx)
	messages, err := b.pubSub.Subscribe(subCtx, b.topic)
	if err != nil {
		cancel()
		return nil, ierr.WithError(err).
			WithHint("Failed to subscribe to change signals").
			Mark(ierr.ErrSystem)
	}

	sub := &subscription{cancel: cancel}
	sub.wg.Go(func() {
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				b.deliver(subCtx, msg, handler, signalTypes)
			}
		}
	})

	return sub, nil
}

func (b *bus) deliver(ctx context.Context, msg *message.Message, handler Handler, signalTypes []types.SignalType) {
	// gochannel waits for the ack before it hands over the next message
	defer msg.Ack()

	var sig Signal
	if err := json.Unmarshal(msg.Payload, &sig); err != nil {
		b.logger.Errorw("dropping undecodable signal",
			"message_uuid", msg.UUID,
			"error", err,
		)
		return
	}

	if len(signalTypes) > 0 && !lo.Contains(signalTypes, sig.Type) {
		return
	}

	if err := handler(ctx, sig); err != nil {
		b.logger.Errorw("signal handler failed",
			"signal_id", sig.ID,
			"signal_type", sig.Type,
			"error", err,
		)
	}
}

type subscription struct {
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

func (s *subscription) Close() {
	s.cancel()
	s.wg.Wait()
}
