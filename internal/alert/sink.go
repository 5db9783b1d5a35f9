package alert

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/practicedesk/billing/internal/config"
	"github.com/practicedesk/billing/internal/domain/notification"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/pubsub"
	"github.com/practicedesk/billing/internal/types"
)

// Sink is where raised payment alerts end up. Emit is fire-and-forget.
type Sink interface {
	Emit(ctx context.Context, alert *notification.Alert)
}

// logSink writes alerts to the structured log
type logSink struct {
	logger *logger.Logger
}

// NewLogSink returns a sink that logs every alert at its severity
func NewLogSink(logger *logger.Logger) Sink {
	return &logSink{logger: logger}
}

func (s *logSink) Emit(_ context.Context, a *notification.Alert) {
	fields := []interface{}{
		"installment_id", a.Context.InstallmentID,
		"client_name", a.Context.ClientName,
		"amount", a.Context.Amount,
		"due_date", types.FormatDate(a.Context.DueDate),
		"urgency", a.Urgency.Kind,
		"days", a.Urgency.Days,
	}

	switch a.Severity {
	case types.AlertSeverityError:
		s.logger.Errorw(a.Message, fields...)
	case types.AlertSeverityWarning:
		s.logger.Warnw(a.Message, fields...)
	default:
		s.logger.Infow(a.Message, fields...)
	}
}

// publisherSink publishes alerts to a pubsub topic so that UI surfaces can
// pick them up as toasts
type publisherSink struct {
	pubSub pubsub.Publisher
	topic  string
	logger *logger.Logger
}

// NewPublisherSink returns a sink that publishes alerts as JSON messages
func NewPublisherSink(pubSub pubsub.Publisher, cfg *config.Configuration, logger *logger.Logger) Sink {
	return &publisherSink{
		pubSub: pubSub,
		topic:  cfg.Alerts.Topic,
		logger: logger,
	}
}

func (s *publisherSink) Emit(ctx context.Context, a *notification.Alert) {
	payload, err := json.Marshal(a)
	if err != nil {
		s.logger.Errorw("failed to marshal payment alert", "error", err)
		return
	}

	msg := message.NewMessage(types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ALERT), payload)
	msg.Metadata.Set("severity", string(a.Severity))
	msg.Metadata.Set("dedup_key", a.Key.String())

	if err := s.pubSub.Publish(ctx, s.topic, msg); err != nil {
		s.logger.Errorw("failed to publish payment alert",
			"error", err,
			"installment_id", a.Context.InstallmentID,
			"topic", s.topic,
		)
		return
	}

	s.logger.Debugw("published payment alert",
		"installment_id", a.Context.InstallmentID,
		"severity", a.Severity,
		"topic", s.topic,
	)
}

// multiSink fans an alert out to several sinks
type multiSink []Sink

// NewMultiSink combines sinks, nil entries are skipped
func NewMultiSink(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Emit(ctx context.Context, a *notification.Alert) {
	for _, s := range m {
		s.Emit(ctx, a)
	}
}

// NewSink builds the sink configured for the application
func NewSink(pubSub pubsub.PubSub, cfg *config.Configuration, logger *logger.Logger) Sink {
	sinks := []Sink{NewLogSink(logger)}
	if cfg.Alerts.Publish {
		sinks = append(sinks, NewPublisherSink(pubSub, cfg, logger))
	}
	return NewMultiSink(sinks...)
}
