package alert

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/practicedesk/billing/internal/config"
	"github.com/practicedesk/billing/internal/domain/notification"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/testutil"
	"github.com/practicedesk/billing/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newAlert(severity types.AlertSeverity) *notification.Alert {
	day := types.NewDate(2024, time.March, 5)
	return &notification.Alert{
		Key:      notification.NewDedupKey("client_ana-monthly-1", day),
		Severity: severity,
		Message:  "Payment 1/3 of Ana (100.00) is due today",
		Urgency:  types.Urgency{Kind: types.UrgencyDueToday},
		Context: notification.AlertContext{
			InstallmentID: "client_ana-monthly-1",
			ClientName:    "Ana",
			Amount:        "100.00",
			DueDate:       day,
		},
		OccurredAt: time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC),
	}
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestLogSinkLogsAtSeverity(t *testing.T) {
	tests := []struct {
		severity types.AlertSeverity
		want     zapcore.Level
	}{
		{types.AlertSeverityError, zapcore.ErrorLevel},
		{types.AlertSeverityWarning, zapcore.WarnLevel},
		{types.AlertSeverityInfo, zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			log, logs := observedLogger()
			NewLogSink(log).Emit(context.Background(), newAlert(tt.severity))

			entries := logs.AllUntimed()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level)
			assert.Equal(t, "Payment 1/3 of Ana (100.00) is due today", entries[0].Message)

			fields := entries[0].ContextMap()
			assert.Equal(t, "client_ana-monthly-1", fields["installment_id"])
			assert.Equal(t, "2024-03-05", fields["due_date"])
			assert.Equal(t, "100.00", fields["amount"])
		})
	}
}

func TestPublisherSinkPublishesJSON(t *testing.T) {
	cfg := config.GetDefaultConfig()
	ps := testutil.NewInMemoryPubSub()

	NewPublisherSink(ps, cfg, logger.NewNoopLogger()).
		Emit(context.Background(), newAlert(types.AlertSeverityWarning))

	msgs := ps.GetMessages(cfg.Alerts.Topic)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].UUID, types.UUID_PREFIX_ALERT)
	assert.Equal(t, "warning", msgs[0].Metadata.Get("severity"))
	assert.Equal(t, "client_ana-monthly-1@2024-03-05", msgs[0].Metadata.Get("dedup_key"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &payload))
	assert.Equal(t, "warning", payload["severity"])
	assert.Equal(t, "Payment 1/3 of Ana (100.00) is due today", payload["message"])
	assert.NotContains(t, payload, "Key")

	alertContext, ok := payload["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "client_ana-monthly-1", alertContext["installment_id"])
	assert.Equal(t, "Ana", alertContext["client_name"])

	urgency, ok := payload["urgency"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "due_today", urgency["kind"])
}

func TestMultiSinkSkipsNilSinks(t *testing.T) {
	first := testutil.NewRecordingAlertSink()
	second := testutil.NewRecordingAlertSink()

	sink := NewMultiSink(nil, first, nil, second)
	assert.Len(t, sink, 2)

	sink.Emit(context.Background(), newAlert(types.AlertSeverityInfo))
	assert.Equal(t, 1, first.Count())
	assert.Equal(t, 1, second.Count())

	assert.NotPanics(t, func() {
		NewMultiSink().Emit(context.Background(), newAlert(types.AlertSeverityInfo))
	})
}

func TestNewSinkPublishesOnlyWhenEnabled(t *testing.T) {
	tests := []struct {
		name    string
		publish bool
		want    int
	}{
		{"log only", false, 0},
		{"log and publish", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.GetDefaultConfig()
			cfg.Alerts.Publish = tt.publish
			ps := testutil.NewInMemoryPubSub()
			log, logs := observedLogger()

			NewSink(ps, cfg, log).Emit(context.Background(), newAlert(types.AlertSeverityError))

			assert.Len(t, ps.GetMessages(cfg.Alerts.Topic), tt.want)
			assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		})
	}
}
