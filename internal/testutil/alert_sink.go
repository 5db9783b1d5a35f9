package testutil

import (
	"context"
	"sync"

	"github.com/practicedesk/billing/internal/domain/notification"
)

// RecordingAlertSink implements alert.Sink and keeps every emitted alert
type RecordingAlertSink struct {
	mu     sync.Mutex
	alerts []*notification.Alert
}

func NewRecordingAlertSink() *RecordingAlertSink {
	return &RecordingAlertSink{}
}

func (s *RecordingAlertSink) Emit(_ context.Context, a *notification.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
}

// Alerts returns a copy of the emitted alerts in emission order
func (s *RecordingAlertSink) Alerts() []*notification.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*notification.Alert(nil), s.alerts...)
}

// Count returns the number of emitted alerts
func (s *RecordingAlertSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

// ForInstallment returns the alerts emitted for one installment
func (s *RecordingAlertSink) ForInstallment(id string) []*notification.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*notification.Alert
	for _, a := range s.alerts {
		if a.Context.InstallmentID == id {
			out = append(out, a)
		}
	}
	return out
}

func (s *RecordingAlertSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = nil
}
