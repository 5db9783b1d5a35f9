package notification

import (
	"fmt"
	"time"

	"github.com/practicedesk/billing/internal/types"
)

// DedupKey identifies one alert of one installment on one calendar day.
// It is derived only from data so that independent dispatchers agree on it.
type DedupKey struct {
	InstallmentID string
	Day           time.Time
}

// NewDedupKey builds the key of an installment for the given day
func NewDedupKey(installmentID string, day time.Time) DedupKey {
	return DedupKey{
		InstallmentID: installmentID,
		Day:           types.NewDate(day.Date()),
	}
}

func (k DedupKey) String() string {
	return fmt.Sprintf("%s@%s", k.InstallmentID, types.FormatDate(k.Day))
}

// Alert is what the dispatcher raises for one installment
type Alert struct {
	Key        DedupKey            `json:"-"`
	Severity   types.AlertSeverity `json:"severity"`
	Message    string              `json:"message"`
	Urgency    types.Urgency       `json:"urgency"`
	Context    AlertContext        `json:"context"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// AlertContext carries the installment details shown next to an alert
type AlertContext struct {
	InstallmentID string    `json:"installment_id"`
	ClientName    string    `json:"client_name"`
	Amount        string    `json:"amount"`
	DueDate       time.Time `json:"due_date"`
}
