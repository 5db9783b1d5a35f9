package types

// UrgencyKind is the bucket an installment falls into relative to today
type UrgencyKind string

const (
	UrgencyOverdue     UrgencyKind = "overdue"
	UrgencyDueToday    UrgencyKind = "due_today"
	UrgencyDueTomorrow UrgencyKind = "due_tomorrow"
	UrgencyUpcoming    UrgencyKind = "upcoming"
	UrgencySettled     UrgencyKind = "settled"
	UrgencyNotRelevant UrgencyKind = "not_relevant"
)

const (
	// MaxOverdueDays is how far past its due date an installment is still shown
	MaxOverdueDays = 30
	// MaxUpcomingDays is how far ahead of its due date an installment is shown
	MaxUpcomingDays = 90
)

// Urgency is the classification of one installment for one day.
// Days is the overdue count for UrgencyOverdue and the days left for
// UrgencyUpcoming; it is zero for the other kinds.
type Urgency struct {
	Kind UrgencyKind `json:"kind"`
	Days int         `json:"days,omitempty"`
}

// IsVisible reports whether the installment belongs in the display window
func (u Urgency) IsVisible() bool {
	return u.Kind != UrgencyNotRelevant && u.Kind != UrgencySettled
}

// AlertSeverity is the severity an alert is raised with
type AlertSeverity string

const (
	AlertSeverityInfo    AlertSeverity = "info"
	AlertSeverityWarning AlertSeverity = "warning"
	AlertSeverityError   AlertSeverity = "error"
)

// OverdueErrorDays is the overdue count from which alerts are raised as errors
const OverdueErrorDays = 7
