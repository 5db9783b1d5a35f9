package service

import (
	"time"

	"github.com/practicedesk/billing/internal/domain/installment"
	"github.com/practicedesk/billing/internal/types"
)

// Classify buckets an installment relative to today. Overdue installments
// are shown for MaxOverdueDays, upcoming ones MaxUpcomingDays ahead.
func Classify(inst *installment.Installment, today time.Time) types.Urgency {
	if inst.Settled {
		return types.Urgency{Kind: types.UrgencySettled}
	}

	// positive when the due date has passed
	offset := types.DaysBetween(inst.DueDate, today)
	switch {
	case offset > types.MaxOverdueDays:
		return types.Urgency{Kind: types.UrgencyNotRelevant}
	case offset > 0:
		return types.Urgency{Kind: types.UrgencyOverdue, Days: offset}
	case offset == 0:
		return types.Urgency{Kind: types.UrgencyDueToday}
	case offset == -1:
		return types.Urgency{Kind: types.UrgencyDueTomorrow}
	case offset >= -types.MaxUpcomingDays:
		return types.Urgency{Kind: types.UrgencyUpcoming, Days: -offset}
	default:
		return types.Urgency{Kind: types.UrgencyNotRelevant}
	}
}

// Severity is the severity an alert for the given urgency is raised with
func Severity(u types.Urgency) types.AlertSeverity {
	switch u.Kind {
	case types.UrgencyOverdue:
		if u.Days >= types.OverdueErrorDays {
			return types.AlertSeverityError
		}
		return types.AlertSeverityWarning
	case types.UrgencyDueToday:
		return types.AlertSeverityWarning
	default:
		return types.AlertSeverityInfo
	}
}

// timingMatches reports whether an installment with the given timing alerts
// on a day it is classified as u. Overdue installments alert regardless.
func timingMatches(timing types.NotificationTiming, u types.Urgency) bool {
	if u.Kind == types.UrgencyOverdue {
		return true
	}
	if timing.OrDefault() == types.NotificationTimingNextWeek {
		return u.Kind == types.UrgencyDueTomorrow ||
			(u.Kind == types.UrgencyUpcoming && u.Days <= 7)
	}

	days, ok := timing.DaysBefore()
	if !ok {
		return false
	}
	switch u.Kind {
	case types.UrgencyDueToday:
		return days == 0
	case types.UrgencyDueTomorrow:
		return days == 1
	case types.UrgencyUpcoming:
		return days == u.Days
	}
	return false
}
