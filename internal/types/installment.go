package types

import (
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/samber/lo"
)

// InstallmentKind is the cadence of the agreement an installment belongs to
type InstallmentKind string

const (
	InstallmentKindMonthly InstallmentKind = "monthly"
	InstallmentKindWeekly  InstallmentKind = "weekly"
)

func (k InstallmentKind) Validate() error {
	allowed := []InstallmentKind{
		InstallmentKindMonthly,
		InstallmentKindWeekly,
	}
	if !lo.Contains(allowed, k) {
		return ierr.NewError("invalid installment kind").
			WithHintf("Installment kind must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// NotificationTiming controls on which day relative to the due date an installment alerts
type NotificationTiming string

const (
	NotificationTimingOnDueDate       NotificationTiming = "on_due_date"
	NotificationTimingOneDayBefore    NotificationTiming = "1_day_before"
	NotificationTimingTwoDaysBefore   NotificationTiming = "2_days_before"
	NotificationTimingThreeDaysBefore NotificationTiming = "3_days_before"
	NotificationTimingSevenDaysBefore NotificationTiming = "7_days_before"
	NotificationTimingNextWeek        NotificationTiming = "next_week"
)

func (t NotificationTiming) Validate() error {
	allowed := []NotificationTiming{
		NotificationTimingOnDueDate,
		NotificationTimingOneDayBefore,
		NotificationTimingTwoDaysBefore,
		NotificationTimingThreeDaysBefore,
		NotificationTimingSevenDaysBefore,
		NotificationTimingNextWeek,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid notification timing").
			WithHintf("Notification timing must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// OrDefault returns on_due_date for an empty timing
func (t NotificationTiming) OrDefault() NotificationTiming {
	if t == "" {
		return NotificationTimingOnDueDate
	}
	return t
}

// DaysBefore returns how many days ahead of the due date the timing fires.
// next_week has no single offset and reports false.
func (t NotificationTiming) DaysBefore() (int, bool) {
	switch t.OrDefault() {
	case NotificationTimingOnDueDate:
		return 0, true
	case NotificationTimingOneDayBefore:
		return 1, true
	case NotificationTimingTwoDaysBefore:
		return 2, true
	case NotificationTimingThreeDaysBefore:
		return 3, true
	case NotificationTimingSevenDaysBefore:
		return 7, true
	}
	return 0, false
}
