package types

import (
	"math"
	"strings"
	"time"

	ierr "github.com/practicedesk/billing/internal/errors"
)

const (
	// DateLayout is the wire and storage layout of calendar dates
	DateLayout = "2006-01-02"

	// DefaultMonthlyDueDay is used when the day of month of a monthly rule is missing or invalid
	DefaultMonthlyDueDay = 5

	// DefaultWeeklyDueDay is used when the weekday of a weekly rule is missing or invalid
	DefaultWeeklyDueDay = time.Friday

	// dateAnchorHour keeps calendar dates away from midnight so that
	// converting between zones never moves them to a neighbouring day.
	dateAnchorHour = 12
)

// NewDate returns the calendar date anchored at noon UTC.
// All installment dates flowing through the engine use this representation.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, dateAnchorHour, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar date of t as observed in loc.
// A nil location means UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return NewDate(t.In(loc).Date())
}

// ParseDate parses a YYYY-MM-DD string into an anchored calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Invalid date %q, expected format YYYY-MM-DD", s).
			Mark(ierr.ErrValidation)
	}
	return NewDate(t.Date()), nil
}

// FormatDate formats an anchored calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return NewDate(t.Date()).Format(DateLayout)
}

// DaysBetween returns the number of calendar days from `from` to `to`.
// The result is negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int {
	a := NewDate(from.Date())
	b := NewDate(to.Date())
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// DaysInMonth returns the number of days of the given month
func DaysInMonth(year int, month time.Month) int {
	// day 0 of the following month is the last day of this one
	return time.Date(year, month+1, 0, dateAnchorHour, 0, 0, 0, time.UTC).Day()
}

// MonthlyDueDate returns the due date of the n-th monthly installment.
// The date lies in month start.Month()+n (year adjusted) on targetDay, clamped
// to the last day of that month. A targetDay outside 1..31 falls back to
// DefaultMonthlyDueDay and the second return value reports the fallback.
func MonthlyDueDate(start time.Time, targetDay, n int) (time.Time, bool) {
	fallback := false
	if targetDay < 1 || targetDay > 31 {
		targetDay = DefaultMonthlyDueDay
		fallback = true
	}

	y, m, _ := start.Date()
	// time.Date normalises month overflow, e.g. month 14 of 2024 is February 2025
	first := time.Date(y, m+time.Month(n), 1, dateAnchorHour, 0, 0, 0, time.UTC)

	day := targetDay
	if last := DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}

	return NewDate(first.Year(), first.Month(), day), fallback
}

// WeeklyDueDate returns the date of the n-th occurrence of weekday on or after
// start; n = 1 is the first occurrence and equals start when start already falls
// on that weekday. A weekday outside 0..6 (Sunday = 0) falls back to
// DefaultWeeklyDueDay and the second return value reports the fallback.
func WeeklyDueDate(start time.Time, weekday, n int) (time.Time, bool) {
	fallback := false
	if weekday < 0 || weekday > 6 {
		weekday = int(DefaultWeeklyDueDay)
		fallback = true
	}

	base := NewDate(start.Date())
	delta := (weekday - int(base.Weekday()) + 7) % 7
	first := base.AddDate(0, 0, delta)

	return first.AddDate(0, 0, 7*(n-1)), fallback
}
