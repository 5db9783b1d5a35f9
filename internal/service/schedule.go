package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/practicedesk/billing/internal/domain/installment"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/types"
)

// MaxAgreementCount bounds the number of installments a single agreement expands to
const MaxAgreementCount = 1000

// PlanResult is the output of GeneratePlan
type PlanResult struct {
	Installments []*installment.Installment
	// Warnings lists the due rule fallbacks applied while generating
	Warnings []string
}

// GeneratePlan expands an agreement into its installments. It has no side
// effects; removing the previous installments of the parent is up to the caller.
func GeneratePlan(a *installment.Agreement) (*PlanResult, error) {
	if err := validateAgreement(a); err != nil {
		return nil, err
	}

	start := types.NewDate(a.StartDate.Date())
	timing := a.NotificationTiming.OrDefault()
	result := &PlanResult{
		Installments: make([]*installment.Installment, 0, a.Count),
	}

	param, supplied := dueRuleParam(a)
	fellBack := false
	for seq := 1; seq <= a.Count; seq++ {
		var due time.Time
		var fallback bool
		switch a.Kind {
		case types.InstallmentKindWeekly:
			due, fallback = types.WeeklyDueDate(start, param, seq)
		default:
			due, fallback = types.MonthlyDueDate(start, param, seq)
		}
		fellBack = fellBack || fallback

		result.Installments = append(result.Installments, &installment.Installment{
			ID:                 installment.GeneratedID(a.ParentID, a.Kind, seq),
			Kind:               a.Kind,
			ClientName:         strings.TrimSpace(a.ClientName),
			Sequence:           seq,
			TotalCount:         a.Count,
			Amount:             a.Amount,
			DueDate:            due,
			Settled:            false,
			ParentID:           a.ParentID,
			NotificationTiming: timing,
		})
	}

	if fellBack && supplied {
		result.Warnings = append(result.Warnings, dueRuleWarning(a))
	}
	return result, nil
}

// dueRuleParam returns the due rule parameter to use and whether the caller
// supplied one. An unspecified rule maps to the default without a warning.
func dueRuleParam(a *installment.Agreement) (int, bool) {
	if a.DueRuleParam != nil {
		return *a.DueRuleParam, true
	}
	if a.Kind == types.InstallmentKindWeekly {
		return int(types.DefaultWeeklyDueDay), false
	}
	return types.DefaultMonthlyDueDay, false
}

func dueRuleWarning(a *installment.Agreement) string {
	if a.Kind == types.InstallmentKindWeekly {
		return fmt.Sprintf("weekday %d is outside 0..6, using %s", *a.DueRuleParam, types.DefaultWeeklyDueDay)
	}
	return fmt.Sprintf("day of month %d is outside 1..31, using %d", *a.DueRuleParam, types.DefaultMonthlyDueDay)
}

func validateAgreement(a *installment.Agreement) error {
	if a == nil {
		return ierr.NewError("agreement is required").
			WithHint("Provide the agreement terms").
			Mark(ierr.ErrInvalidAgreement)
	}
	if strings.TrimSpace(a.ParentID) == "" {
		return ierr.NewError("parent_id is required").
			WithHint("The agreement must reference its parent record").
			Mark(ierr.ErrInvalidAgreement)
	}
	if strings.TrimSpace(a.ClientName) == "" {
		return ierr.NewError("client_name is required").
			WithHint("The agreement must name a client").
			Mark(ierr.ErrInvalidAgreement)
	}
	if err := a.Kind.Validate(); err != nil {
		return ierr.NewError("invalid installment kind").
			WithHintf("Agreement kind must be %s or %s", types.InstallmentKindMonthly, types.InstallmentKindWeekly).
			Mark(ierr.ErrInvalidAgreement)
	}
	if a.Count <= 0 || a.Count > MaxAgreementCount {
		return ierr.NewError("invalid installment count").
			WithHintf("Installment count must be between 1 and %d", MaxAgreementCount).
			WithReportableDetails(map[string]any{"count": a.Count}).
			Mark(ierr.ErrInvalidAgreement)
	}
	if a.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must not be negative").
			WithReportableDetails(map[string]any{"amount": a.Amount.String()}).
			Mark(ierr.ErrInvalidAgreement)
	}
	if a.StartDate.IsZero() {
		return ierr.NewError("start_date is required").
			WithHint("The agreement must have a start date").
			Mark(ierr.ErrInvalidAgreement)
	}
	if a.NotificationTiming != "" {
		if err := a.NotificationTiming.Validate(); err != nil {
			return ierr.NewError("invalid notification timing").
				WithHintf("Unknown notification timing %q", a.NotificationTiming).
				Mark(ierr.ErrInvalidAgreement)
		}
	}
	return nil
}
