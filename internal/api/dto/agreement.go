package dto

import (
	"strings"

	"github.com/practicedesk/billing/internal/domain/installment"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/types"
	"github.com/practicedesk/billing/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SaveAgreementRequest carries the billing terms of a parent record. The
// parent id comes from the path.
type SaveAgreementRequest struct {
	ClientName string                `json:"client_name" validate:"required,max=255"`
	Kind       types.InstallmentKind `json:"kind" validate:"required"`
	Count      int                   `json:"count"`
	Amount     decimal.Decimal       `json:"amount"`
	StartDate  string                `json:"start_date" validate:"required"`
	// DueRuleParam is the day of month for monthly agreements and the
	// weekday (Sunday = 0) for weekly ones
	DueRuleParam       *int                     `json:"due_rule_param,omitempty"`
	NotificationTiming types.NotificationTiming `json:"notification_timing,omitempty"`
	// Active defaults to true
	Active *bool `json:"active,omitempty"`
}

// Validate checks the request shape. Business rules on count and amount are
// enforced when the plan is generated.
func (r *SaveAgreementRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if _, err := types.ParseDate(r.StartDate); err != nil {
		return err
	}
	return nil
}

// ToAgreement builds the agreement of the given parent. Validate must have passed.
func (r *SaveAgreementRequest) ToAgreement(parentID string) *installment.Agreement {
	start, _ := types.ParseDate(r.StartDate)
	return &installment.Agreement{
		ParentID:           strings.TrimSpace(parentID),
		ClientName:         strings.TrimSpace(r.ClientName),
		Kind:               r.Kind,
		Count:              r.Count,
		Amount:             r.Amount,
		StartDate:          start,
		DueRuleParam:       r.DueRuleParam,
		NotificationTiming: r.NotificationTiming,
		Active:             lo.FromPtrOr(r.Active, true),
	}
}

// DeleteAgreementRequest identifies the agreement whose installments are
// removed. Client name and kind also match installments that predate parent ids.
type DeleteAgreementRequest struct {
	ClientName string                `form:"client_name" json:"client_name"`
	Kind       types.InstallmentKind `form:"kind" json:"kind"`
}

func (r *DeleteAgreementRequest) Validate() error {
	if r.Kind != "" {
		if err := r.Kind.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *DeleteAgreementRequest) ToRef(parentID string) (installment.AgreementRef, error) {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return installment.AgreementRef{}, ierr.NewError("parent_id is required").
			WithHint("Provide the parent record id").
			Mark(ierr.ErrValidation)
	}
	return installment.AgreementRef{
		ParentID:   parentID,
		ClientName: strings.TrimSpace(r.ClientName),
		Kind:       r.Kind,
	}, nil
}

type AgreementResponse struct {
	ParentID     string                 `json:"parent_id"`
	Installments []*InstallmentResponse `json:"installments"`
	Removed      int                    `json:"removed"`
	Warnings     []string               `json:"warnings,omitempty"`
}
