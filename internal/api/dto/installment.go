package dto

import (
	"strings"
	"time"

	"github.com/practicedesk/billing/internal/domain/installment"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/types"
	"github.com/practicedesk/billing/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateInstallmentRequest creates a single installment outside any agreement
type CreateInstallmentRequest struct {
	ClientName         string                   `json:"client_name" validate:"required,max=255"`
	Amount             decimal.Decimal          `json:"amount"`
	DueDate            string                   `json:"due_date" validate:"required"`
	NotificationTiming types.NotificationTiming `json:"notification_timing,omitempty"`
}

func (r *CreateInstallmentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount.IsNegative() {
		return ierr.NewError("amount must not be negative").
			WithHint("Amount must not be negative").
			Mark(ierr.ErrValidation)
	}
	if _, err := types.ParseDate(r.DueDate); err != nil {
		return err
	}
	if r.NotificationTiming != "" {
		if err := r.NotificationTiming.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ToInstallment builds the installment. Validate must have passed.
func (r *CreateInstallmentRequest) ToInstallment(now time.Time) *installment.Installment {
	due, _ := types.ParseDate(r.DueDate)
	return &installment.Installment{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTALLMENT),
		Kind:               types.InstallmentKindMonthly,
		ClientName:         strings.TrimSpace(r.ClientName),
		Sequence:           1,
		TotalCount:         1,
		Amount:             r.Amount,
		DueDate:            due,
		NotificationTiming: r.NotificationTiming.OrDefault(),
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}
}

// PostponeInstallmentRequest moves the due date of an installment
type PostponeInstallmentRequest struct {
	DueDate string `json:"due_date" validate:"required"`
}

func (r *PostponeInstallmentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	_, err := types.ParseDate(r.DueDate)
	return err
}

type InstallmentResponse struct {
	*installment.Installment
	DueDate string        `json:"due_date"`
	Label   string        `json:"label"`
	Urgency types.Urgency `json:"urgency"`
}

func NewInstallmentResponse(inst *installment.Installment, urgency types.Urgency) *InstallmentResponse {
	return &InstallmentResponse{
		Installment: inst,
		DueDate:     types.FormatDate(inst.DueDate),
		Label:       inst.Label(),
		Urgency:     urgency,
	}
}

// PaymentGroupResponse is one client's pending installments, most urgent first
type PaymentGroupResponse struct {
	ClientName     string                 `json:"client_name"`
	Representative *InstallmentResponse   `json:"representative"`
	Additional     []*InstallmentResponse `json:"additional"`
	PendingCount   int                    `json:"pending_count"`
	PendingAmount  decimal.Decimal        `json:"pending_amount"`
}

type ListPaymentGroupsResponse struct {
	Items []*PaymentGroupResponse `json:"items"`
}
