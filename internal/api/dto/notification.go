package dto

import (
	"github.com/practicedesk/billing/internal/types"
	"github.com/practicedesk/billing/internal/validator"
)

type RunNotificationsResponse struct {
	Day        string `json:"day"`
	Considered int    `json:"considered"`
	Emitted    int    `json:"emitted"`
}

// PublishSignalRequest announces a change made outside the billing engine,
// typically a client record being renamed or deleted
type PublishSignalRequest struct {
	Type       types.SignalType `json:"type" validate:"required"`
	AffectedID string           `json:"affected_id,omitempty"`
}

func (r *PublishSignalRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Type.Validate()
}
