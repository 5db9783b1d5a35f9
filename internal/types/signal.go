package types

import (
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/samber/lo"
)

// SignalType names a change that other parts of the application react to
type SignalType string

const (
	SignalAgreementSaved      SignalType = "agreement.saved"
	SignalAgreementDeleted    SignalType = "agreement.deleted"
	SignalClientDeleted       SignalType = "client.deleted"
	SignalClientChanged       SignalType = "client.changed"
	SignalInstallmentsChanged SignalType = "installments.changed"
	SignalManualRefresh       SignalType = "manual.refresh"
)

func (t SignalType) Validate() error {
	allowed := []SignalType{
		SignalAgreementSaved,
		SignalAgreementDeleted,
		SignalClientDeleted,
		SignalClientChanged,
		SignalInstallmentsChanged,
		SignalManualRefresh,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid signal type").
			WithHintf("Signal type must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PubSubType defines the type of pubsub implementation
type PubSubType string

const (
	// MemoryPubSub uses in-memory implementation
	MemoryPubSub PubSubType = "memory"
)
