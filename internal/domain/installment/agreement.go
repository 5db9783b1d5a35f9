package installment

import (
	"strings"
	"time"

	"github.com/practicedesk/billing/internal/domain/client"
	"github.com/practicedesk/billing/internal/types"
	"github.com/shopspring/decimal"
)

// Agreement is the billing arrangement attached to a client record. It is not
// persisted on its own; the durable state is the set of installments it expands to.
type Agreement struct {
	ParentID   string
	ClientName string
	Kind       types.InstallmentKind
	Count      int
	Amount     decimal.Decimal
	StartDate  time.Time
	// DueRuleParam is the day of month (1..31) for monthly agreements and the
	// weekday (0..6, Sunday = 0) for weekly ones. Nil means the default rule.
	DueRuleParam       *int
	NotificationTiming types.NotificationTiming
	// Active is false once the agreement has been ended on its parent record
	Active bool
}

// AgreementRef identifies the installments owned by an agreement, used when
// the agreement or its parent record is deleted
type AgreementRef struct {
	ParentID   string
	ClientName string
	Kind       types.InstallmentKind
}

// Ref returns the reference of the agreement
func (a *Agreement) Ref() AgreementRef {
	return AgreementRef{
		ParentID:   a.ParentID,
		ClientName: a.ClientName,
		Kind:       a.Kind,
	}
}

// Owns reports whether inst belongs to the referenced agreement. Installments
// carrying a parent id match on it alone, and ad hoc installments belong to no
// agreement. Older records without a parent id match when their id has the
// generated prefix of the agreement, or when client name and kind are the
// agreement's. A ref without a kind matches the name under any kind.
func (r AgreementRef) Owns(inst *Installment) bool {
	if inst == nil || inst.IsAdHoc() {
		return false
	}
	if !inst.IsLegacy() {
		return inst.ParentID == r.ParentID
	}
	if r.ParentID != "" && strings.HasPrefix(inst.ID, r.ParentID+"-") {
		return true
	}
	name := client.NormalizeName(r.ClientName)
	if name == "" || inst.ClientKey() != name {
		return false
	}
	return r.Kind == "" || inst.Kind == r.Kind
}
