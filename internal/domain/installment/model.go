package installment

import (
	"fmt"
	"strings"
	"time"

	"github.com/practicedesk/billing/internal/domain/client"
	"github.com/practicedesk/billing/internal/types"
	"github.com/shopspring/decimal"
)

// Installment is a single dated, priced obligation of a client
type Installment struct {
	// ID is {parent_id}-{kind}-{sequence} for generated installments and an
	// opaque prefixed ULID for installments created ad hoc
	ID   string                `db:"id" json:"id"`
	Kind types.InstallmentKind `db:"kind" json:"kind"`
	// ClientName references a client record by name, there is no foreign key
	ClientName string `db:"client_name" json:"client_name"`
	// Sequence is the 1-based position within the agreement
	Sequence   int             `db:"sequence" json:"sequence"`
	TotalCount int             `db:"total_count" json:"total_count"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	// DueDate is a calendar date anchored at noon UTC, see types.NewDate
	DueDate time.Time `db:"due_date" json:"due_date"`
	Settled bool      `db:"settled" json:"settled"`
	// ParentID is the id of the owning agreement, empty for ad hoc installments
	ParentID           string                   `db:"parent_id" json:"parent_id,omitempty"`
	NotificationTiming types.NotificationTiming `db:"notification_timing" json:"notification_timing"`
	CreatedAt          time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time                `db:"updated_at" json:"updated_at"`
}

// GeneratedID returns the id of the installment at sequence seq of an agreement
func GeneratedID(parentID string, kind types.InstallmentKind, seq int) string {
	return fmt.Sprintf("%s-%s-%d", parentID, kind, seq)
}

// ClientKey is the normalized client name used for matching
func (i *Installment) ClientKey() string {
	return client.NormalizeName(i.ClientName)
}

// Label renders the position of the installment, e.g. "3/12"
func (i *Installment) Label() string {
	return fmt.Sprintf("%d/%d", i.Sequence, i.TotalCount)
}

// IsLegacy reports whether the installment predates explicit parent links
func (i *Installment) IsLegacy() bool {
	return strings.TrimSpace(i.ParentID) == ""
}

// IsAdHoc reports whether the installment was created on its own rather than
// generated from an agreement
func (i *Installment) IsAdHoc() bool {
	return i.IsLegacy() && strings.HasPrefix(i.ID, types.UUID_PREFIX_INSTALLMENT+"_")
}

// Clone returns a copy that can be mutated without touching the original
func (i *Installment) Clone() *Installment {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// CloneAll copies every installment of the slice
func CloneAll(items []*Installment) []*Installment {
	out := make([]*Installment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, item.Clone())
	}
	return out
}
