package service

import (
	"context"

	"github.com/practicedesk/billing/internal/domain/client"
	"github.com/practicedesk/billing/internal/domain/installment"
)

// FilterByExistingClients keeps the installments whose client still exists.
// Installments are deduplicated by id, the first occurrence wins. Nothing is
// deleted; orphans are only hidden.
func FilterByExistingClients(items []*installment.Installment, names client.NameSet) []*installment.Installment {
	seen := make(map[string]struct{}, len(items))
	out := make([]*installment.Installment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		if names.Has(item.ClientName) {
			out = append(out, item)
		}
	}
	return out
}

// ClientDirectory resolves the weak client name references of installments
// against the client record store
type ClientDirectory struct {
	ServiceParams
}

func NewClientDirectory(params ServiceParams) *ClientDirectory {
	return &ClientDirectory{ServiceParams: params}
}

// Names returns the set of existing client names, read from the store on
// every call so that a deleted client hides its installments right away. A
// store failure yields an empty set so that every installment is hidden
// rather than shown unchecked.
func (d *ClientDirectory) Names(ctx context.Context) client.NameSet {
	records, err := d.ClientRepo.List(ctx)
	if err != nil {
		d.Logger.Warnw("client records unavailable, hiding all installments", "error", err)
		return client.NameSet{}
	}
	return client.NewNameSet(records)
}

// Visible loads the installment collection and drops orphans
func (d *ClientDirectory) Visible(ctx context.Context) ([]*installment.Installment, error) {
	items, err := d.InstallmentRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByExistingClients(items, d.Names(ctx)), nil
}
