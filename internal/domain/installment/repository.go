package installment

import "context"

// Repository is the installment store. There is no partial update: callers
// read the whole collection, compute the new one and write it back.
type Repository interface {
	List(ctx context.Context) ([]*Installment, error)
	ReplaceAll(ctx context.Context, installments []*Installment) error
}
