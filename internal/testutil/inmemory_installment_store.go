package testutil

import (
	"context"
	"sync/atomic"

	"github.com/practicedesk/billing/internal/domain/installment"
	ierr "github.com/practicedesk/billing/internal/errors"
)

// InMemoryInstallmentStore implements installment.Repository
type InMemoryInstallmentStore struct {
	*InMemoryStore[*installment.Installment]
	writes atomic.Int64
}

// NewInMemoryInstallmentStore creates a new in-memory installment store
func NewInMemoryInstallmentStore() *InMemoryInstallmentStore {
	return &InMemoryInstallmentStore{
		InMemoryStore: NewInMemoryStore[*installment.Installment](),
	}
}

func installmentSortFn(i, j *installment.Installment) bool {
	if !i.DueDate.Equal(j.DueDate) {
		return i.DueDate.Before(j.DueDate)
	}
	return i.ID < j.ID
}

func (s *InMemoryInstallmentStore) List(ctx context.Context) ([]*installment.Installment, error) {
	items, err := s.InMemoryStore.List(ctx, nil, installmentSortFn)
	if err != nil {
		return nil, err
	}
	return installment.CloneAll(items), nil
}

func (s *InMemoryInstallmentStore) ReplaceAll(ctx context.Context, items []*installment.Installment) error {
	next := make(map[string]*installment.Installment, len(items))
	for _, item := range items {
		if _, dup := next[item.ID]; dup {
			return ierr.NewError("duplicate installment id").
				WithHintf("Installment %s is listed twice", item.ID).
				Mark(ierr.ErrDatabase)
		}
		next[item.ID] = item.Clone()
	}
	if err := s.Replace(ctx, next); err != nil {
		return err
	}
	s.writes.Add(1)
	return nil
}

// Seed stores installments directly, bypassing ReplaceAll
func (s *InMemoryInstallmentStore) Seed(ctx context.Context, items ...*installment.Installment) error {
	for _, item := range items {
		if err := s.InMemoryStore.Create(ctx, item.ID, item.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// Writes returns how often ReplaceAll succeeded
func (s *InMemoryInstallmentStore) Writes() int {
	return int(s.writes.Load())
}

func (s *InMemoryInstallmentStore) Clear() {
	s.InMemoryStore.Clear()
	s.writes.Store(0)
}
