package testutil

import (
	"context"
	"time"

	"github.com/practicedesk/billing/internal/domain/client"
	"github.com/practicedesk/billing/internal/types"
)

// InMemoryClientStore implements client.Repository
type InMemoryClientStore struct {
	*InMemoryStore[*client.ClientRecord]
}

// NewInMemoryClientStore creates a new in-memory client store
func NewInMemoryClientStore() *InMemoryClientStore {
	return &InMemoryClientStore{
		InMemoryStore: NewInMemoryStore[*client.ClientRecord](),
	}
}

func (s *InMemoryClientStore) List(ctx context.Context) ([]*client.ClientRecord, error) {
	return s.InMemoryStore.List(ctx, nil, func(i, j *client.ClientRecord) bool {
		return i.Name < j.Name
	})
}

// AddClient stores a client record with the given name and returns its id
func (s *InMemoryClientStore) AddClient(ctx context.Context, name string) (string, error) {
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT)
	err := s.InMemoryStore.Create(ctx, id, &client.ClientRecord{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	return id, err
}

// RemoveClient deletes every client record with the given name
func (s *InMemoryClientStore) RemoveClient(ctx context.Context, name string) error {
	records, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		if client.NormalizeName(r.Name) == client.NormalizeName(name) {
			if err := s.Delete(ctx, r.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
