package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/practicedesk/billing/internal/domain/notification"
)

// InMemoryNotificationStore implements notification.Repository
type InMemoryNotificationStore struct {
	mu      sync.Mutex
	keys    map[notification.DedupKey]struct{}
	lastDay time.Time
	hasDay  bool
	resets  int
}

func NewInMemoryNotificationStore() *InMemoryNotificationStore {
	return &InMemoryNotificationStore{keys: make(map[notification.DedupKey]struct{})}
}

func (s *InMemoryNotificationStore) Claim(_ context.Context, key notification.DedupKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *InMemoryNotificationStore) LastNotifiedDay(_ context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDay, s.hasDay, nil
}

func (s *InMemoryNotificationStore) ResetDay(_ context.Context, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.keys {
		if k.Day.Before(day) {
			delete(s.keys, k)
		}
	}
	s.lastDay = day
	s.hasDay = true
	s.resets++
	return nil
}

// Resets returns how many times the day was reset
func (s *InMemoryNotificationStore) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

func (s *InMemoryNotificationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[notification.DedupKey]struct{})
	s.lastDay = time.Time{}
	s.hasDay = false
	s.resets = 0
}
