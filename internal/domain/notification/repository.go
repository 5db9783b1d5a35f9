package notification

import (
	"context"
	"time"
)

// Repository persists the "already notified" state shared by every dispatcher
type Repository interface {
	// Claim marks the key as sent. It returns false when the key was already
	// claimed, by this or any other dispatcher.
	Claim(ctx context.Context, key DedupKey) (bool, error)

	// LastNotifiedDay returns the day of the most recent reset and false when
	// no day was recorded yet
	LastNotifiedDay(ctx context.Context) (time.Time, bool, error)

	// ResetDay records day as the current notification day and drops every
	// key of earlier days
	ResetDay(ctx context.Context, day time.Time) error
}
