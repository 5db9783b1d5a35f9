package cache

import (
	"context"
	"strings"
	"time"

	"github.com/practicedesk/billing/internal/cache"
	"github.com/practicedesk/billing/internal/domain/notification"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/types"
)

// markerTTL bounds how long a key survives when no reset drops it
const markerTTL = 72 * time.Hour

type notificationRepository struct {
	cache  cache.Cache
	logger *logger.Logger
}

// NewNotificationRepository returns a marker store kept in process memory.
// It only deduplicates within one process; dispatchers that share work need
// the postgres store.
func NewNotificationRepository(c cache.Cache, logger *logger.Logger) notification.Repository {
	return &notificationRepository{cache: c, logger: logger}
}

func (r *notificationRepository) Claim(ctx context.Context, key notification.DedupKey) (bool, error) {
	return r.cache.Add(ctx, markerKey(key), key.InstallmentID, markerTTL), nil
}

func (r *notificationRepository) LastNotifiedDay(ctx context.Context) (time.Time, bool, error) {
	v, ok := r.cache.ForceCacheGet(ctx, cache.PrefixNotificationDay)
	if !ok {
		return time.Time{}, false, nil
	}
	day, ok := v.(time.Time)
	return day, ok, nil
}

func (r *notificationRepository) ResetDay(ctx context.Context, day time.Time) error {
	day = types.NewDate(day.Date())
	r.cache.ForceCacheSet(ctx, cache.PrefixNotificationDay, day, cache.NoExpiration)

	cutoff := types.FormatDate(day)
	prefix := cache.GenerateKey(cache.PrefixNotificationKey) + ":"
	dropped := 0
	for _, k := range r.cache.Keys(ctx, prefix) {
		keyDay, _, _ := strings.Cut(strings.TrimPrefix(k, prefix), ":")
		if keyDay < cutoff {
			r.cache.Delete(ctx, k)
			dropped++
		}
	}
	r.logger.Debugw("reset notification day", "day", cutoff, "dropped_keys", dropped)
	return nil
}

// markerKey puts the day first so keys of one day share a prefix
func markerKey(key notification.DedupKey) string {
	return cache.GenerateKey(cache.PrefixNotificationKey, types.FormatDate(key.Day), key.InstallmentID)
}
