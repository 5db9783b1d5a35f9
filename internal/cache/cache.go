package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache defines the interface for caching operations
type Cache interface {
	// Get retrieves a value from the cache
	// Returns the value and a boolean indicating whether the key was found
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set adds a value to the cache with the specified expiration
	// An expiration of 0 uses the cache default, NoExpiration keeps the item
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)

	// Add stores the value only if the key is not present yet.
	// It returns false when the key already exists.
	Add(ctx context.Context, key string, value interface{}, expiration time.Duration) bool

	// Delete removes a key from the cache
	Delete(ctx context.Context, key string)

	// DeleteByPrefix removes all keys with the given prefix
	DeleteByPrefix(ctx context.Context, prefix string)

	// Flush removes all items from the cache
	Flush(ctx context.Context)

	// ForceCacheGet and ForceCacheSet ignore the enabled flag. They serve
	// state that lives only in the cache.
	ForceCacheGet(ctx context.Context, key string) (interface{}, bool)
	ForceCacheSet(ctx context.Context, key string, value interface{}, expiration time.Duration)

	// Keys returns the unexpired keys with the given prefix
	Keys(ctx context.Context, prefix string) []string
}

// Predefined cache key prefixes for different entity types
const (
	PrefixNotificationKey = "notification_key:v1:"
	PrefixNotificationDay = "notification_day:v1:"
)

// GenerateKey creates a cache key from a prefix and a set of parameters
// It joins all parameters with a colon and appends them to the prefix
func GenerateKey(prefix string, params ...interface{}) string {
	parts := make([]string, len(params)+1)
	parts[0] = prefix

	for i, param := range params {
		parts[i+1] = fmt.Sprintf("%v", param)
	}

	return strings.Join(parts, ":")
}
