package ports

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// FetchCached serves a typed value for key from the store when a fresh
// entry exists, otherwise invokes fetch and writes the result back.
// Cache write failures are logged, never propagated: fresh data beats
// bookkeeping.
func FetchCached[T any](ctx context.Context, store CacheStore, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if payload, err := store.Get(key, ttl); err == nil && payload != nil {
		var value T
		decodeErr := json.Unmarshal(payload, &value)
		if decodeErr == nil {
			return value, nil
		}
		log.Printf("[CACHE] Entry %s failed to decode, refetching: %v", key, decodeErr)
	}

	value, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	payload, err := json.Marshal(value)
	if err == nil {
		if err := store.Put(key, payload); err != nil {
			log.Printf("[CACHE] Failed to write entry %s: %v", key, err)
		}
	}
	return value, nil
}
