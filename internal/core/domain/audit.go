package domain

import (
	"errors"
	"time"
)

// Domain Errors
var (
	ErrMissingProvider = errors.New("provider identification is required for fetch auditing")
)

// FetchRecord is a record of one audited upstream provider call.
// This is a pure domain entity; persistence metadata lives in the
// repository layer (internal/adapters/storage).
type FetchRecord struct {
	ID         string    `json:"id"`
	Provider   string    `json:"provider"`
	CacheKey   string    `json:"cache_key"`
	StatusCode int       `json:"status_code"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewFetchRecord is the designated factory for valid FetchRecord entities.
func NewFetchRecord(provider, cacheKey string, statusCode int, fetchErr error, duration time.Duration) (*FetchRecord, error) {
	if provider == "" {
		return nil, ErrMissingProvider
	}

	rec := &FetchRecord{
		Provider:   provider,
		CacheKey:   cacheKey,
		StatusCode: statusCode,
		Success:    fetchErr == nil,
		DurationMS: duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if fetchErr != nil {
		rec.Error = fetchErr.Error()
	}
	return rec, nil
}
