package ratelimit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/telemetry"
)

// MaxCalls is the per-provider budget inside one rolling 24-hour window.
// Deliberately decoupled from cache TTLs: the cache controls staleness,
// this controls upstream call volume on cache miss.
const MaxCalls = 4

// Window is the budget window length.
const Window = 24 * time.Hour

// budgetState is the persisted per-provider state file:
// {"count": int, "timestamp": epoch-millis}.
type budgetState struct {
	Count     int   `json:"count"`
	Timestamp int64 `json:"timestamp"`
}

// BudgetLimiter tracks per-provider call budgets in one JSON file per
// provider. IsAllowed plus a conditional Increment is not atomic; under
// concurrent callers the budget can be exceeded by a small margin, which
// is acceptable at this request volume in a single-process deployment.
type BudgetLimiter struct {
	dir string
}

// NewBudgetLimiter creates a limiter persisting state under dir.
func NewBudgetLimiter(dir string) (*BudgetLimiter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create rate-limit directory %s: %w", dir, err)
	}
	return &BudgetLimiter{dir: dir}, nil
}

// IsAllowed reports whether providerID has budget left. An expired
// window reads as allowed without mutating state; the caller must call
// Increment exactly once per actual upstream call.
func (l *BudgetLimiter) IsAllowed(providerID string) bool {
	state := l.load(providerID)

	if l.expired(state) {
		return true
	}
	if state.Count < MaxCalls {
		return true
	}

	telemetry.RateLimitRejections.WithLabelValues(providerID).Inc()
	return false
}

// Increment records one upstream call for providerID, resetting the
// window first if it has expired.
func (l *BudgetLimiter) Increment(providerID string) error {
	state := l.load(providerID)

	if l.expired(state) {
		state = budgetState{Count: 0, Timestamp: time.Now().UnixMilli()}
	}
	state.Count++

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode budget for %s: %w", providerID, err)
	}
	if err := os.WriteFile(l.path(providerID), data, 0o644); err != nil {
		return fmt.Errorf("failed to persist budget for %s: %w", providerID, err)
	}
	return nil
}

// load reads the persisted budget. Unreadable or corrupt state is a
// fresh budget: fail open, never block callers on storage corruption.
func (l *BudgetLimiter) load(providerID string) budgetState {
	data, err := os.ReadFile(l.path(providerID))
	if err != nil {
		return budgetState{}
	}

	var state budgetState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("[RATELIMIT] Corrupt budget file for %s, treating as fresh: %v", providerID, err)
		return budgetState{}
	}
	return state
}

func (l *BudgetLimiter) expired(state budgetState) bool {
	if state.Timestamp == 0 {
		return true
	}
	return time.Since(time.UnixMilli(state.Timestamp)) >= Window
}

func (l *BudgetLimiter) path(providerID string) string {
	return filepath.Join(l.dir, fmt.Sprintf("ratelimit-%s.json", filepath.Base(providerID)))
}
