package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/telemetry"
)

// FileStore is a file-per-key TTL cache for JSON payloads. Entries are
// stored as envelope files under a root directory. There is no locking:
// concurrent writes to one key race and the last writer wins, which is
// acceptable because callers recompute idempotently from upstream truth.
type FileStore struct {
	root string
}

// envelope wraps a payload with its write time on disk.
type envelope struct {
	WrittenAt int64           `json:"writtenAt"` // epoch millis
	Payload   json.RawMessage `json:"payload"`
}

// NewFileStore creates a file-backed cache rooted at dir. The directory
// is created on first use if absent.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileStore{root: dir}, nil
}

// Get returns the payload for key, or nil if the entry is absent,
// unreadable, corrupt, or at least ttl old. Expiry is a hard boundary
// and corruption is a cache miss (fail open).
func (s *FileStore) Get(key string, ttl time.Duration) (json.RawMessage, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[CACHE] Unreadable entry %s, treating as miss: %v", key, err)
		}
		telemetry.CacheMisses.WithLabelValues(key).Inc()
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("[CACHE] Corrupt entry %s, treating as miss: %v", key, err)
		telemetry.CacheMisses.WithLabelValues(key).Inc()
		return nil, nil
	}

	age := time.Since(time.UnixMilli(env.WrittenAt))
	if age >= ttl {
		telemetry.CacheMisses.WithLabelValues(key).Inc()
		return nil, nil
	}

	telemetry.CacheHits.WithLabelValues(key).Inc()
	return env.Payload, nil
}

// Put overwrites the entry for key with payload. Never merges.
func (s *FileStore) Put(key string, payload json.RawMessage) error {
	env := envelope{
		WrittenAt: time.Now().UnixMilli(),
		Payload:   payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// Clear removes the entry for key. Missing entries are not an error.
func (s *FileStore) Clear(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache entry %s: %w", key, err)
	}
	return nil
}

// Keys returns stored keys matching a glob pattern (e.g. "redhat-*").
func (s *FileStore) Keys(pattern string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid key pattern %q: %w", pattern, err)
	}
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		// Subdirectories (e.g. the rate-limit budget state) are not
		// cache entries.
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			continue
		}
		keys = append(keys, filepath.Base(p))
	}
	return keys, nil
}

func (s *FileStore) path(key string) string {
	// Keys are derived from source names and normalized query params;
	// Base strips anything path-like a caller might sneak in.
	return filepath.Join(s.root, filepath.Base(key))
}
