package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/telemetry"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	written_at INTEGER NOT NULL
);
`

// SQLiteStore implements the cache-store contract on SQLite. It is an
// alternate backend to FileStore for deployments that prefer a single
// database file over a directory of JSON files; semantics are identical.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the backing database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the payload for key, or nil if absent or at least ttl old.
// A scan failure is logged and treated as a miss (fail open).
func (s *SQLiteStore) Get(key string, ttl time.Duration) (json.RawMessage, error) {
	var payload []byte
	var writtenAt int64

	err := s.db.QueryRow(
		"SELECT payload, written_at FROM cache_entries WHERE key = ?", key,
	).Scan(&payload, &writtenAt)
	if err == sql.ErrNoRows {
		telemetry.CacheMisses.WithLabelValues(key).Inc()
		return nil, nil
	}
	if err != nil {
		log.Printf("[CACHE] Unreadable entry %s, treating as miss: %v", key, err)
		telemetry.CacheMisses.WithLabelValues(key).Inc()
		return nil, nil
	}

	if time.Since(time.UnixMilli(writtenAt)) >= ttl {
		telemetry.CacheMisses.WithLabelValues(key).Inc()
		return nil, nil
	}

	telemetry.CacheHits.WithLabelValues(key).Inc()
	return json.RawMessage(payload), nil
}

// Put overwrites the entry for key with payload.
func (s *SQLiteStore) Put(key string, payload json.RawMessage) error {
	_, err := s.db.Exec(`
		INSERT INTO cache_entries (key, payload, written_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			written_at = excluded.written_at
	`, key, []byte(payload), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// Clear removes the entry for key. Missing entries are not an error.
func (s *SQLiteStore) Clear(key string) error {
	if _, err := s.db.Exec("DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to clear cache entry %s: %w", key, err)
	}
	return nil
}

// Keys returns stored keys matching a glob pattern. The glob wildcards
// are translated to SQL LIKE wildcards.
func (s *SQLiteStore) Keys(pattern string) ([]string, error) {
	like := strings.NewReplacer("*", "%", "?", "_").Replace(pattern)

	rows, err := s.db.Query("SELECT key FROM cache_entries WHERE key LIKE ?", like)
	if err != nil {
		return nil, fmt.Errorf("key pattern query failed: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
