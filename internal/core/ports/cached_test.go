package ports

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	entries map[string]json.RawMessage
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]json.RawMessage)}
}

func (s *fakeStore) Get(key string, ttl time.Duration) (json.RawMessage, error) {
	return s.entries[key], nil
}

func (s *fakeStore) Put(key string, payload json.RawMessage) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[key] = payload
	return nil
}

func (s *fakeStore) Clear(key string) error {
	delete(s.entries, key)
	return nil
}

func (s *fakeStore) Keys(pattern string) ([]string, error) { return nil, nil }

func TestFetchCached_MissInvokesFetchAndWritesBack(t *testing.T) {
	store := newFakeStore()
	calls := 0

	got, err := FetchCached(context.Background(), store, "k.json", time.Hour, func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, calls)
	assert.JSONEq(t, `["a","b"]`, string(store.entries["k.json"]))
}

func TestFetchCached_HitSkipsFetch(t *testing.T) {
	store := newFakeStore()
	store.entries["k.json"] = json.RawMessage(`["cached"]`)

	got, err := FetchCached(context.Background(), store, "k.json", time.Hour, func(ctx context.Context) ([]string, error) {
		t.Fatal("fetch must not run on a hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cached"}, got)
}

func TestFetchCached_UndecodableEntryRefetches(t *testing.T) {
	store := newFakeStore()
	store.entries["k.json"] = json.RawMessage(`{"wrong": "shape"}`)

	got, err := FetchCached(context.Background(), store, "k.json", time.Hour, func(ctx context.Context) ([]int, error) {
		return []int{1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestFetchCached_FetchErrorPropagates(t *testing.T) {
	store := newFakeStore()

	_, err := FetchCached(context.Background(), store, "k.json", time.Hour, func(ctx context.Context) (int, error) {
		return 0, errors.New("upstream down")
	})
	assert.EqualError(t, err, "upstream down")
	assert.Empty(t, store.entries)
}

func TestFetchCached_WriteFailureDoesNotFailFetch(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("disk full")

	got, err := FetchCached(context.Background(), store, "k.json", time.Hour, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
