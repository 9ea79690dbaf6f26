package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

type stubEnricher struct {
	mu      sync.Mutex
	results []*domain.EnrichmentResult
	errs    []error
	calls   int
}

func (s *stubEnricher) Enrich(ctx context.Context) (*domain.EnrichmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i], s.errs[i]
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []string
}

func (b *recordingBroadcaster) BroadcastRefresh(generationID string, count int, warnings []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, generationID)
}

func TestRefresher_FirstRunPopulatesLatest(t *testing.T) {
	enricher := &stubEnricher{
		results: []*domain.EnrichmentResult{{GenerationID: "gen-1", VulnerabilityCount: 3}},
		errs:    []error{nil},
	}
	broadcaster := &recordingBroadcaster{}
	r := NewRefresher(enricher, broadcaster, time.Hour)

	assert.Nil(t, r.Latest(), "no data before the first run")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return r.Latest() != nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "gen-1", r.Latest().GenerationID)

	broadcaster.mu.Lock()
	assert.Equal(t, []string{"gen-1"}, broadcaster.calls)
	broadcaster.mu.Unlock()

	cancel()
	<-done
}

func TestRefresher_FailedRunKeepsPreviousResult(t *testing.T) {
	enricher := &stubEnricher{
		results: []*domain.EnrichmentResult{{GenerationID: "gen-1"}, nil},
		errs:    []error{nil, errors.New("nvd down")},
	}
	r := NewRefresher(enricher, nil, time.Hour)

	r.refresh(context.Background())
	require.NotNil(t, r.Latest())

	r.refresh(context.Background())
	assert.Equal(t, "gen-1", r.Latest().GenerationID, "failure must not clobber the last good result")
}
