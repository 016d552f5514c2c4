package fx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls     int
	snapshots []*Snapshot
	err       error
}

func (s *stubProvider) FetchLatest(_ context.Context) (*Snapshot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	snap := s.snapshots[0]
	if len(s.snapshots) > 1 {
		s.snapshots = s.snapshots[1:]
	}
	return snap, nil
}

func TestCache_FreshnessWindow(t *testing.T) {
	t.Parallel()

	first := &Snapshot{Base: "USD", Rates: map[string]float64{"GBP": 0.8}, FetchedAt: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	second := &Snapshot{Base: "USD", Rates: map[string]float64{"GBP": 0.81}, FetchedAt: time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC)}
	provider := &stubProvider{snapshots: []*Snapshot{first, second}}

	cache := NewCache(provider, 12*time.Hour)
	now := first.FetchedAt
	cache.now = func() time.Time { return now }

	snap, cached, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.False(t, cached, "first call fetches")
	assert.Equal(t, first.FetchedAt, snap.FetchedAt)

	// Second call inside the window serves the identical snapshot.
	now = first.FetchedAt.Add(11 * time.Hour)
	snap2, cached, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, snap.FetchedAt, snap2.FetchedAt)
	assert.Equal(t, snap.Rates, snap2.Rates)
	assert.Equal(t, 1, provider.calls)

	// Past the window a fresh fetch replaces the snapshot wholesale.
	now = first.FetchedAt.Add(13 * time.Hour)
	snap3, cached, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, second.FetchedAt, snap3.FetchedAt)
	assert.Equal(t, 2, provider.calls)
}

func TestCache_FailedRefreshKeepsSnapshot(t *testing.T) {
	t.Parallel()

	stale := &Snapshot{Base: "USD", Rates: map[string]float64{"GBP": 0.8}, FetchedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	provider := &stubProvider{snapshots: []*Snapshot{stale}}

	cache := NewCache(provider, 12*time.Hour)
	now := stale.FetchedAt
	cache.now = func() time.Time { return now }

	_, _, err := cache.GetRates(context.Background())
	require.NoError(t, err)

	// Snapshot goes stale and the provider starts failing.
	now = stale.FetchedAt.Add(20 * time.Hour)
	provider.err = errors.New("upstream down")

	_, _, err = cache.GetRates(context.Background())
	require.Error(t, err)

	// The old snapshot was not cleared: once the provider recovers, or the
	// clock rolls back inside the window, it is still there.
	assert.NotNil(t, cache.snapshot.Load())
	assert.Equal(t, stale.Rates, cache.snapshot.Load().Rates)
}

func TestCache_DefaultTTL(t *testing.T) {
	t.Parallel()
	cache := NewCache(&stubProvider{}, 0)
	assert.Equal(t, DefaultTTL, cache.ttl)
}
