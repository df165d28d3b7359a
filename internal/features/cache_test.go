package features

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBulkReader struct {
	mu      sync.Mutex
	toggles []Toggle
	err     error
	calls   int
}

func (s *stubBulkReader) ListToggles(ctx context.Context) ([]Toggle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.toggles, nil
}

func TestCacheRefreshSwapsSnapshot(t *testing.T) {
	repo := &stubBulkReader{toggles: []Toggle{
		{Name: "payment_integration", Enabled: true},
		{Name: "attendance_codes", Enabled: false},
	}}
	cache := NewCache(repo, nil, nil)

	require.False(t, cache.Loaded())
	require.NoError(t, cache.Refresh(context.Background()))
	require.True(t, cache.Loaded())

	enabled, ok := cache.Lookup("payment_integration")
	assert.True(t, ok)
	assert.True(t, enabled)

	enabled, ok = cache.Lookup("attendance_codes")
	assert.True(t, ok)
	assert.False(t, enabled)

	// The next refresh replaces the snapshot wholesale; removed toggles
	// do not linger.
	repo.mu.Lock()
	repo.toggles = []Toggle{{Name: "payment_integration", Enabled: false}}
	repo.mu.Unlock()
	require.NoError(t, cache.Refresh(context.Background()))

	enabled, ok = cache.Lookup("payment_integration")
	assert.True(t, ok)
	assert.False(t, enabled)
	_, ok = cache.Lookup("attendance_codes")
	assert.False(t, ok)
}

func TestCacheFailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	repo := &stubBulkReader{toggles: []Toggle{{Name: "payment_integration", Enabled: true}}}
	cache := NewCache(repo, nil, nil)
	require.NoError(t, cache.Refresh(context.Background()))

	repo.mu.Lock()
	repo.err = errors.New("connection refused")
	repo.mu.Unlock()
	require.Error(t, cache.Refresh(context.Background()))

	enabled, ok := cache.Lookup("payment_integration")
	assert.True(t, ok)
	assert.True(t, enabled)
}

func TestCacheDefaultDenyOnEmptyCache(t *testing.T) {
	repo := &stubBulkReader{err: errors.New("boom")}
	cache := NewCache(repo, nil, nil)
	_ = cache.Refresh(context.Background())

	// Fetch failure is terminal for the session; every read resolves to
	// the configured default, consistently.
	for i := 0; i < 3; i++ {
		assert.False(t, cache.Enabled("payment_integration"))
	}
	_, ok := cache.Lookup("payment_integration")
	assert.False(t, ok)
}

func TestCacheDefaultAllowList(t *testing.T) {
	cache := NewCache(&stubBulkReader{err: errors.New("boom")}, []string{"new_dashboard", " banner "}, nil)

	assert.True(t, cache.Default("new_dashboard"))
	assert.True(t, cache.Default("banner"))
	assert.False(t, cache.Default("payment_integration"))

	assert.True(t, cache.Enabled("new_dashboard"))
	assert.False(t, cache.Enabled("payment_integration"))
}

func TestCacheStoredValueBeatsDefault(t *testing.T) {
	repo := &stubBulkReader{toggles: []Toggle{{Name: "new_dashboard", Enabled: false}}}
	cache := NewCache(repo, []string{"new_dashboard"}, nil)
	require.NoError(t, cache.Refresh(context.Background()))

	assert.False(t, cache.Enabled("new_dashboard"))
}

func TestCacheClear(t *testing.T) {
	repo := &stubBulkReader{toggles: []Toggle{{Name: "payment_integration", Enabled: true}}}
	cache := NewCache(repo, nil, nil)
	require.NoError(t, cache.Refresh(context.Background()))

	cache.Clear()
	assert.False(t, cache.Loaded())
	assert.False(t, cache.Enabled("payment_integration"))
}
