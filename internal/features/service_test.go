package features

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/platform/httpx"
)

type mockRepo struct {
	toggles map[string]Toggle
	nextID  int64
	listErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{toggles: make(map[string]Toggle), nextID: 1}
}

func (m *mockRepo) ListToggles(ctx context.Context) ([]Toggle, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Toggle, 0, len(m.toggles))
	for _, t := range m.toggles {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockRepo) GetToggle(ctx context.Context, name string) (Toggle, error) {
	t, ok := m.toggles[name]
	if !ok {
		return Toggle{}, fmt.Errorf("%w: toggle %s", httpx.ErrNotFound, name)
	}
	return t, nil
}

func (m *mockRepo) CreateToggle(ctx context.Context, t Toggle) (Toggle, error) {
	if _, ok := m.toggles[t.Name]; ok {
		return Toggle{}, fmt.Errorf("%w: toggle %s", httpx.ErrDuplicate, t.Name)
	}
	t.ID = m.nextID
	m.nextID++
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.toggles[t.Name] = t
	return t, nil
}

func (m *mockRepo) UpdateToggle(ctx context.Context, name string, enabled bool, description, category string) (Toggle, error) {
	t, ok := m.toggles[name]
	if !ok {
		return Toggle{}, fmt.Errorf("%w: toggle %s", httpx.ErrNotFound, name)
	}
	t.Enabled = enabled
	t.Description = description
	t.Category = category
	t.UpdatedAt = time.Now()
	m.toggles[name] = t
	return t, nil
}

func (m *mockRepo) DeleteToggle(ctx context.Context, name string) (int64, error) {
	if _, ok := m.toggles[name]; !ok {
		return 0, nil
	}
	delete(m.toggles, name)
	return 1, nil
}

type queueSpy struct {
	calls int
	err   error
}

func (q *queueSpy) EnqueueToggleRefresh(ctx context.Context) error {
	q.calls++
	return q.err
}

type recorderSpy struct {
	entries []activity.Entry
	err     error
}

func (r *recorderSpy) Record(ctx context.Context, e activity.Entry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func TestServiceCreateRefreshesCacheAndRecords(t *testing.T) {
	repo := newMockRepo()
	cache := NewCache(repo, nil, nil)
	spy := &recorderSpy{}
	svc := NewService(repo, cache, nil, spy, nil)

	created, err := svc.Create(context.Background(), 42, Toggle{Name: "payment_integration", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "payment_integration", created.Name)

	enabled, ok := cache.Lookup("payment_integration")
	assert.True(t, ok)
	assert.True(t, enabled)

	require.Len(t, spy.entries, 1)
	assert.Equal(t, int64(42), spy.entries[0].ActorID)
	assert.Equal(t, "feature_toggle.created", spy.entries[0].Action)
	assert.Equal(t, "payment_integration", spy.entries[0].EntityID)
}

func TestServiceCreateValidatesName(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), 1, Toggle{Name: "  "})
	require.Error(t, err)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestServiceCreateDuplicate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), 1, Toggle{Name: "payment_integration"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 1, Toggle{Name: "payment_integration"})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestServiceUpdateSwapsCacheValue(t *testing.T) {
	repo := newMockRepo()
	cache := NewCache(repo, nil, nil)
	svc := NewService(repo, cache, nil, nil, nil)

	_, err := svc.Create(context.Background(), 1, Toggle{Name: "attendance_codes", Enabled: true})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 1, "attendance_codes", false, "", "")
	require.NoError(t, err)

	enabled, ok := cache.Lookup("attendance_codes")
	assert.True(t, ok)
	assert.False(t, enabled)
}

func TestServiceDeleteMissing(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil, nil, nil)
	err := svc.Delete(context.Background(), 1, "nope")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestServiceDeleteRemovesFromCache(t *testing.T) {
	repo := newMockRepo()
	cache := NewCache(repo, nil, nil)
	svc := NewService(repo, cache, nil, nil, nil)

	_, err := svc.Create(context.Background(), 1, Toggle{Name: "banner", Enabled: true})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), 1, "banner"))

	_, ok := cache.Lookup("banner")
	assert.False(t, ok)
}

func TestServiceWritesEnqueueRefresh(t *testing.T) {
	repo := newMockRepo()
	queue := &queueSpy{}
	svc := NewService(repo, NewCache(repo, nil, nil), queue, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, Toggle{Name: "banner", Enabled: true})
	require.NoError(t, err)
	_, err = svc.Update(ctx, 1, "banner", false, "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 1, "banner"))

	assert.Equal(t, 3, queue.calls)
}

func TestServiceEnqueueFailureDoesNotFailWrite(t *testing.T) {
	repo := newMockRepo()
	queue := &queueSpy{err: errors.New("redis down")}
	cache := NewCache(repo, nil, nil)
	svc := NewService(repo, cache, queue, nil, nil)

	created, err := svc.Create(context.Background(), 1, Toggle{Name: "banner", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "banner", created.Name)

	// The local mirror still refreshed synchronously.
	enabled, ok := cache.Lookup("banner")
	assert.True(t, ok)
	assert.True(t, enabled)
}

func TestServiceRecorderFailureDoesNotFailWrite(t *testing.T) {
	repo := newMockRepo()
	spy := &recorderSpy{err: errors.New("audit db down")}
	svc := NewService(repo, NewCache(repo, nil, nil), nil, spy, nil)

	_, err := svc.Create(context.Background(), 1, Toggle{Name: "banner"})
	assert.NoError(t, err)
}
