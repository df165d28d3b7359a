package payments

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/platform/httpx"
)

type memRepo struct {
	configs map[int64]QRConfig
	nextID  int64
}

func newMemRepo() *memRepo {
	return &memRepo{configs: make(map[int64]QRConfig), nextID: 1}
}

func (m *memRepo) List(ctx context.Context) ([]QRConfig, error) {
	out := make([]QRConfig, 0, len(m.configs))
	for _, c := range m.configs {
		out = append(out, c)
	}
	return out, nil
}

func (m *memRepo) Get(ctx context.Context, id int64) (QRConfig, error) {
	c, ok := m.configs[id]
	if !ok {
		return QRConfig{}, fmt.Errorf("%w: qr config %d", httpx.ErrNotFound, id)
	}
	return c, nil
}

func (m *memRepo) GetActive(ctx context.Context) (QRConfig, error) {
	for _, c := range m.configs {
		if c.IsActive {
			return c, nil
		}
	}
	return QRConfig{}, fmt.Errorf("%w: no active qr config", httpx.ErrNotFound)
}

func (m *memRepo) Create(ctx context.Context, c QRConfig) (QRConfig, error) {
	c.ID = m.nextID
	c.IsActive = false
	m.nextID++
	m.configs[c.ID] = c
	return c, nil
}

func (m *memRepo) Update(ctx context.Context, id int64, label, merchantName, vpa, payload string) (QRConfig, error) {
	c, ok := m.configs[id]
	if !ok {
		return QRConfig{}, fmt.Errorf("%w: qr config %d", httpx.ErrNotFound, id)
	}
	c.Label = label
	c.MerchantName = merchantName
	c.VPA = vpa
	c.QRPayload = payload
	m.configs[id] = c
	return c, nil
}

func (m *memRepo) Activate(ctx context.Context, id int64) error {
	if _, ok := m.configs[id]; !ok {
		return fmt.Errorf("%w: qr config %d", httpx.ErrNotFound, id)
	}
	for cid, c := range m.configs {
		c.IsActive = cid == id
		m.configs[cid] = c
	}
	return nil
}

func (m *memRepo) Delete(ctx context.Context, id int64) (int64, error) {
	if _, ok := m.configs[id]; !ok {
		return 0, nil
	}
	delete(m.configs, id)
	return 1, nil
}

type recorderSpy struct {
	entries []activity.Entry
}

func (r *recorderSpy) Record(ctx context.Context, e activity.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func validConfig() QRConfig {
	return QRConfig{Label: "Main counter", MerchantName: "Khandaa", VPA: "khandaa@upi", QRPayload: "upi://pay?pa=khandaa@upi"}
}

func TestCreateStartsInactive(t *testing.T) {
	spy := &recorderSpy{}
	svc := NewService(newMemRepo(), spy, nil)

	c, err := svc.Create(context.Background(), 3, validConfig())
	require.NoError(t, err)
	assert.False(t, c.IsActive)

	require.Len(t, spy.entries, 1)
	assert.Equal(t, "payment_qr.created", spy.entries[0].Action)
	assert.Equal(t, int64(3), spy.entries[0].ActorID)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)

	c := validConfig()
	c.Label = "  "
	_, err := svc.Create(context.Background(), 1, c)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	c = validConfig()
	c.VPA = "not-a-vpa"
	_, err = svc.Create(context.Background(), 1, c)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	c = validConfig()
	c.QRPayload = ""
	_, err = svc.Create(context.Background(), 1, c)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestActivateIsExclusive(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, validConfig())
	require.NoError(t, err)
	second, err := svc.Create(ctx, 1, validConfig())
	require.NoError(t, err)

	require.NoError(t, svc.Activate(ctx, 1, first.ID))
	require.NoError(t, svc.Activate(ctx, 1, second.ID))

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.False(t, repo.configs[first.ID].IsActive)
}

func TestActivateMissing(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	err := svc.Activate(context.Background(), 1, 404)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteActiveRejected(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, 1, validConfig())
	require.NoError(t, err)
	require.NoError(t, svc.Activate(ctx, 1, c.ID))

	err = svc.Delete(ctx, 1, c.ID)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeleteInactive(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, 1, validConfig())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 1, c.ID))

	_, err = svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestActiveWhenNoneConfigured(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	_, err := svc.Active(context.Background())
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}
