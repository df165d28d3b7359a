package activity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khandaa/adminbase/internal/access"
	_ "github.com/khandaa/adminbase/testing"
)

type sweepSpy struct {
	calls int
	err   error
}

func (s *sweepSpy) EnqueueActivitySweep(ctx context.Context) error {
	s.calls++
	return s.err
}

func sweepRouter(sweeps SweepEnqueuer) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, nil, sweeps, access.Guard{Logger: logger})
	r := chi.NewRouter()
	r.Route("/activity", func(r chi.Router) {
		handler.MountRoutes(r)
	})
	return r
}

func postSweep(router http.Handler, p *access.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/activity/sweep", nil)
	if p != nil {
		req = req.WithContext(access.ContextWithPrincipal(req.Context(), p))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestSweepEndpointEnqueues(t *testing.T) {
	spy := &sweepSpy{}
	router := sweepRouter(spy)

	rr := postSweep(router, &access.Principal{ID: 1, Roles: []string{"admin"}})

	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, 1, spy.calls)
}

func TestSweepEndpointRequiresAdmin(t *testing.T) {
	spy := &sweepSpy{}
	router := sweepRouter(spy)

	rr := postSweep(router, &access.Principal{ID: 2, Roles: []string{"manager"}, Permissions: []string{"activity.view"}})

	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Zero(t, spy.calls)
}

func TestSweepEndpointQueueFailure(t *testing.T) {
	spy := &sweepSpy{err: errors.New("redis down")}
	router := sweepRouter(spy)

	rr := postSweep(router, &access.Principal{ID: 1, Roles: []string{"admin"}})

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSweepEndpointWithoutQueue(t *testing.T) {
	router := sweepRouter(nil)

	rr := postSweep(router, &access.Principal{ID: 1, Roles: []string{"admin"}})

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
