package app_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khandaa/adminbase/internal/access"
	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/app"
	"github.com/khandaa/adminbase/internal/attendance"
	"github.com/khandaa/adminbase/internal/auth"
	"github.com/khandaa/adminbase/internal/features"
	"github.com/khandaa/adminbase/internal/observability"
	"github.com/khandaa/adminbase/internal/payments"
	"github.com/khandaa/adminbase/internal/rbac"
	"github.com/khandaa/adminbase/internal/users"
	_ "github.com/khandaa/adminbase/testing"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	cfg := &app.Config{AppRequestTimeout: 5 * time.Second}

	tokens, err := auth.NewTokenManager("router-test-secret", time.Hour)
	require.NoError(t, err)

	cache := features.NewCache(nil, nil, logger)
	guard := access.Guard{Toggles: cache, Logger: logger}

	activityService := activity.NewService(nil)
	rbacService := rbac.NewService(nil, nil, logger)
	usersService := users.NewService(nil, rbacService, nil, logger)
	featureService := features.NewService(nil, cache, nil, nil, logger)
	paymentService := payments.NewService(nil, nil, logger)
	attendanceService := attendance.NewService(nil, nil, logger)
	authService := auth.NewService(nil, rbacService, tokens, nil, nil, logger)

	return app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Auth:              &auth.Middleware{Tokens: tokens, Service: authService, Logger: logger},
		AuthHandler:       auth.NewHandler(logger, authService),
		UsersHandler:      users.NewHandler(logger, usersService, guard),
		RBACHandler:       rbac.NewHandler(logger, rbacService, guard),
		FeaturesHandler:   features.NewHandler(logger, featureService, cache, guard),
		PaymentsHandler:   payments.NewHandler(logger, paymentService, guard),
		AttendanceHandler: attendance.NewHandler(logger, attendanceService, guard),
		ActivityHandler:   activity.NewHandler(logger, activityService, nil, guard),
		Metrics:           observability.NewMetrics(),
	})
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func TestRouterHealthz(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}

func TestRouterProtectedRoutesRejectAnonymous(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/users", "/roles", "/permissions", "/payment-qr", "/attendance/codes", "/activity"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "path %s", path)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	// Prime the request counter so the family shows up in the scrape.
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "adminbase_http_requests_total")
}
