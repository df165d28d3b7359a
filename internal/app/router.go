package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/attendance"
	"github.com/khandaa/adminbase/internal/auth"
	"github.com/khandaa/adminbase/internal/features"
	"github.com/khandaa/adminbase/internal/observability"
	"github.com/khandaa/adminbase/internal/payments"
	"github.com/khandaa/adminbase/internal/rbac"
	"github.com/khandaa/adminbase/internal/users"
	"github.com/khandaa/adminbase/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Auth              *auth.Middleware
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	RBACHandler       *rbac.Handler
	FeaturesHandler   *features.Handler
	PaymentsHandler   *payments.Handler
	AttendanceHandler *attendance.Handler
	ActivityHandler   *activity.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Auth:    params.Auth,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/authentication", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})
	r.Route("/users", func(r chi.Router) {
		params.UsersHandler.MountRoutes(r)
		params.RBACHandler.MountUserRoleRoutes(r)
	})
	r.Route("/roles", func(r chi.Router) {
		params.RBACHandler.MountRoleRoutes(r)
	})
	r.Route("/permissions", func(r chi.Router) {
		params.RBACHandler.MountPermissionRoutes(r)
	})
	r.Route("/feature-toggles", func(r chi.Router) {
		params.FeaturesHandler.MountRoutes(r)
	})
	r.Route("/payment-qr", func(r chi.Router) {
		params.PaymentsHandler.MountRoutes(r)
	})
	r.Route("/attendance", func(r chi.Router) {
		params.AttendanceHandler.MountRoutes(r)
	})
	r.Route("/activity", func(r chi.Router) {
		params.ActivityHandler.MountRoutes(r)
	})
	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			params.JobHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
