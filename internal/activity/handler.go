package activity

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/khandaa/adminbase/internal/access"
	"github.com/khandaa/adminbase/internal/platform/httpx"
	"github.com/khandaa/adminbase/internal/shared"
)

// SweepEnqueuer queues an out-of-band retention sweep instead of waiting for
// the next scheduled run.
type SweepEnqueuer interface {
	EnqueueActivitySweep(ctx context.Context) error
}

// Handler exposes the activity log over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	sweeps  SweepEnqueuer
	guard   access.Guard
}

// NewHandler builds Handler instance. sweeps may be nil when no job queue is
// configured; the sweep endpoint then reports the queue as unavailable.
func NewHandler(logger *slog.Logger, service *Service, sweeps SweepEnqueuer, guard access.Guard) *Handler {
	return &Handler{logger: logger, service: service, sweeps: sweeps, guard: guard}
}

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{Permissions: []string{shared.PermActivityView}}))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{Roles: []string{shared.RoleAdmin}}))
		r.Post("/sweep", h.sweep)
	})
}

type entryDTO struct {
	ID       int64          `json:"id"`
	ActorID  int64          `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"occurred_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	entries, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list activity", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryDTO{
			ID:       e.ID,
			ActorID:  e.ActorID,
			Action:   e.Action,
			Entity:   e.Entity,
			EntityID: e.EntityID,
			Meta:     e.Meta,
			At:       e.At,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": pagination,
	})
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	if h.sweeps == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "job queue not configured")
		return
	}
	if err := h.sweeps.EnqueueActivitySweep(r.Context()); err != nil {
		h.logger.Error("enqueue activity sweep", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "could not enqueue sweep")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
