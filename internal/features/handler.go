package features

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/khandaa/adminbase/internal/access"
	"github.com/khandaa/adminbase/internal/platform/httpx"
	"github.com/khandaa/adminbase/internal/shared"
)

// Handler wires HTTP endpoints for feature toggles. Reads are open to any
// authenticated principal; writes require the edit permission.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	cache     *Cache
	guard     access.Guard
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, cache *Cache, guard access.Guard) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		cache:     cache,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers toggle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{}))
		r.Get("/", h.list)
		r.Get("/{name}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{Permissions: []string{shared.PermFeatureTogglesEdit}}))
		r.Post("/", h.create)
		r.Put("/{name}", h.update)
		r.Delete("/{name}", h.delete)
	})
}

type toggleDTO struct {
	Name        string `json:"feature_name"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

type toggleForm struct {
	Name        string `json:"feature_name" validate:"required,max=100"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description" validate:"max=500"`
	Category    string `json:"category" validate:"max=100"`
}

func toDTO(t Toggle) toggleDTO {
	return toggleDTO{Name: t.Name, Enabled: t.Enabled, Description: t.Description, Category: t.Category}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	toggles, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list toggles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]toggleDTO, 0, len(toggles))
	for _, t := range toggles {
		items = append(items, toDTO(t))
	}
	httpx.JSON(w, http.StatusOK, items)
}

// get serves point reads from the cache; the bulk fetch is the only storage
// read so a missing entry resolves through the configured default.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	httpx.JSON(w, http.StatusOK, map[string]any{
		"feature_name": name,
		"enabled":      h.cache.Enabled(name),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form toggleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), actorID(r), Toggle{
		Name:        form.Name,
		Enabled:     form.Enabled,
		Description: form.Description,
		Category:    form.Category,
	})
	if err != nil {
		h.logger.Error("create toggle", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDTO(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var form toggleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	form.Name = chi.URLParam(r, "name")
	updated, err := h.service.Update(r.Context(), actorID(r), form.Name, form.Enabled, form.Description, form.Category)
	if err != nil {
		h.logger.Error("update toggle", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.service.Delete(r.Context(), actorID(r), name); err != nil {
		h.logger.Error("delete toggle", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func actorID(r *http.Request) int64 {
	if p := access.PrincipalFromContext(r.Context()); p != nil {
		return p.ID
	}
	return 0
}
