package payments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/khandaa/adminbase/internal/access"
	"github.com/khandaa/adminbase/internal/platform/httpx"
	"github.com/khandaa/adminbase/internal/shared"
)

// Handler wires HTTP endpoints for QR configurations. Every route is gated
// on the payment_integration feature so the whole surface disappears when
// the toggle is off.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     access.Guard
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard access.Guard) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers payment QR routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{
			Permissions: []string{shared.PermPaymentView},
			Feature:     shared.FeaturePaymentIntegration,
		}))
		r.Get("/", h.list)
		r.Get("/active", h.active)
		r.Get("/{configID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{
			Permissions: []string{shared.PermPaymentEdit},
			Feature:     shared.FeaturePaymentIntegration,
		}))
		r.Post("/", h.create)
		r.Put("/{configID}", h.update)
		r.Post("/{configID}/activate", h.activate)
		r.Delete("/{configID}", h.delete)
	})
}

type configDTO struct {
	ID           int64     `json:"config_id"`
	Label        string    `json:"label"`
	MerchantName string    `json:"merchant_name,omitempty"`
	VPA          string    `json:"vpa"`
	QRPayload    string    `json:"qr_payload"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type configForm struct {
	Label        string `json:"label" validate:"required,max=200"`
	MerchantName string `json:"merchant_name" validate:"max=200"`
	VPA          string `json:"vpa" validate:"required,contains=@,max=200"`
	QRPayload    string `json:"qr_payload" validate:"required,max=2000"`
}

func toDTO(c QRConfig) configDTO {
	return configDTO{
		ID:           c.ID,
		Label:        c.Label,
		MerchantName: c.MerchantName,
		VPA:          c.VPA,
		QRPayload:    c.QRPayload,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	configs, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list qr configs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]configDTO, 0, len(configs))
	for _, c := range configs {
		items = append(items, toDTO(c))
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) active(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Active(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(c))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(c))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	c, err := h.service.Create(r.Context(), actorID(r), QRConfig{
		Label:        form.Label,
		MerchantName: form.MerchantName,
		VPA:          form.VPA,
		QRPayload:    form.QRPayload,
	})
	if err != nil {
		h.logger.Error("create qr config", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDTO(c))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	c, err := h.service.Update(r.Context(), actorID(r), id, QRConfig{
		Label:        form.Label,
		MerchantName: form.MerchantName,
		VPA:          form.VPA,
		QRPayload:    form.QRPayload,
	})
	if err != nil {
		h.logger.Error("update qr config", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(c))
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Activate(r.Context(), actorID(r), id); err != nil {
		h.logger.Error("activate qr config", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actorID(r), id); err != nil {
		h.logger.Error("delete qr config", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request) (configForm, bool) {
	var form configForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return form, false
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return form, false
	}
	return form, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "configID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid configID")
		return 0, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	if p := access.PrincipalFromContext(r.Context()); p != nil {
		return p.ID
	}
	return 0
}
