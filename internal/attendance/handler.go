package attendance

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

// Handler wires HTTP endpoints for attendance codes. The whole surface is
// gated on the attendance_codes feature; managing codes and verifying them
// are separate permissions.
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

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{
			Permissions: []string{shared.PermAttendanceManage},
			Feature:     shared.FeatureAttendanceCodes,
		}))
		r.Get("/codes", h.listActive)
		r.Post("/codes", h.issue)
		r.Delete("/codes/{codeID}", h.revoke)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{
			Permissions: []string{shared.PermAttendanceVerify},
			Feature:     shared.FeatureAttendanceCodes,
		}))
		r.Post("/verify", h.verify)
	})
}

type codeDTO struct {
	ID        int64     `json:"code_id"`
	Label     string    `json:"label,omitempty"`
	MaxUses   int       `json:"max_uses"`
	Uses      int       `json:"uses"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type issueForm struct {
	Label      string `json:"label" validate:"max=200"`
	TTLMinutes int    `json:"ttl_minutes" validate:"required,min=1,max=1440"`
	MaxUses    int    `json:"max_uses" validate:"min=0"`
}

type verifyForm struct {
	Code string `json:"code" validate:"required,max=32"`
}

func toDTO(c Code) codeDTO {
	return codeDTO{
		ID:        c.ID,
		Label:     c.Label,
		MaxUses:   c.MaxUses,
		Uses:      c.Uses,
		ExpiresAt: c.ExpiresAt,
		CreatedAt: c.CreatedAt,
	}
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.ListActive(r.Context())
	if err != nil {
		h.logger.Error("list attendance codes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]codeDTO, 0, len(codes))
	for _, c := range codes {
		items = append(items, toDTO(c))
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	var form issueForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Issue(r.Context(), actorID(r), form.Label, time.Duration(form.TTLMinutes)*time.Minute, form.MaxUses)
	if err != nil {
		h.logger.Error("issue attendance code", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"code":       result.Code,
		"code_id":    result.Record.ID,
		"expires_at": result.ExpiresAt,
		"max_uses":   result.Record.MaxUses,
	})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "codeID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid codeID")
		return
	}
	if err := h.service.Revoke(r.Context(), actorID(r), id); err != nil {
		h.logger.Error("revoke attendance code", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	var form verifyForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.Verify(r.Context(), actorID(r), form.Code)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"valid":   true,
		"code_id": c.ID,
		"label":   c.Label,
		"uses":    c.Uses,
	})
}

func actorID(r *http.Request) int64 {
	if p := access.PrincipalFromContext(r.Context()); p != nil {
		return p.ID
	}
	return 0
}
