package rbac

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

// Handler wires HTTP endpoints for role and permission management.
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

// MountRoleRoutes registers role management routes.
func (h *Handler) MountRoleRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{Permissions: []string{shared.PermRolesView}}))
		r.Get("/", h.listRoles)
		r.Get("/{roleID}", h.getRole)
		r.Get("/{roleID}/permissions", h.rolePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{Permissions: []string{shared.PermRolesEdit}}))
		r.Post("/", h.createRole)
		r.Put("/{roleID}", h.updateRole)
		r.Delete("/{roleID}", h.deleteRole)
		r.Put("/{roleID}/permissions", h.setRolePermissions)
	})
}

// MountUserRoleRoutes registers role assignment endpoints, mounted under the
// users surface.
func (h *Handler) MountUserRoleRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{Permissions: []string{shared.PermRolesEdit}}))
		r.Post("/{userID}/roles/{roleID}", h.assignRole)
		r.Delete("/{userID}/roles/{roleID}", h.removeRole)
	})
}

// MountPermissionRoutes registers the read-only permission catalogue.
func (h *Handler) MountPermissionRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(access.Rule{Permissions: []string{shared.PermPermissionsView}}))
		r.Get("/", h.listPermissions)
	})
}

type roleDTO struct {
	ID          int64     `json:"role_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type permissionDTO struct {
	ID          int64  `json:"permission_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type roleForm struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type rolePermissionsForm struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required"`
}

func roleToDTO(role Role) roleDTO {
	return roleDTO{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

func permissionToDTO(p Permission) permissionDTO {
	return permissionDTO{ID: p.ID, Name: p.Name, Description: p.Description}
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]roleDTO, 0, len(roles))
	for _, role := range roles {
		items = append(items, roleToDTO(role))
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roleToDTO(role))
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var form roleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), actorID(r), form.Name, form.Description)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, roleToDTO(role))
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	var form roleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.UpdateRole(r.Context(), actorID(r), id, form.Name, form.Description)
	if err != nil {
		h.logger.Error("update role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roleToDTO(role))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), actorID(r), id); err != nil {
		h.logger.Error("delete role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	perms, err := h.service.RolePermissions(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items := make([]permissionDTO, 0, len(perms))
	for _, p := range perms {
		items = append(items, permissionToDTO(p))
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) setRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	var form rolePermissionsForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.SetRolePermissions(r.Context(), actorID(r), id, form.PermissionIDs); err != nil {
		h.logger.Error("set role permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.AssignRole(r.Context(), actorID(r), userID, roleID); err != nil {
		h.logger.Error("assign role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.RemoveRole(r.Context(), actorID(r), userID, roleID); err != nil {
		h.logger.Error("remove role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]permissionDTO, 0, len(perms))
	for _, p := range perms {
		items = append(items, permissionToDTO(p))
	}
	httpx.JSON(w, http.StatusOK, items)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+name)
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
