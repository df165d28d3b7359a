package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/platform/httpx"
	"github.com/khandaa/adminbase/internal/shared"
)

// Service orchestrates RBAC operations.
type Service struct {
	repo     Repository
	recorder activity.Recorder
	logger   *slog.Logger
}

// NewService constructs a Service backed by the provided repository.
func NewService(repo Repository, recorder activity.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, actorID int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	role, err := s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "role.created", "role", strconv.FormatInt(role.ID, 10), map[string]any{"name": role.Name})
	return role, nil
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, actorID, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	role, err := s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "role.updated", "role", strconv.FormatInt(role.ID, 10), map[string]any{"name": role.Name})
	return role, nil
}

// DeleteRole removes a role by ID.
func (s *Service) DeleteRole(ctx context.Context, actorID, id int64) error {
	rows, err := s.repo.DeleteRole(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: role %d", httpx.ErrNotFound, id)
	}
	s.record(ctx, actorID, "role.deleted", "role", strconv.FormatInt(id, 10), nil)
	return nil
}

// ListPermissions returns all permissions ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// EnsurePermission upserts a permission.
func (s *Service) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, fmt.Errorf("%w: permission name required", httpx.ErrValidation)
	}
	return s.repo.EnsurePermission(ctx, name, strings.TrimSpace(description))
}

// EnsureCorePermissions seeds the built-in permission catalogue so roles on
// a fresh database can be granted immediately. Runs on every start; core
// scope descriptions are owned by the seeder and re-asserted.
func (s *Service) EnsureCorePermissions(ctx context.Context) error {
	for _, name := range shared.CoreScopes() {
		if _, err := s.repo.EnsurePermission(ctx, name, "Built-in platform permission."); err != nil {
			return fmt.Errorf("rbac: ensure permission %s: %w", name, err)
		}
	}
	return nil
}

// RolePermissions lists permissions attached to a role.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.repo.ListRolePermissions(ctx, roleID)
}

// SetRolePermissions replaces the permission set of a role by diffing the
// current assignments against the requested set.
func (s *Service) SetRolePermissions(ctx context.Context, actorID, roleID int64, permissionIDs []int64) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	current, err := s.repo.ListRolePermissions(ctx, roleID)
	if err != nil {
		return err
	}
	existing := make(map[int64]struct{}, len(current))
	for _, p := range current {
		existing[p.ID] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		keep[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			if err := s.repo.AttachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	for id := range existing {
		if _, ok := keep[id]; !ok {
			if err := s.repo.DetachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	s.record(ctx, actorID, "role.permissions_set", "role", strconv.FormatInt(roleID, 10), map[string]any{"count": len(permissionIDs)})
	return nil
}

// AssignRole assigns a role to the given user.
func (s *Service) AssignRole(ctx context.Context, actorID, userID, roleID int64) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.record(ctx, actorID, "user.role_assigned", "user", strconv.FormatInt(userID, 10), map[string]any{"role_id": roleID})
	return nil
}

// RemoveRole removes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, actorID, userID, roleID int64) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.record(ctx, actorID, "user.role_removed", "user", strconv.FormatInt(userID, 10), map[string]any{"role_id": roleID})
	return nil
}

// RolesForUser returns role names assigned to a user.
func (s *Service) RolesForUser(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.RolesForUser(ctx, userID)
}

// EffectivePermissions returns deduplicated permission names for a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.EffectivePermissions(ctx, userID)
}

func (s *Service) record(ctx context.Context, actorID int64, action, entity, entityID string, meta map[string]any) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, activity.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record rbac activity", slog.Any("error", err))
	}
}
