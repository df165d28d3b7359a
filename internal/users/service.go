package users

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/platform/httpx"
	"github.com/khandaa/adminbase/internal/shared"
)

// RoleReader resolves role names for a user. Satisfied by the rbac service.
type RoleReader interface {
	RolesForUser(ctx context.Context, userID int64) ([]string, error)
}

// Service orchestrates user account management.
type Service struct {
	repo     Repository
	roles    RoleReader
	recorder activity.Recorder
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, roles RoleReader, recorder activity.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, roles: roles, recorder: recorder, logger: logger}
}

// List returns one page of users with pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	list, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

// Get fetches a user with their assigned roles.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if s.roles != nil {
		names, err := s.roles.RolesForUser(ctx, id)
		if err != nil {
			return User{}, err
		}
		u.Roles = names
	}
	return u, nil
}

// Create adds a user, hashing the supplied password with bcrypt.
func (s *Service) Create(ctx context.Context, actorID int64, email, name, password string, isActive bool) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, fmt.Errorf("%w: invalid email", httpx.ErrValidation)
	}
	if len(password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.repo.Create(ctx, User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		IsActive:     isActive,
	})
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.created", created.ID, map[string]any{"email": created.Email})
	return created, nil
}

// Update modifies profile fields. Deactivating your own account is rejected
// so an administrator cannot lock themselves out mid-session.
func (s *Service) Update(ctx context.Context, actorID, id int64, email, name string, isActive bool) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, fmt.Errorf("%w: invalid email", httpx.ErrValidation)
	}
	if id == actorID && !isActive {
		return User{}, fmt.Errorf("%w: cannot deactivate your own account", httpx.ErrValidation)
	}
	updated, err := s.repo.Update(ctx, id, email, strings.TrimSpace(name), isActive)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.updated", id, map[string]any{"email": updated.Email, "is_active": updated.IsActive})
	return updated, nil
}

// SetPassword replaces a user's password.
func (s *Service) SetPassword(ctx context.Context, actorID, id int64, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}
	s.record(ctx, actorID, "user.password_set", id, nil)
	return nil
}

// Delete removes a user. Self-deletion is rejected.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if id == actorID {
		return fmt.Errorf("%w: cannot delete your own account", httpx.ErrValidation)
	}
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
	}
	s.record(ctx, actorID, "user.deleted", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, userID int64, meta map[string]any) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, activity.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record user activity", slog.Any("error", err))
	}
}
