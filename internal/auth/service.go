package auth

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/shared"
)

// Grants resolves a user's roles and effective permissions at token issue
// time. Implemented by the rbac service.
type Grants interface {
	RolesForUser(ctx context.Context, userID int64) ([]string, error)
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	grants   Grants
	tokens   *TokenManager
	revoked  *RevocationStore
	recorder activity.Recorder
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, grants Grants, tokens *TokenManager, revoked *RevocationStore, recorder activity.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, grants: grants, tokens: tokens, revoked: revoked, recorder: recorder, logger: logger}
}

// LoginResult bundles the signed token with the identity it encodes.
type LoginResult struct {
	Token  string
	User   *User
	Claims *Claims
}

// Login validates credentials and issues a bearer token carrying the user's
// roles and effective permissions, resolved in one pass.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	roles, err := s.grants.RolesForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	permissions, err := s.grants.EffectivePermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	token, claims, err := s.tokens.Issue(user, roles, permissions)
	if err != nil {
		return nil, err
	}

	s.record(ctx, user.ID, "auth.login", strconv.FormatInt(user.ID, 10), nil)
	return &LoginResult{Token: token, User: user, Claims: claims}, nil
}

// Logout revokes the presented token before the response is written, so a
// revoked token can never be replayed against protected endpoints.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return nil
	}
	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	if err := s.revoked.Revoke(ctx, claims.ID, expiry); err != nil {
		return err
	}
	s.record(ctx, subjectID(claims), "auth.logout", claims.Subject, nil)
	return nil
}

// CheckRevoked reports whether the token was revoked. Redis outages degrade
// to not-revoked with a warning rather than locking everyone out.
func (s *Service) CheckRevoked(ctx context.Context, tokenID string) bool {
	revoked, err := s.revoked.IsRevoked(ctx, tokenID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("revocation check failed", slog.Any("error", err))
		}
		return false
	}
	return revoked
}

func (s *Service) record(ctx context.Context, actorID int64, action, entityID string, meta map[string]any) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, activity.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record auth activity", slog.Any("error", err))
	}
}

func subjectID(claims *Claims) int64 {
	id, _ := strconv.ParseInt(claims.Subject, 10, 64)
	return id
}
