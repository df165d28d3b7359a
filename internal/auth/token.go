package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/khandaa/adminbase/internal/access"
	"github.com/khandaa/adminbase/internal/shared"
)

const issuer = "adminbase"

// Claims carries identity and grants inside the signed token.
type Claims struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token ttl must be positive")
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// TTL exposes the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token embedding the user's roles and effective permissions.
func (m *TokenManager) Issue(user *User, roles, permissions []string) (string, *Claims, error) {
	if user == nil {
		return "", nil, errors.New("auth: user required")
	}
	now := time.Now().UTC()
	claims := Claims{
		Email:       user.Email,
		Name:        user.Name,
		Roles:       dedupe(roles),
		Permissions: dedupe(permissions),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, &claims, nil
}

// Parse verifies signature and expiry and returns the claims.
func (m *TokenManager) Parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.ErrInvalidCredentials
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, shared.ErrInvalidCredentials
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, shared.ErrTokenExpired
		}
		return nil, shared.ErrInvalidCredentials
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, shared.ErrInvalidCredentials
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ExpiresAt == nil {
		return nil, shared.ErrInvalidCredentials
	}
	return claims, nil
}

// Principal converts claims into the engine's principal in one step.
func (c *Claims) Principal() (*access.Principal, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("auth: parse subject: %w", err)
	}
	var expiry time.Time
	if c.ExpiresAt != nil {
		expiry = c.ExpiresAt.Time
	}
	return &access.Principal{
		ID:          id,
		Email:       c.Email,
		DisplayName: c.Name,
		Roles:       c.Roles,
		Permissions: c.Permissions,
		TokenID:     c.ID,
		ExpiresAt:   expiry,
	}, nil
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
