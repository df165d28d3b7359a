// Package access implements the access decision engine: a single, pure
// evaluation of role, permission and feature-toggle requirements for the
// authenticated principal. Every protected route goes through this package;
// handlers never re-implement their own checks.
package access

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/khandaa/adminbase/internal/shared"
)

// Principal is the authenticated actor whose access is being evaluated.
// Roles and permissions are populated atomically from a single token decode
// and never mutated afterwards.
type Principal struct {
	ID          int64
	Email       string
	DisplayName string
	Roles       []string
	Permissions []string
	TokenID     string
	ExpiresAt   time.Time
}

// Rule is the declarative requirement attached to a protected resource.
// Role and permission lists carry any-of semantics. A zero Rule allows any
// authenticated principal.
type Rule struct {
	Roles       []string
	Permissions []string
	Feature     string
}

// Reason classifies the outcome of an evaluation.
type Reason string

const (
	ReasonNotAuthenticated    Reason = "NOT_AUTHENTICATED"
	ReasonAdminOverride       Reason = "ADMIN_OVERRIDE"
	ReasonMissingRole         Reason = "MISSING_ROLE"
	ReasonMissingPermission   Reason = "MISSING_PERMISSION"
	ReasonFeatureDisabled     Reason = "FEATURE_DISABLED"
	ReasonFeatureDefaultAllow Reason = "FEATURE_CHECK_FAILED_DEFAULT_ALLOW"
	ReasonOK                  Reason = "OK"
)

// Verdict is the allow/deny outcome plus reason for one evaluation.
type Verdict struct {
	Allowed bool
	Reason  Reason
}

// ToggleReader exposes the feature toggle cache to the engine. Lookup
// distinguishes a stored value from a cache miss; Default reports the
// configured fallback for a name. Loaded reports whether a snapshot from a
// successful fetch is installed, which lets the engine tell a name that is
// simply absent from toggle storage apart from a failed fetch.
type ToggleReader interface {
	Lookup(name string) (enabled bool, ok bool)
	Default(name string) bool
	Loaded() bool
}

// IsAdmin reports whether the principal holds the administrative role,
// case-insensitively.
func (p *Principal) IsAdmin() bool {
	return p.HasAnyRole(shared.RoleAdmin)
}

// HasAnyRole returns true when required is empty or the principal holds at
// least one of the listed roles. A nil principal holds nothing.
func (p *Principal) HasAnyRole(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	if p == nil {
		return false
	}
	return matchesAny(p.Roles, required)
}

// HasAnyPermission returns true when required is empty or the principal
// holds at least one of the listed permission codes.
func (p *Principal) HasAnyPermission(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	if p == nil {
		return false
	}
	return matchesAny(p.Permissions, required)
}

func matchesAny(granted []string, required []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		if g = fold(g); g != "" {
			set[g] = struct{}{}
		}
	}
	for _, r := range required {
		if r = fold(r); r == "" {
			continue
		}
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

// fold canonicalizes role and permission names for comparison. Unicode case
// folding rather than ASCII lowering, since display names come from user
// input.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
