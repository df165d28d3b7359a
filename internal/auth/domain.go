// Package auth issues and validates bearer tokens for the admin API. Roles
// and effective permissions are embedded in the token at issue time from one
// database read, so the per-request principal is always populated
// atomically. The backend still re-checks every permission-sensitive
// operation; token claims are never the source of truth beyond routing.
package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
