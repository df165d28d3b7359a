// Package attendance issues and verifies short-lived attendance codes.
// Codes are stored hashed; the plaintext is returned exactly once at issue
// time.
package attendance

import "time"

// Code is one issued attendance code.
type Code struct {
	ID        int64
	CodeHash  string
	Label     string
	IssuedBy  int64
	MaxUses   int
	Uses      int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the code is past its expiry at the given instant.
func (c Code) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Exhausted reports whether the code has no uses left. MaxUses of zero means
// unlimited.
func (c Code) Exhausted() bool {
	return c.MaxUses > 0 && c.Uses >= c.MaxUses
}
