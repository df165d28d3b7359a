// Package users manages administrator accounts.
package users

import "time"

// User is an administrator account. PasswordHash never leaves the service
// layer.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Roles is populated on detail reads, not on listings.
	Roles []string
}
