// Package rbac manages roles, permissions and their assignments. The
// per-request access decision itself lives in package access; rbac is the
// management surface plus the grants lookup used when tokens are issued.
package rbac

import "time"

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability.
type Permission struct {
	ID          int64
	Name        string
	Description string
}
