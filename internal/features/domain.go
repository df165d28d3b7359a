// Package features manages feature toggles: named boolean switches gating
// optional capabilities. Toggle state is authoritative in Postgres; the
// in-process cache is a best-effort mirror refreshed wholesale.
package features

import "time"

// Toggle is a named switch gating an optional capability.
type Toggle struct {
	ID          int64
	Name        string
	Enabled     bool
	Description string
	Category    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
