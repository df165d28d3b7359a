// Package activity keeps the append-only log of privileged actions.
package activity

import (
	"context"
	"time"
)

// Entry represents one recorded action.
type Entry struct {
	ID       int64
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// Recorder is implemented by the service and consumed by domain services
// that log privileged mutations. Recording is best-effort at call sites.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}
