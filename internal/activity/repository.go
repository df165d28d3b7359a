package activity

import (
	"context"
	"time"
)

// Repository defines persistence for activity entries.
type Repository interface {
	Insert(ctx context.Context, e Entry) error
	List(ctx context.Context, page, perPage int) ([]Entry, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
