package attendance

import (
	"context"
	"time"
)

// Repository defines persistence for attendance codes.
type Repository interface {
	Insert(ctx context.Context, c Code) (Code, error)
	FindByHash(ctx context.Context, hash string) (Code, error)
	ListActive(ctx context.Context, now time.Time) ([]Code, error)
	IncrementUses(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
