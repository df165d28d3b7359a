package features

import "context"

// Repository defines persistence for feature toggles.
type Repository interface {
	ListToggles(ctx context.Context) ([]Toggle, error)
	GetToggle(ctx context.Context, name string) (Toggle, error)
	CreateToggle(ctx context.Context, t Toggle) (Toggle, error)
	UpdateToggle(ctx context.Context, name string, enabled bool, description, category string) (Toggle, error)
	DeleteToggle(ctx context.Context, name string) (int64, error)
}
