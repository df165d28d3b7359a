package users

import "context"

// Repository defines persistence for administrator accounts.
type Repository interface {
	List(ctx context.Context, page, perPage int) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, id int64, email, name string, isActive bool) (User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) (int64, error)
}
