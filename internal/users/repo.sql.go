package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khandaa/adminbase/internal/platform/httpx"
)

const userColumns = "id, email, name, password_hash, is_active, created_at, updated_at"

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns a page of users ordered by email plus the total count.
func (r *PGRepository) List(ctx context.Context, page, perPage int) ([]User, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY email LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, u)
	}
	return list, total, rows.Err()
}

// Get fetches a user by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
	}
	return u, err
}

// Create inserts a new user.
func (r *PGRepository) Create(ctx context.Context, u User) (User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, is_active)
		 VALUES (lower($1), $2, $3, $4)
		 RETURNING `+userColumns,
		strings.TrimSpace(u.Email), u.Name, u.PasswordHash, u.IsActive)
	created, err := scanUser(row)
	if isUniqueViolation(err) {
		return User{}, fmt.Errorf("%w: email %s", httpx.ErrDuplicate, u.Email)
	}
	return created, err
}

// Update modifies profile fields of an existing user.
func (r *PGRepository) Update(ctx context.Context, id int64, email, name string, isActive bool) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET email = lower($2), name = $3, is_active = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, strings.TrimSpace(email), name, isActive)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
	}
	if isUniqueViolation(err) {
		return User{}, fmt.Errorf("%w: email %s", httpx.ErrDuplicate, email)
	}
	return u, err
}

// UpdatePassword replaces the stored password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
	}
	return nil
}

// Delete removes a user by ID, returning rows deleted.
func (r *PGRepository) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
