package features

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khandaa/adminbase/internal/platform/httpx"
)

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const toggleColumns = `id, name, enabled, description, category, created_at, updated_at`

// ListToggles returns all toggles ordered by name.
func (r *PGRepository) ListToggles(ctx context.Context) ([]Toggle, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+toggleColumns+` FROM feature_toggles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var toggles []Toggle
	for rows.Next() {
		t, err := scanToggle(rows)
		if err != nil {
			return nil, err
		}
		toggles = append(toggles, t)
	}
	return toggles, rows.Err()
}

// GetToggle fetches a toggle by name.
func (r *PGRepository) GetToggle(ctx context.Context, name string) (Toggle, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+toggleColumns+` FROM feature_toggles WHERE name = $1`, name)
	t, err := scanToggle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Toggle{}, fmt.Errorf("%w: toggle %s", httpx.ErrNotFound, name)
	}
	return t, err
}

// CreateToggle inserts a new toggle.
func (r *PGRepository) CreateToggle(ctx context.Context, t Toggle) (Toggle, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO feature_toggles (name, enabled, description, category) VALUES ($1, $2, $3, $4) RETURNING `+toggleColumns,
		t.Name, t.Enabled, t.Description, t.Category)
	created, err := scanToggle(row)
	if isUniqueViolation(err) {
		return Toggle{}, fmt.Errorf("%w: toggle %s", httpx.ErrDuplicate, t.Name)
	}
	return created, err
}

// UpdateToggle updates an existing toggle by name.
func (r *PGRepository) UpdateToggle(ctx context.Context, name string, enabled bool, description, category string) (Toggle, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE feature_toggles SET enabled = $2, description = $3, category = $4, updated_at = NOW() WHERE name = $1 RETURNING `+toggleColumns,
		name, enabled, description, category)
	t, err := scanToggle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Toggle{}, fmt.Errorf("%w: toggle %s", httpx.ErrNotFound, name)
	}
	return t, err
}

// DeleteToggle removes a toggle by name, returning the number of rows deleted.
func (r *PGRepository) DeleteToggle(ctx context.Context, name string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM feature_toggles WHERE name = $1`, name)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanToggle(row pgx.Row) (Toggle, error) {
	var t Toggle
	err := row.Scan(&t.ID, &t.Name, &t.Enabled, &t.Description, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
