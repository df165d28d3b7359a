package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khandaa/adminbase/internal/platform/httpx"
)

const codeColumns = "id, code_hash, label, issued_by, max_uses, uses, expires_at, created_at"

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert stores a new code.
func (r *PGRepository) Insert(ctx context.Context, c Code) (Code, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO attendance_codes (code_hash, label, issued_by, max_uses, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+codeColumns,
		c.CodeHash, c.Label, c.IssuedBy, c.MaxUses, c.ExpiresAt)
	return scanCode(row)
}

// FindByHash looks a code up by its stored hash.
func (r *PGRepository) FindByHash(ctx context.Context, hash string) (Code, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+codeColumns+` FROM attendance_codes WHERE code_hash = $1`, hash)
	c, err := scanCode(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Code{}, fmt.Errorf("%w: attendance code", httpx.ErrNotFound)
	}
	return c, err
}

// ListActive returns codes that have not yet expired, soonest expiry first.
func (r *PGRepository) ListActive(ctx context.Context, now time.Time) ([]Code, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+codeColumns+` FROM attendance_codes WHERE expires_at > $1 ORDER BY expires_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Code
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// IncrementUses bumps the use counter.
func (r *PGRepository) IncrementUses(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE attendance_codes SET uses = uses + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: attendance code %d", httpx.ErrNotFound, id)
	}
	return nil
}

// Delete removes a code, returning rows deleted.
func (r *PGRepository) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attendance_codes WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired removes codes that expired before the cutoff.
func (r *PGRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attendance_codes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanCode(row pgx.Row) (Code, error) {
	var c Code
	err := row.Scan(&c.ID, &c.CodeHash, &c.Label, &c.IssuedBy, &c.MaxUses, &c.Uses, &c.ExpiresAt, &c.CreatedAt)
	return c, err
}
