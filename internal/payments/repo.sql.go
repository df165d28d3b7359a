package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khandaa/adminbase/internal/platform/httpx"
)

const qrColumns = "id, label, merchant_name, vpa, qr_payload, is_active, created_at, updated_at"

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns all QR configurations, active first then newest first.
func (r *PGRepository) List(ctx context.Context) ([]QRConfig, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+qrColumns+` FROM payment_qr_configs ORDER BY is_active DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []QRConfig
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Get fetches a configuration by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (QRConfig, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+qrColumns+` FROM payment_qr_configs WHERE id = $1`, id)
	c, err := scanConfig(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return QRConfig{}, fmt.Errorf("%w: qr config %d", httpx.ErrNotFound, id)
	}
	return c, err
}

// GetActive fetches the currently active configuration.
func (r *PGRepository) GetActive(ctx context.Context) (QRConfig, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+qrColumns+` FROM payment_qr_configs WHERE is_active LIMIT 1`)
	c, err := scanConfig(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return QRConfig{}, fmt.Errorf("%w: no active qr config", httpx.ErrNotFound)
	}
	return c, err
}

// Create inserts a new configuration. New configs start inactive.
func (r *PGRepository) Create(ctx context.Context, c QRConfig) (QRConfig, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO payment_qr_configs (label, merchant_name, vpa, qr_payload, is_active)
		 VALUES ($1, $2, $3, $4, FALSE)
		 RETURNING `+qrColumns,
		c.Label, c.MerchantName, c.VPA, c.QRPayload)
	return scanConfig(row)
}

// Update modifies an existing configuration.
func (r *PGRepository) Update(ctx context.Context, id int64, label, merchantName, vpa, payload string) (QRConfig, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE payment_qr_configs
		 SET label = $2, merchant_name = $3, vpa = $4, qr_payload = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+qrColumns,
		id, label, merchantName, vpa, payload)
	c, err := scanConfig(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return QRConfig{}, fmt.Errorf("%w: qr config %d", httpx.ErrNotFound, id)
	}
	return c, err
}

// Activate marks one configuration active and deactivates the rest in a
// single transaction.
func (r *PGRepository) Activate(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `UPDATE payment_qr_configs SET is_active = FALSE, updated_at = NOW() WHERE is_active`); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE payment_qr_configs SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: qr config %d", httpx.ErrNotFound, id)
	}
	return tx.Commit(ctx)
}

// Delete removes a configuration, returning rows deleted.
func (r *PGRepository) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payment_qr_configs WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanConfig(row pgx.Row) (QRConfig, error) {
	var c QRConfig
	err := row.Scan(&c.ID, &c.Label, &c.MerchantName, &c.VPA, &c.QRPayload, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
