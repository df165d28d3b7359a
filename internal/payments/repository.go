package payments

import "context"

// Repository defines persistence for QR configurations.
type Repository interface {
	List(ctx context.Context) ([]QRConfig, error)
	Get(ctx context.Context, id int64) (QRConfig, error)
	GetActive(ctx context.Context) (QRConfig, error)
	Create(ctx context.Context, c QRConfig) (QRConfig, error)
	Update(ctx context.Context, id int64, label, merchantName, vpa, payload string) (QRConfig, error)
	Activate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) (int64, error)
}
