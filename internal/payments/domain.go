// Package payments manages the payment QR configuration shown to end users.
// Settlement and the QR rendering itself are external; this surface only
// stores which merchant details the active QR code encodes.
package payments

import "time"

// QRConfig is one stored payment QR configuration. At most one config is
// active at a time.
type QRConfig struct {
	ID           int64
	Label        string
	MerchantName string
	VPA          string
	QRPayload    string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
