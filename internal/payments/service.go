package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/platform/httpx"
)

// Service orchestrates QR configuration management.
type Service struct {
	repo     Repository
	recorder activity.Recorder
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, recorder activity.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

// List returns all stored configurations.
func (s *Service) List(ctx context.Context) ([]QRConfig, error) {
	return s.repo.List(ctx)
}

// Get fetches one configuration.
func (s *Service) Get(ctx context.Context, id int64) (QRConfig, error) {
	return s.repo.Get(ctx, id)
}

// Active returns the configuration currently served to end users.
func (s *Service) Active(ctx context.Context) (QRConfig, error) {
	return s.repo.GetActive(ctx)
}

// Create stores a new configuration. It starts inactive until explicitly
// activated.
func (s *Service) Create(ctx context.Context, actorID int64, c QRConfig) (QRConfig, error) {
	if err := validate(&c); err != nil {
		return QRConfig{}, err
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return QRConfig{}, err
	}
	s.record(ctx, actorID, "payment_qr.created", created.ID, map[string]any{"label": created.Label})
	return created, nil
}

// Update modifies an existing configuration.
func (s *Service) Update(ctx context.Context, actorID, id int64, c QRConfig) (QRConfig, error) {
	if err := validate(&c); err != nil {
		return QRConfig{}, err
	}
	updated, err := s.repo.Update(ctx, id, c.Label, c.MerchantName, c.VPA, c.QRPayload)
	if err != nil {
		return QRConfig{}, err
	}
	s.record(ctx, actorID, "payment_qr.updated", id, map[string]any{"label": updated.Label})
	return updated, nil
}

// Activate switches the active configuration.
func (s *Service) Activate(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Activate(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "payment_qr.activated", id, nil)
	return nil
}

// Delete removes a configuration. The active config cannot be deleted.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.IsActive {
		return fmt.Errorf("%w: deactivate before deleting the active config", httpx.ErrValidation)
	}
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: qr config %d", httpx.ErrNotFound, id)
	}
	s.record(ctx, actorID, "payment_qr.deleted", id, nil)
	return nil
}

func validate(c *QRConfig) error {
	c.Label = strings.TrimSpace(c.Label)
	c.MerchantName = strings.TrimSpace(c.MerchantName)
	c.VPA = strings.TrimSpace(c.VPA)
	c.QRPayload = strings.TrimSpace(c.QRPayload)
	switch {
	case c.Label == "":
		return fmt.Errorf("%w: label required", httpx.ErrValidation)
	case c.VPA == "" || !strings.Contains(c.VPA, "@"):
		return fmt.Errorf("%w: valid VPA required", httpx.ErrValidation)
	case c.QRPayload == "":
		return fmt.Errorf("%w: qr payload required", httpx.ErrValidation)
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, configID int64, meta map[string]any) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, activity.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "payment_qr_config",
		EntityID: strconv.FormatInt(configID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record payment activity", slog.Any("error", err))
	}
}
