package features

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/platform/httpx"
)

// RefreshEnqueuer queues a toggle refresh task so worker replicas re-fetch
// their own mirrors after a write. The local cache refresh is synchronous
// and does not go through the queue.
type RefreshEnqueuer interface {
	EnqueueToggleRefresh(ctx context.Context) error
}

// Service handles toggle business logic. Every successful write triggers a
// full cache re-fetch rather than a local patch so the mirror never drifts.
type Service struct {
	repo     Repository
	cache    *Cache
	queue    RefreshEnqueuer
	recorder activity.Recorder
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, cache *Cache, queue RefreshEnqueuer, recorder activity.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, queue: queue, recorder: recorder, logger: logger}
}

// List returns all toggles from storage.
func (s *Service) List(ctx context.Context) ([]Toggle, error) {
	return s.repo.ListToggles(ctx)
}

// Create inserts a toggle and refreshes the cache.
func (s *Service) Create(ctx context.Context, actorID int64, t Toggle) (Toggle, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return Toggle{}, fmt.Errorf("%w: toggle name required", httpx.ErrValidation)
	}
	created, err := s.repo.CreateToggle(ctx, t)
	if err != nil {
		return Toggle{}, err
	}
	s.afterWrite(ctx, actorID, "feature_toggle.created", created.Name, created.Enabled)
	return created, nil
}

// Update replaces a toggle's state and refreshes the cache.
func (s *Service) Update(ctx context.Context, actorID int64, name string, enabled bool, description, category string) (Toggle, error) {
	updated, err := s.repo.UpdateToggle(ctx, name, enabled, description, category)
	if err != nil {
		return Toggle{}, err
	}
	s.afterWrite(ctx, actorID, "feature_toggle.updated", updated.Name, updated.Enabled)
	return updated, nil
}

// Delete removes a toggle and refreshes the cache.
func (s *Service) Delete(ctx context.Context, actorID int64, name string) error {
	rows, err := s.repo.DeleteToggle(ctx, name)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: toggle %s", httpx.ErrNotFound, name)
	}
	s.afterWrite(ctx, actorID, "feature_toggle.deleted", name, false)
	return nil
}

// RefreshCache re-fetches the toggle snapshot. Failures are non-fatal.
func (s *Service) RefreshCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Refresh(ctx)
}

func (s *Service) afterWrite(ctx context.Context, actorID int64, action, name string, enabled bool) {
	if err := s.RefreshCache(ctx); err != nil && s.logger != nil {
		s.logger.Warn("toggle cache refresh after write", slog.Any("error", err))
	}
	if s.queue != nil {
		if err := s.queue.EnqueueToggleRefresh(ctx); err != nil && s.logger != nil {
			s.logger.Warn("enqueue toggle refresh", slog.Any("error", err))
		}
	}
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, activity.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "feature_toggle",
		EntityID: name,
		Meta:     map[string]any{"enabled": enabled},
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record toggle activity", slog.Any("error", err))
	}
}
