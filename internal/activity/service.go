package activity

import (
	"context"
	"errors"
	"time"

	"github.com/khandaa/adminbase/internal/shared"
)

// Service validates and persists activity entries.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record persists the log entry, stamping the time when absent.
func (s *Service) Record(ctx context.Context, e Entry) error {
	if s == nil || s.repo == nil {
		return errors.New("activity: recorder not initialised")
	}
	if e.Action == "" || e.Entity == "" || e.EntityID == "" {
		return errors.New("activity: entry requires action/entity/entity_id")
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return s.repo.Insert(ctx, e)
}

// List returns a page of entries newest first.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Entry, shared.Pagination, error) {
	entries, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(page, perPage, total), nil
}

// Sweep deletes entries older than the retention window and reports how
// many were removed.
func (s *Service) Sweep(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, errors.New("activity: retention must be positive")
	}
	return s.repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
}
