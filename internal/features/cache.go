package features

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// BulkReader is the subset of Repository the cache needs.
type BulkReader interface {
	ListToggles(ctx context.Context) ([]Toggle, error)
}

// Cache mirrors toggle state as an immutable snapshot swapped atomically.
// Reads never block on a refresh; an empty cache (failed or pending fetch)
// falls back to the configured default, which is deny except for names on
// the explicit allow-list.
type Cache struct {
	repo         BulkReader
	logger       *slog.Logger
	snapshot     atomic.Pointer[map[string]bool]
	defaultAllow map[string]struct{}
	group        singleflight.Group
}

// NewCache constructs an empty cache. defaultAllow lists toggle names that
// fall back to enabled when the cache holds no value for them.
func NewCache(repo BulkReader, defaultAllow []string, logger *slog.Logger) *Cache {
	allow := make(map[string]struct{}, len(defaultAllow))
	for _, name := range defaultAllow {
		name = strings.TrimSpace(name)
		if name != "" {
			allow[name] = struct{}{}
		}
	}
	return &Cache{repo: repo, logger: logger, defaultAllow: allow}
}

// Refresh bulk-fetches all toggles and swaps the snapshot wholesale.
// Concurrent callers collapse into one fetch. On failure the previous
// snapshot is kept untouched.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		toggles, err := c.repo.ListToggles(ctx)
		if err != nil {
			return nil, err
		}
		next := make(map[string]bool, len(toggles))
		for _, t := range toggles {
			next[t.Name] = t.Enabled
		}
		c.snapshot.Store(&next)
		return nil, nil
	})
	if err != nil && c.logger != nil {
		c.logger.Warn("feature toggle refresh failed", slog.Any("error", err))
	}
	return err
}

// Lookup returns the cached value for name and whether one is present.
func (c *Cache) Lookup(name string) (bool, bool) {
	snap := c.snapshot.Load()
	if snap == nil {
		return false, false
	}
	enabled, ok := (*snap)[name]
	return enabled, ok
}

// Default reports the fallback for a name missing from the cache.
func (c *Cache) Default(name string) bool {
	_, ok := c.defaultAllow[name]
	return ok
}

// Enabled resolves a single toggle from the snapshot, falling back to the
// configured default on a miss.
func (c *Cache) Enabled(name string) bool {
	if enabled, ok := c.Lookup(name); ok {
		return enabled
	}
	return c.Default(name)
}

// Loaded reports whether a snapshot has ever been installed.
func (c *Cache) Loaded() bool {
	return c.snapshot.Load() != nil
}

// Clear drops the snapshot. Used on teardown and in tests.
func (c *Cache) Clear() {
	c.snapshot.Store(nil)
}
