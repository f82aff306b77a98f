package poi

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xmin-city/xmin/internal/resilience"
)

// Fetcher retrieves the full current POI collection for one category from the
// upstream source.
type Fetcher interface {
	FetchCategory(ctx context.Context, category string) ([]POI, error)
}

// Cache maps category name to its current POI collection. Categories are
// written once during warmup and replaced wholesale on any later refresh;
// readers never see a partially updated collection.
type Cache struct {
	mu         sync.RWMutex
	categories map[string][]POI
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{categories: make(map[string][]POI)}
}

// Get returns the cached collection for a category. The returned slice must
// not be mutated.
func (c *Cache) Get(category string) []POI {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categories[category]
}

// Set replaces a category's collection atomically.
func (c *Cache) Set(category string, pois []POI) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[category] = pois
}

// Len returns the total number of cached POIs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, ps := range c.categories {
		n += len(ps)
	}
	return n
}

// WarmConfig controls the startup ingestion pass.
type WarmConfig struct {
	Categories []string
	// Cooldown is the pause after each successful category fetch, to avoid
	// triggering upstream throttling.
	Cooldown time.Duration
	Policy   resilience.Policy
}

// Warm fetches every category strictly sequentially, each retried according
// to the policy. With an unbounded policy (MaxAttempts 0) warmup blocks until
// every category has been fetched; with a ceiling, an exhausted category is
// marked degraded (empty) and warmup continues. Only context cancellation
// aborts the pass.
func (c *Cache) Warm(ctx context.Context, src Fetcher, cfg WarmConfig) error {
	for i, cat := range cfg.Categories {
		cat := cat
		pois, err := resilience.DoVal(ctx, withRetryLog(cfg.Policy, cat), func(ctx context.Context) ([]POI, error) {
			return src.FetchCategory(ctx, cat)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			zap.L().Warn("poi: category degraded after retry ceiling",
				zap.String("category", cat),
				zap.Error(err),
			)
			c.Set(cat, nil)
			continue
		}

		c.Set(cat, pois)
		zap.L().Info("poi: category cached",
			zap.String("category", cat),
			zap.Int("count", len(pois)),
		)

		if cfg.Cooldown > 0 && i < len(cfg.Categories)-1 {
			timer := time.NewTimer(cfg.Cooldown)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}

func withRetryLog(p resilience.Policy, category string) resilience.Policy {
	if p.OnRetry == nil {
		p.OnRetry = resilience.Logger("overpass", "fetch "+category)
	}
	return p
}
