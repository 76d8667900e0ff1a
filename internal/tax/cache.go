package tax

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/migios-apps/migios-pos-api/internal/pricing"
)

const cacheKey = "tax:rules:active"

// Cache keeps the active rule set in Redis so every cart edit does not hit
// Postgres. Writes to the rule set invalidate it.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

// Get returns the cached rule set, or (nil, false) on a miss.
func (c *Cache) Get(ctx context.Context) ([]pricing.TaxRule, bool) {
	if c == nil || c.R == nil {
		return nil, false
	}
	raw, err := c.R.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var rules []pricing.TaxRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, false
	}
	return rules, true
}

// Set stores the rule set. Failures are swallowed; the cache is best effort.
func (c *Cache) Set(ctx context.Context, rules []pricing.TaxRule) {
	if c == nil || c.R == nil {
		return
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return
	}
	_ = c.R.Set(ctx, cacheKey, raw, c.TTL).Err()
}

// Invalidate drops the cached rule set.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.R == nil {
		return nil
	}
	err := c.R.Del(ctx, cacheKey).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
