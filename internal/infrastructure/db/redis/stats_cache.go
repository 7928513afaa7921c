package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wassali-delivery/accounts-api/internal/core/ports"
)

const statsTTL = 30 * time.Second

const (
	roleCountsKey    = "stats:role_counts"
	partnerCountsKey = "stats:partner_counts"
)

// StatsCache caches dashboard counters in Redis with a short TTL. A miss or
// an unparsable value is treated as a miss; the counters are always
// recomputable from the account store.
type StatsCache struct {
	client *redis.Client
}

// NewStatsCache creates a StatsCache wrapping the given Redis client.
func NewStatsCache(client *redis.Client) *StatsCache {
	return &StatsCache{client: client}
}

func (c *StatsCache) get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stats get: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *StatsCache) set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, statsTTL).Err()
}

func (c *StatsCache) GetRoleCounts(ctx context.Context) (*ports.RoleCounts, error) {
	var counts ports.RoleCounts
	hit, err := c.get(ctx, roleCountsKey, &counts)
	if err != nil || !hit {
		return nil, err
	}
	return &counts, nil
}

func (c *StatsCache) SetRoleCounts(ctx context.Context, counts *ports.RoleCounts) error {
	return c.set(ctx, roleCountsKey, counts)
}

func (c *StatsCache) GetPartnerCounts(ctx context.Context) (*ports.PartnerCounts, error) {
	var counts ports.PartnerCounts
	hit, err := c.get(ctx, partnerCountsKey, &counts)
	if err != nil || !hit {
		return nil, err
	}
	return &counts, nil
}

func (c *StatsCache) SetPartnerCounts(ctx context.Context, counts *ports.PartnerCounts) error {
	return c.set(ctx, partnerCountsKey, counts)
}
