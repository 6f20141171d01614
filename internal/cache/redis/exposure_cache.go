package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// ExposureCache implements domain.ExposureCache. Each round's rows are one
// JSON string at "exposure:{roundID}" with a short TTL.
type ExposureCache struct {
	c   *Client
	ttl time.Duration
}

// NewExposureCache creates an ExposureCache. A non-positive ttl defaults to
// five seconds.
func NewExposureCache(c *Client, ttl time.Duration) *ExposureCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &ExposureCache{c: c, ttl: ttl}
}

// Get returns the cached rows for a round. ok is false on a miss.
func (ec *ExposureCache) Get(ctx context.Context, roundID string) ([]domain.Exposure, bool, error) {
	data, err := ec.c.rdb.Get(ctx, ec.c.key("exposure", roundID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get exposure %s: %w", roundID, err)
	}

	var rows []domain.Exposure
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("redis: unmarshal exposure %s: %w", roundID, err)
	}
	return rows, true, nil
}

// Set stores the rows for a round.
func (ec *ExposureCache) Set(ctx context.Context, roundID string, rows []domain.Exposure) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("redis: marshal exposure %s: %w", roundID, err)
	}
	if err := ec.c.rdb.Set(ctx, ec.c.key("exposure", roundID), data, ec.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set exposure %s: %w", roundID, err)
	}
	return nil
}

// Invalidate drops a round's cached rows.
func (ec *ExposureCache) Invalidate(ctx context.Context, roundID string) error {
	if err := ec.c.rdb.Del(ctx, ec.c.key("exposure", roundID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate exposure %s: %w", roundID, err)
	}
	return nil
}

var _ domain.ExposureCache = (*ExposureCache)(nil)
