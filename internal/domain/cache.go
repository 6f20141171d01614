package domain

import (
	"context"
	"time"
)

// ExposureCache holds short-lived exposure projections for dashboard polling.
// It is never consulted for mutation decisions.
type ExposureCache interface {
	Get(ctx context.Context, roundID string) ([]Exposure, bool, error)
	Set(ctx context.Context, roundID string, rows []Exposure) error
	Invalidate(ctx context.Context, roundID string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub for desk events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Bus channels.
const (
	ChannelWagers  = "wagers"
	ChannelRounds  = "rounds"
	ChannelLayoffs = "layoffs"
)
