package cache

import (
	"context"
	"log/slog"
	"time"
)

// NewIdempotencyStore returns a Redis store when redisURL is set and an
// in-memory store otherwise.
func NewIdempotencyStore(ctx context.Context, redisURL string, logger *slog.Logger) (IdempotencyStore, error) {
	if redisURL == "" {
		logger.Info("REDIS_URL not set, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(time.Minute), nil
	}
	store, err := NewRedisIdempotencyStore(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	logger.Info("Using Redis idempotency store")
	return store, nil
}
