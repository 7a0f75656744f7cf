// Package cache stores replayable HTTP responses keyed by the client's Idempotency-Key.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrInFlight is returned by Load while the request owning the key is still running.
var ErrInFlight = errors.New("request with this idempotency key is still in progress")

// StoredResponse is a completed response kept for replay.
type StoredResponse struct {
	StatusCode  int    `json:"statusCode"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"` // hash of the request that produced it
}

// IdempotencyStore claims keys and keeps the responses produced under them.
type IdempotencyStore interface {
	// Reserve claims key for a new request. It returns false if the key is
	// already claimed or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Load returns the stored response for key, nil if the key is unknown, or
	// ErrInFlight if it is reserved but not completed.
	Load(ctx context.Context, key string) (*StoredResponse, error)

	// Save stores the response for a reserved key.
	Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error

	// Release drops a reservation so the request can be retried.
	Release(ctx context.Context, key string) error

	Close() error
}
