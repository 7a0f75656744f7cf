package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
)

// APITokenRepository defines the interface for API token data access operations
type APITokenRepository interface {
	// Create persists a new API token. ID must already be set; it is part of the plaintext token.
	Create(ctx context.Context, token *domain.APIToken) error

	// FindByID retrieves an API token by its ID, including revoked ones.
	FindByID(ctx context.Context, id string) (*domain.APIToken, error)

	// FindByUserID retrieves all non-revoked API tokens for a specific user
	FindByUserID(ctx context.Context, userID string) ([]domain.APIToken, error)

	// TouchLastUsed records that the token authenticated a request at usedAt.
	TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error

	// Revoke marks an API token as revoked.
	Revoke(ctx context.Context, id string, revokedAt time.Time) error

	// RevokeByUserID revokes all API tokens of a user.
	RevokeByUserID(ctx context.Context, userID string, revokedAt time.Time) error
}
