package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	"github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const apiTokenPrefix = "fop_"

var errInvalidToken = errors.New("invalid api token")

// apiTokenService implements the APITokenSvc interface
type apiTokenService struct {
	BaseService
	tokenRepo repositories.APITokenRepository
}

// NewAPITokenService creates a new instance of apiTokenService
func NewAPITokenService(tokenRepo repositories.APITokenRepository, opts ...Option) portssvc.APITokenSvc {
	svc := &apiTokenService{tokenRepo: tokenRepo}
	svc.apply(opts)
	return svc
}

var _ portssvc.APITokenSvc = (*apiTokenService)(nil)

// CreateToken generates a new API token for the user. The plaintext has the form
// fop_<id>.<secret>; only a bcrypt hash of the secret is stored.
func (s *apiTokenService) CreateToken(ctx context.Context, userID, name string, expiresIn *time.Duration) (string, *domain.APIToken, error) {
	if userID == "" {
		return "", nil, fmt.Errorf("%w: user ID is required", apperrors.ErrValidation)
	}
	if name == "" {
		return "", nil, fmt.Errorf("%w: token name is required", apperrors.ErrValidation)
	}

	secret, err := utils.RandomSecret(32)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	tokenHash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash token: %w", err)
	}

	now := s.Now()
	var expiresAt *time.Time
	if expiresIn != nil {
		expiry := now.Add(*expiresIn)
		expiresAt = &expiry
	}

	apiToken := &domain.APIToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		TokenHash: string(tokenHash),
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, apiToken); err != nil {
		s.LogError(ctx, err, "Failed to save api token", slog.String("user_id", userID))
		return "", nil, fmt.Errorf("failed to save token: %w", err)
	}

	s.LogInfo(ctx, "API token created",
		slog.String("token_id", apiToken.ID),
		slog.String("user_id", userID))
	return apiTokenPrefix + apiToken.ID + "." + secret, apiToken, nil
}

// ListTokens returns all API tokens for a user
func (s *apiTokenService) ListTokens(ctx context.Context, userID string) ([]domain.APIToken, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", apperrors.ErrValidation)
	}
	tokens, err := s.tokenRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	if tokens == nil {
		return []domain.APIToken{}, nil
	}
	return tokens, nil
}

// RevokeToken revokes a specific API token for a user
func (s *apiTokenService) RevokeToken(ctx context.Context, userID, tokenID string) error {
	if userID == "" || tokenID == "" {
		return fmt.Errorf("%w: user ID and token ID are required", apperrors.ErrValidation)
	}

	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to find token: %w", err)
	}
	if token.UserID != userID {
		return fmt.Errorf("%w: token %s", apperrors.ErrNotFound, tokenID)
	}

	if err := s.tokenRepo.Revoke(ctx, tokenID, s.Now()); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.LogInfo(ctx, "API token revoked", slog.String("token_id", tokenID))
	return nil
}

// RevokeAllTokens revokes all API tokens for a user
func (s *apiTokenService) RevokeAllTokens(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", apperrors.ErrValidation)
	}
	if err := s.tokenRepo.RevokeByUserID(ctx, userID, s.Now()); err != nil {
		return fmt.Errorf("failed to revoke all tokens: %w", err)
	}
	return nil
}

// ValidateToken checks if a token is valid and returns the user it acts as
func (s *apiTokenService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	tokenID, secret, ok := splitAPIToken(tokenString)
	if !ok {
		return "", errInvalidToken
	}

	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", errInvalidToken
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(secret)); err != nil {
		return "", errInvalidToken
	}

	now := s.Now()
	if !token.IsUsable(now) {
		return "", fmt.Errorf("%w: revoked or expired", errInvalidToken)
	}

	if err := s.tokenRepo.TouchLastUsed(ctx, token.ID, now); err != nil {
		s.LogError(ctx, err, "Failed to update token last used time",
			slog.String("token_id", token.ID))
	}
	return token.UserID, nil
}

func splitAPIToken(raw string) (id, secret string, ok bool) {
	rest, found := strings.CutPrefix(raw, apiTokenPrefix)
	if !found {
		return "", "", false
	}
	id, secret, found = strings.Cut(rest, ".")
	if !found || id == "" || secret == "" {
		return "", "", false
	}
	return id, secret, true
}
