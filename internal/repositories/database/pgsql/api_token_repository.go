package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	"github.com/SscSPs/factor_ops_app/internal/models"
	"github.com/SscSPs/factor_ops_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAPITokenRepository struct {
	BaseRepository
}

// newPgxAPITokenRepository creates a new instance of PgxAPITokenRepository
func newPgxAPITokenRepository(db *pgxpool.Pool) *PgxAPITokenRepository {
	return &PgxAPITokenRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.APITokenRepository = (*PgxAPITokenRepository)(nil)

const (
	apiTokensTable = "api_tokens"

	selectAPITokenFields = `
		id, user_id, name, token_hash,
		last_used_at, expires_at, created_at, updated_at, revoked_at
	`

	insertAPITokenQuery = `
		INSERT INTO ` + apiTokensTable + ` (
			id, user_id, name, token_hash, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	findAPITokenByIDQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM ` + apiTokensTable + `
		WHERE id = $1
	`

	findAPITokenByUserIDQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM ` + apiTokensTable + `
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC
	`

	touchAPITokenQuery = `
		UPDATE ` + apiTokensTable + `
		SET last_used_at = $2, updated_at = $2
		WHERE id = $1
	`

	revokeAPITokenQuery = `
		UPDATE ` + apiTokensTable + `
		SET revoked_at = COALESCE(revoked_at, $2), updated_at = $2
		WHERE id = $1
	`

	revokeAPITokensByUserIDQuery = `
		UPDATE ` + apiTokensTable + `
		SET revoked_at = $2, updated_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`
)

// Create persists a new API token
func (r *PgxAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}

	m := mapping.ToModelAPIToken(*token)
	_, err := r.Pool.Exec(ctx, insertAPITokenQuery,
		m.ID, m.UserID, m.Name, m.TokenHash, m.ExpiresAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return fmt.Errorf("%w: api token %s", apperrors.ErrDuplicate, m.ID)
		}
		return apperrors.NewAppError(500, "failed to create api token", err)
	}
	return nil
}

// FindByID retrieves an API token by its ID
func (r *PgxAPITokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	rows, err := r.Pool.Query(ctx, findAPITokenByIDQuery, id)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query api token", err)
	}
	token, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.APIToken])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: api token %s", apperrors.ErrNotFound, id)
		}
		return nil, apperrors.NewAppError(500, "failed to read api token", err)
	}

	domainToken := mapping.ToDomainAPIToken(token)
	return &domainToken, nil
}

// FindByUserID retrieves all non-revoked API tokens for a specific user
func (r *PgxAPITokenRepository) FindByUserID(ctx context.Context, userID string) ([]domain.APIToken, error) {
	rows, err := r.Pool.Query(ctx, findAPITokenByUserIDQuery, userID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query api tokens", err)
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.APIToken])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect api token rows", err)
	}
	return mapping.ToDomainAPITokenSlice(tokens), nil
}

func (r *PgxAPITokenRepository) TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error {
	return r.updateOne(ctx, touchAPITokenQuery, id, usedAt)
}

// Revoke keeps the first revocation time when called twice.
func (r *PgxAPITokenRepository) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	return r.updateOne(ctx, revokeAPITokenQuery, id, revokedAt)
}

func (r *PgxAPITokenRepository) RevokeByUserID(ctx context.Context, userID string, revokedAt time.Time) error {
	if _, err := r.Pool.Exec(ctx, revokeAPITokensByUserIDQuery, userID, revokedAt); err != nil {
		return apperrors.NewAppError(500, "failed to revoke api tokens of user "+userID, err)
	}
	return nil
}

func (r *PgxAPITokenRepository) updateOne(ctx context.Context, query, id string, at time.Time) error {
	cmdTag, err := r.Pool.Exec(ctx, query, id, at)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update api token "+id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: api token %s", apperrors.ErrNotFound, id)
	}
	return nil
}
