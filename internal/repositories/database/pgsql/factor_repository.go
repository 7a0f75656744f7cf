package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	"github.com/SscSPs/factor_ops_app/internal/models"
	"github.com/SscSPs/factor_ops_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxFactorRepository struct {
	BaseRepository
}

func newPgxFactorRepository(pool *pgxpool.Pool) *PgxFactorRepository {
	return &PgxFactorRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.FactorRepositoryFacade = (*PgxFactorRepository)(nil)

const selectFactorQuery = `
SELECT
	factor_id, company_id, counterpart_org_id, name, code,
	interest_rate, fee_rate, iof_rate, other_cost_rate, grace_days,
	auto_settle_buyback_default, is_active,
	created_at, created_by, last_updated_at, last_updated_by
FROM factors
`

func (r *PgxFactorRepository) getFactors(ctx context.Context, filterQuery string, args ...any) ([]domain.Factor, error) {
	rows, err := r.Pool.Query(ctx, selectFactorQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query factors", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Factor])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect factor rows", err)
	}
	return mapping.ToDomainFactorSlice(collected), nil
}

func (r *PgxFactorRepository) FindFactorByID(ctx context.Context, factorID string) (*domain.Factor, error) {
	factors, err := r.getFactors(ctx, `WHERE factor_id = $1`, factorID)
	if err != nil {
		return nil, err
	}
	if len(factors) == 0 {
		return nil, fmt.Errorf("%w: factor %s", apperrors.ErrNotFound, factorID)
	}
	return &factors[0], nil
}

func (r *PgxFactorRepository) FindFactorByCode(ctx context.Context, companyID, code string) (*domain.Factor, error) {
	factors, err := r.getFactors(ctx, `WHERE company_id = $1 AND code = $2`, companyID, code)
	if err != nil {
		return nil, err
	}
	if len(factors) == 0 {
		return nil, fmt.Errorf("%w: factor code %s", apperrors.ErrNotFound, code)
	}
	return &factors[0], nil
}

func (r *PgxFactorRepository) ListFactors(ctx context.Context, companyID string, includeInactive bool) ([]domain.Factor, error) {
	filter := `WHERE company_id = $1`
	if !includeInactive {
		filter += ` AND is_active = true`
	}
	return r.getFactors(ctx, filter+` ORDER BY name, code`, companyID)
}

func (r *PgxFactorRepository) SaveFactor(ctx context.Context, factor domain.Factor) error {
	m := mapping.ToModelFactor(factor)
	query := `
		INSERT INTO factors (
			factor_id, company_id, counterpart_org_id, name, code,
			interest_rate, fee_rate, iof_rate, other_cost_rate, grace_days,
			auto_settle_buyback_default, is_active,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.FactorID, m.CompanyID, m.CounterpartOrgID, m.Name, m.Code,
		m.InterestRate, m.FeeRate, m.IOFRate, m.OtherCostRate, m.GraceDays,
		m.AutoSettleBuybackDefault, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return r.mapWriteError(err, factor)
	}
	return nil
}

func (r *PgxFactorRepository) UpdateFactor(ctx context.Context, factor domain.Factor) error {
	m := mapping.ToModelFactor(factor)
	query := `
		UPDATE factors SET
			counterpart_org_id = $2, name = $3, code = $4,
			interest_rate = $5, fee_rate = $6, iof_rate = $7, other_cost_rate = $8, grace_days = $9,
			auto_settle_buyback_default = $10, is_active = $11,
			last_updated_at = $12, last_updated_by = $13
		WHERE factor_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.FactorID, m.CounterpartOrgID, m.Name, m.Code,
		m.InterestRate, m.FeeRate, m.IOFRate, m.OtherCostRate, m.GraceDays,
		m.AutoSettleBuybackDefault, m.IsActive,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return r.mapWriteError(err, factor)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: factor %s", apperrors.ErrNotFound, factor.FactorID)
	}
	return nil
}

func (r *PgxFactorRepository) mapWriteError(err error, factor domain.Factor) error {
	code, constraint := pgErrorCode(err)
	switch {
	case code == pgUniqueViolation && constraint == "uq_factors_company_code":
		return fmt.Errorf("%w: factor code %s already exists", apperrors.ErrDuplicate, factor.Code)
	case code == pgUniqueViolation:
		return fmt.Errorf("%w: factor %s", apperrors.ErrDuplicate, factor.FactorID)
	case code == pgForeignKeyViolation:
		return fmt.Errorf("%w: company %s", apperrors.ErrNotFound, factor.CompanyID)
	}
	return apperrors.NewAppError(500, "failed to write factor "+factor.FactorID, err)
}
