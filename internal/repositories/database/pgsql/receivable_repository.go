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

// PgxReceivableRepository reads ar_installments and moves their custody.
// Everything else about a receivable belongs to the receivables subsystem.
type PgxReceivableRepository struct {
	BaseRepository
}

func newPgxReceivableRepository(pool *pgxpool.Pool) *PgxReceivableRepository {
	return &PgxReceivableRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.ReceivableLedger = (*PgxReceivableRepository)(nil)

const selectInstallmentQuery = `
SELECT
	installment_id, company_id, ar_title_id, sales_document_id, customer_id,
	installment_number, due_date, amount_open, factor_custody_status, factor_id, updated_at
FROM ar_installments
`

func (r *PgxReceivableRepository) getInstallments(ctx context.Context, filterQuery string, args ...any) ([]domain.EligibleInstallment, error) {
	rows, err := r.Pool.Query(ctx, selectInstallmentQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query installments", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.ArInstallment])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect installment rows", err)
	}
	return mapping.ToDomainInstallmentSlice(collected), nil
}

func (r *PgxReceivableRepository) FindInstallmentByID(ctx context.Context, installmentID string) (*domain.EligibleInstallment, error) {
	installments, err := r.getInstallments(ctx, `WHERE installment_id = $1`, installmentID)
	if err != nil {
		return nil, err
	}
	if len(installments) == 0 {
		return nil, fmt.Errorf("%w: installment %s", apperrors.ErrNotFound, installmentID)
	}
	return &installments[0], nil
}

func (r *PgxReceivableRepository) ListOpenInstallments(ctx context.Context, companyID string, limit int) ([]domain.EligibleInstallment, error) {
	return r.getInstallments(ctx,
		`WHERE company_id = $1 AND factor_custody_status = $2 ORDER BY due_date, installment_id LIMIT $3`,
		companyID, string(domain.CustodyOwn), limit)
}

func (r *PgxReceivableRepository) ListInstallmentsWithFactor(ctx context.Context, companyID string, factorID *string, limit int) ([]domain.EligibleInstallment, error) {
	if factorID != nil {
		return r.getInstallments(ctx,
			`WHERE company_id = $1 AND factor_custody_status = $2 AND factor_id = $3 ORDER BY due_date, installment_id LIMIT $4`,
			companyID, string(domain.CustodyWithFactor), *factorID, limit)
	}
	return r.getInstallments(ctx,
		`WHERE company_id = $1 AND factor_custody_status = $2 ORDER BY due_date, installment_id LIMIT $3`,
		companyID, string(domain.CustodyWithFactor), limit)
}

// TransitionCustody is a compare-and-swap on factor_custody_status. A
// backward move is refused without touching the row.
func (r *PgxReceivableRepository) TransitionCustody(ctx context.Context, change domain.CustodyChange) (bool, error) {
	if !change.From.CanMoveTo(change.To) {
		return false, nil
	}
	query := `
		UPDATE ar_installments
		SET factor_custody_status = $3,
			factor_id = $4,
			due_date = COALESCE($5, due_date),
			updated_at = NOW()
		WHERE installment_id = $1 AND factor_custody_status = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		change.InstallmentID,
		string(change.From),
		string(change.To),
		change.FactorID,
		change.DueDate,
	)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to move custody of installment "+change.InstallmentID, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}
