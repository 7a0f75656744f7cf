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

// PgxPayableRepository writes to the payables ledger. Inserts are keyed on
// deterministic ids, so replays are no-ops.
type PgxPayableRepository struct {
	BaseRepository
}

func newPgxPayableRepository(pool *pgxpool.Pool) *PgxPayableRepository {
	return &PgxPayableRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.PayableLedger = (*PgxPayableRepository)(nil)

func (r *PgxPayableRepository) CreateApTitle(ctx context.Context, title domain.ApTitle) (bool, error) {
	query := `
		INSERT INTO ap_titles (
			ap_title_id, company_id, counterpart_org_id, amount, issue_date,
			document_number, description, created_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ap_title_id) DO NOTHING;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		title.ApTitleID, title.CompanyID, title.CounterpartOrgID, title.Amount, title.IssueDate,
		title.DocumentNumber, title.Description, title.CreatedAt, title.CreatedBy,
	)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to create AP title "+title.ApTitleID, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (r *PgxPayableRepository) CreateApInstallment(ctx context.Context, installment domain.ApInstallment) (bool, error) {
	query := `
		INSERT INTO ap_installments (
			ap_installment_id, ap_title_id, installment_number, amount, due_date, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		installment.ApInstallmentID, installment.ApTitleID, installment.InstallmentNumber,
		installment.Amount, installment.DueDate, installment.CreatedAt,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return false, fmt.Errorf("%w: AP title %s", apperrors.ErrNotFound, installment.ApTitleID)
		}
		return false, apperrors.NewAppError(500, "failed to create AP installment "+installment.ApInstallmentID, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// PgxAuditRepository appends to audit_logs.
type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) *PgxAuditRepository {
	return &PgxAuditRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.AuditSink = (*PgxAuditRepository)(nil)

func (r *PgxAuditRepository) InsertAuditLog(ctx context.Context, entry domain.AuditLog) error {
	m, err := mapping.ToModelAuditLog(entry)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode audit log", err)
	}
	query := `
		INSERT INTO audit_logs (
			audit_log_id, company_id, user_id, action, entity_type, entity_id, details, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (audit_log_id) DO NOTHING;
	`
	_, err = r.Pool.Exec(ctx, query,
		m.AuditLogID, m.CompanyID, m.UserID, m.Action, m.EntityType, m.EntityID, m.Details, m.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert audit log "+m.AuditLogID, err)
	}
	return nil
}

func (r *PgxAuditRepository) ListAuditLogsByEntity(ctx context.Context, companyID, entityType, entityID string) ([]domain.AuditLog, error) {
	query := `
		SELECT audit_log_id, company_id, user_id, action, entity_type, entity_id, details, created_at
		FROM audit_logs
		WHERE company_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at, audit_log_id;
	`
	rows, err := r.Pool.Query(ctx, query, companyID, entityType, entityID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query audit logs", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AuditLog])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect audit log rows", err)
	}

	entries := make([]domain.AuditLog, 0, len(collected))
	for _, m := range collected {
		entry, err := mapping.ToDomainAuditLog(m)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to decode audit log", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// PgxPostingRepository is the idempotency ledger of applied settlement effects.
type PgxPostingRepository struct {
	BaseRepository
}

func newPgxPostingRepository(pool *pgxpool.Pool) *PgxPostingRepository {
	return &PgxPostingRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.PostingRegistry = (*PgxPostingRepository)(nil)

const selectPostingQuery = `
SELECT posting_key, company_id, operation_id, item_id, kind, amount, reference_id, created_at, created_by
FROM factor_postings
`

func (r *PgxPostingRepository) getPostings(ctx context.Context, filterQuery string, args ...any) ([]domain.Posting, error) {
	rows, err := r.Pool.Query(ctx, selectPostingQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query postings", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Posting])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect posting rows", err)
	}
	return mapping.ToDomainPostingSlice(collected), nil
}

func (r *PgxPostingRepository) FindPostingByKey(ctx context.Context, postingKey string) (*domain.Posting, error) {
	postings, err := r.getPostings(ctx, `WHERE posting_key = $1`, postingKey)
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, fmt.Errorf("%w: posting %s", apperrors.ErrNotFound, postingKey)
	}
	return &postings[0], nil
}

func (r *PgxPostingRepository) CreatePosting(ctx context.Context, posting domain.Posting) (bool, error) {
	m := mapping.ToModelPosting(posting)
	query := `
		INSERT INTO factor_postings (
			posting_key, company_id, operation_id, item_id, kind, amount, reference_id, created_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (posting_key) DO NOTHING;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.PostingKey, m.CompanyID, m.OperationID, m.ItemID, m.Kind, m.Amount, m.ReferenceID, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to create posting "+m.PostingKey, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (r *PgxPostingRepository) ListPostingsByOperation(ctx context.Context, operationID string) ([]domain.Posting, error) {
	return r.getPostings(ctx, `WHERE operation_id = $1 ORDER BY created_at, kind DESC, posting_key`, operationID)
}

func (r *PgxPostingRepository) ListPostingsByReference(ctx context.Context, referenceID string) ([]domain.Posting, error) {
	return r.getPostings(ctx, `WHERE reference_id = $1 ORDER BY created_at, posting_key`, referenceID)
}
