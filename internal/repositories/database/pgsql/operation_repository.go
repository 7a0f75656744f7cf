package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	"github.com/SscSPs/factor_ops_app/internal/models"
	"github.com/SscSPs/factor_ops_app/internal/utils/mapping"
	"github.com/SscSPs/factor_ops_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxOperationRepository struct {
	BaseRepository
}

func newPgxOperationRepository(pool *pgxpool.Pool) *PgxOperationRepository {
	return &PgxOperationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.OperationRepositoryFacade = (*PgxOperationRepository)(nil)

const selectOperationQuery = `
SELECT
	operation_id, company_id, factor_id, operation_number, reference, issue_date,
	expected_settlement_date, settlement_account_id, status,
	gross_amount, costs_amount, net_amount, version_counter, current_version_id,
	interest_rate, fee_rate, iof_rate, other_cost_rate, grace_days,
	sent_at, sent_by, last_response_at, last_response_by,
	completed_at, completed_by, cancelled_at, cancelled_by, cancel_reason,
	settlement_started_at, notes,
	created_at, created_by, last_updated_at, last_updated_by
FROM factor_operations
`

const selectItemQuery = `
SELECT
	item_id, operation_id, line_no, action_type, installment_id, ar_title_id,
	sales_document_id, customer_id, snapshot_installment_number, snapshot_due_date,
	snapshot_amount, proposed_due_date, buyback_settle_now, status,
	final_amount, final_due_date, notes,
	created_at, created_by, last_updated_at, last_updated_by
FROM factor_operation_items
`

func queryOperations(ctx context.Context, q dbtx, filterQuery string, args ...any) ([]models.FactorOperation, error) {
	rows, err := q.Query(ctx, selectOperationQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query factor operations", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.FactorOperation])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect factor operation rows", err)
	}
	return collected, nil
}

// lockOperation reads the operation row with FOR UPDATE, serializing every
// writer of the operation and its items behind the current transaction.
func lockOperation(ctx context.Context, tx pgx.Tx, operationID string) (*models.FactorOperation, error) {
	ops, err := queryOperations(ctx, tx, `WHERE operation_id = $1 FOR UPDATE`, operationID)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: operation %s", apperrors.ErrNotFound, operationID)
	}
	return &ops[0], nil
}

func queryItems(ctx context.Context, q dbtx, operationID string) ([]models.OperationItem, error) {
	rows, err := q.Query(ctx, selectItemQuery+`WHERE operation_id = $1 ORDER BY line_no`, operationID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query operation items", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.OperationItem])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect operation item rows", err)
	}
	return collected, nil
}

func (r *PgxOperationRepository) FindOperationByID(ctx context.Context, operationID string) (*domain.FactorOperation, error) {
	ops, err := queryOperations(ctx, r.Pool, `WHERE operation_id = $1`, operationID)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: operation %s", apperrors.ErrNotFound, operationID)
	}
	op := mapping.ToDomainFactorOperation(ops[0])
	return &op, nil
}

func (r *PgxOperationRepository) ListOperations(ctx context.Context, companyID string, filter portsrepo.OperationFilter) ([]domain.FactorOperation, *string, error) {
	conditions := []string{"company_id = $1"}
	args := []any{companyID}
	addCondition := func(expr string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if filter.Status != nil {
		addCondition("status = $%d", string(*filter.Status))
	}
	if filter.FactorID != nil {
		addCondition("factor_id = $%d", *filter.FactorID)
	}
	if filter.IssueDateFrom != nil {
		addCondition("issue_date >= $%d", *filter.IssueDateFrom)
	}
	if filter.IssueDateTo != nil {
		addCondition("issue_date <= $%d", *filter.IssueDateTo)
	}
	if filter.NextToken != nil {
		after, err := pagination.DecodeSequenceToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		addCondition("operation_number < $%d", after)
	}

	// Fetch one extra row to know whether another page exists.
	args = append(args, filter.Limit+1)
	query := fmt.Sprintf("WHERE %s ORDER BY operation_number DESC LIMIT $%d",
		strings.Join(conditions, " AND "), len(args))

	rows, err := queryOperations(ctx, r.Pool, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
		token := pagination.EncodeSequenceToken(rows[len(rows)-1].OperationNumber)
		nextToken = &token
	}
	return mapping.ToDomainFactorOperationSlice(rows), nextToken, nil
}

func (r *PgxOperationRepository) CountOperationsByFactor(ctx context.Context, factorID string) (int, error) {
	var count int
	err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM factor_operations WHERE factor_id = $1`, factorID).Scan(&count)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to count operations of factor "+factorID, err)
	}
	return count, nil
}

func (r *PgxOperationRepository) FindItemsByOperationID(ctx context.Context, operationID string) ([]domain.OperationItem, error) {
	items, err := queryItems(ctx, r.Pool, operationID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainOperationItemSlice(items), nil
}

// SaveOperation numbers the operation under a per-company advisory lock so that
// concurrent creations never compete for the same operation_number.
func (r *PgxOperationRepository) SaveOperation(ctx context.Context, operation domain.FactorOperation) (*domain.FactorOperation, error) {
	m := mapping.ToModelFactorOperation(operation)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, m.CompanyID); err != nil {
			return apperrors.NewAppError(500, "failed to lock operation numbering", err)
		}
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(operation_number), 0) + 1 FROM factor_operations WHERE company_id = $1`,
			m.CompanyID,
		).Scan(&m.OperationNumber)
		if err != nil {
			return apperrors.NewAppError(500, "failed to assign operation number", err)
		}

		query := `
			INSERT INTO factor_operations (
				operation_id, company_id, factor_id, operation_number, reference, issue_date,
				expected_settlement_date, settlement_account_id, status,
				gross_amount, costs_amount, net_amount, version_counter,
				interest_rate, fee_rate, iof_rate, other_cost_rate, grace_days, notes,
				created_at, created_by, last_updated_at, last_updated_by
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
				$14, $15, $16, $17, $18, $19, $20, $21, $22, $23);
		`
		_, err = tx.Exec(ctx, query,
			m.OperationID, m.CompanyID, m.FactorID, m.OperationNumber, m.Reference, m.IssueDate,
			m.ExpectedSettlementDate, m.SettlementAccountID, m.Status,
			m.GrossAmount, m.CostsAmount, m.NetAmount, m.VersionCounter,
			m.InterestRate, m.FeeRate, m.IOFRate, m.OtherCostRate, m.GraceDays, m.Notes,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			switch code, _ := pgErrorCode(err); code {
			case pgUniqueViolation:
				return fmt.Errorf("%w: operation %s", apperrors.ErrDuplicate, m.OperationID)
			case pgForeignKeyViolation:
				return fmt.Errorf("%w: factor %s", apperrors.ErrNotFound, m.FactorID)
			}
			return apperrors.NewAppError(500, "failed to save operation "+m.OperationID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	saved := mapping.ToDomainFactorOperation(m)
	return &saved, nil
}

// touchDraftTotals recomputes the draft totals from the items visible to tx.
func touchDraftTotals(ctx context.Context, tx pgx.Tx, operationID string, at time.Time, by string) error {
	items, err := queryItems(ctx, tx, operationID)
	if err != nil {
		return err
	}
	totals := domain.DraftTotals(mapping.ToDomainOperationItemSlice(items))
	_, err = tx.Exec(ctx, `
		UPDATE factor_operations
		SET gross_amount = $2, costs_amount = $3, net_amount = $4,
			last_updated_at = $5, last_updated_by = $6
		WHERE operation_id = $1;
	`, operationID, totals.Gross, totals.Costs, totals.Net, at, by)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update totals of operation "+operationID, err)
	}
	return nil
}

func (r *PgxOperationRepository) AddOperationItem(ctx context.Context, item domain.OperationItem) (*domain.OperationItem, error) {
	m := mapping.ToModelOperationItem(item)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		op, err := lockOperation(ctx, tx, m.OperationID)
		if err != nil {
			return err
		}
		if op.Status != string(domain.OperationDraft) {
			return fmt.Errorf("%w: items can only be added to a draft operation", apperrors.ErrInvalidState)
		}
		if err := ensureInstallmentFree(ctx, tx, m.InstallmentID, m.OperationID); err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(line_no), 0) + 1 FROM factor_operation_items WHERE operation_id = $1`,
			m.OperationID,
		).Scan(&m.LineNo)
		if err != nil {
			return apperrors.NewAppError(500, "failed to assign line number", err)
		}

		query := `
			INSERT INTO factor_operation_items (
				item_id, operation_id, line_no, action_type, installment_id, ar_title_id,
				sales_document_id, customer_id, snapshot_installment_number, snapshot_due_date,
				snapshot_amount, proposed_due_date, buyback_settle_now, status, notes,
				created_at, created_by, last_updated_at, last_updated_by
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19);
		`
		_, err = tx.Exec(ctx, query,
			m.ItemID, m.OperationID, m.LineNo, m.ActionType, m.InstallmentID, m.ARTitleID,
			m.SalesDocumentID, m.CustomerID, m.InstallmentNumber, m.SnapshotDueDate,
			m.SnapshotAmount, m.ProposedDueDate, m.BuybackSettleNow, m.Status, m.Notes,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			code, constraint := pgErrorCode(err)
			switch {
			case code == pgUniqueViolation && constraint == "uq_items_installment":
				return fmt.Errorf("%w: installment %s already in operation", apperrors.ErrValidation, m.InstallmentID)
			case code == pgForeignKeyViolation:
				return fmt.Errorf("%w: installment %s", apperrors.ErrNotFound, m.InstallmentID)
			}
			return apperrors.NewAppError(500, "failed to add item to operation "+m.OperationID, err)
		}

		return touchDraftTotals(ctx, tx, m.OperationID, m.LastUpdatedAt, m.LastUpdatedBy)
	})
	if err != nil {
		return nil, err
	}

	saved := mapping.ToDomainOperationItem(m)
	return &saved, nil
}

// ensureInstallmentFree refuses an installment already placed on another open
// operation. The advisory lock serializes adds of the same installment across
// operations, since each add only holds its own operation row lock.
func ensureInstallmentFree(ctx context.Context, tx pgx.Tx, installmentID, operationID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('installment:' || $1))`, installmentID); err != nil {
		return apperrors.NewAppError(500, "failed to lock installment "+installmentID, err)
	}
	var operationNumber int64
	err := tx.QueryRow(ctx, `
		SELECT o.operation_number
		FROM factor_operation_items i
		JOIN factor_operations o ON o.operation_id = i.operation_id
		WHERE i.installment_id = $1 AND i.operation_id <> $2 AND o.status = ANY($3::text[])
		LIMIT 1;
	`, installmentID, operationID, []string{string(domain.OperationDraft), string(domain.OperationSentToFactor)},
	).Scan(&operationNumber)
	switch {
	case err == nil:
		return fmt.Errorf("%w: installment %s is already in open operation FO-%d",
			apperrors.ErrValidation, installmentID, operationNumber)
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return apperrors.NewAppError(500, "failed to check open operations of installment "+installmentID, err)
	}
}

func (r *PgxOperationRepository) DeleteOperationItem(ctx context.Context, operationID, itemID, deletedBy string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		op, err := lockOperation(ctx, tx, operationID)
		if err != nil {
			return err
		}
		if op.Status != string(domain.OperationDraft) {
			return fmt.Errorf("%w: items can only be removed from a draft operation", apperrors.ErrInvalidState)
		}

		cmdTag, err := tx.Exec(ctx,
			`DELETE FROM factor_operation_items WHERE operation_id = $1 AND item_id = $2`,
			operationID, itemID)
		if err != nil {
			return apperrors.NewAppError(500, "failed to delete item "+itemID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%w: item %s", apperrors.ErrNotFound, itemID)
		}

		var now time.Time
		if err := tx.QueryRow(ctx, `SELECT clock_timestamp()`).Scan(&now); err != nil {
			return apperrors.NewAppError(500, "failed to read database clock", err)
		}
		return touchDraftTotals(ctx, tx, operationID, now, deletedBy)
	})
}

func (r *PgxOperationRepository) MarkSettlementStarted(ctx context.Context, operationID string, at time.Time) (bool, error) {
	cmdTag, err := r.Pool.Exec(ctx, `
		UPDATE factor_operations
		SET settlement_started_at = COALESCE(settlement_started_at, $3)
		WHERE operation_id = $1 AND status = $2;
	`, operationID, string(domain.OperationSentToFactor), at)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to mark settlement of operation "+operationID, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// TransitionStatus is a compare-and-swap on the status column.
func (r *PgxOperationRepository) TransitionStatus(ctx context.Context, operationID string, from []domain.OperationStatus, to domain.OperationStatus, change portsrepo.StatusChange) (bool, error) {
	sources := make([]string, len(from))
	for i, s := range from {
		sources[i] = string(s)
	}

	set := "status = $3, last_updated_at = $4, last_updated_by = $5"
	args := []any{operationID, sources, string(to), change.At, change.By}
	switch to {
	case domain.OperationCompleted:
		set += ", completed_at = $4, completed_by = $5"
	case domain.OperationCancelled:
		set += ", cancelled_at = $4, cancelled_by = $5, cancel_reason = $6"
		args = append(args, change.Reason)
	}

	query := "UPDATE factor_operations SET " + set + " WHERE operation_id = $1 AND status = ANY($2::text[])"
	if to == domain.OperationCancelled {
		query += " AND settlement_started_at IS NULL"
	}
	cmdTag, err := r.Pool.Exec(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to transition operation "+operationID+" to "+string(to), err)
	}
	return cmdTag.RowsAffected() == 1, nil
}
