package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	"github.com/SscSPs/factor_ops_app/internal/models"
	"github.com/SscSPs/factor_ops_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const selectVersionQuery = `
SELECT
	version_id, operation_id, version_number, source_status, total_items,
	gross_amount, costs_amount, net_amount, snapshot_json,
	snapshot_key, csv_key, report_key, sent_at, sent_by
FROM factor_operation_versions
`

const selectResponseQuery = `
SELECT
	response_id, version_id, item_id, response_status, code, message,
	accepted_amount, adjusted_amount, adjusted_due_date,
	fee_amount, interest_amount, iof_amount, other_cost_amount, total_cost_amount,
	imported_at, processed_by
FROM factor_operation_responses
`

func (r *PgxOperationRepository) getVersions(ctx context.Context, filterQuery string, args ...any) ([]domain.FactorOperationVersion, error) {
	rows, err := r.Pool.Query(ctx, selectVersionQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query operation versions", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.OperationVersion])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect operation version rows", err)
	}
	return mapping.ToDomainOperationVersionSlice(collected), nil
}

func queryResponses(ctx context.Context, q dbtx, versionID string) ([]models.OperationResponse, error) {
	rows, err := q.Query(ctx, selectResponseQuery+`WHERE version_id = $1 ORDER BY item_id`, versionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query operation responses", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.OperationResponse])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect operation response rows", err)
	}
	return collected, nil
}

// SendOperation stores the version and flips the operation to sent_to_factor in
// one transaction, holding the operation row lock so that no item can change
// between the staleness check and the status update.
func (r *PgxOperationRepository) SendOperation(ctx context.Context, version domain.FactorOperationVersion, expectedUpdatedAt time.Time) (bool, error) {
	v := mapping.ToModelOperationVersion(version)
	sent := false
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		op, err := lockOperation(ctx, tx, v.OperationID)
		if err != nil {
			return err
		}
		if op.Status != string(domain.OperationDraft) {
			return nil
		}
		if !op.LastUpdatedAt.Equal(expectedUpdatedAt) {
			return fmt.Errorf("%w: operation items changed while sending", apperrors.ErrInvalidState)
		}
		if v.VersionNumber != op.VersionCounter+1 {
			return fmt.Errorf("%w: version number out of sequence", apperrors.ErrInvalidState)
		}

		insertQuery := `
			INSERT INTO factor_operation_versions (
				version_id, operation_id, version_number, source_status, total_items,
				gross_amount, costs_amount, net_amount, snapshot_json,
				snapshot_key, csv_key, report_key, sent_at, sent_by
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
		`
		_, err = tx.Exec(ctx, insertQuery,
			v.VersionID, v.OperationID, v.VersionNumber, v.SourceStatus, v.TotalItems,
			v.GrossAmount, v.CostsAmount, v.NetAmount, v.SnapshotJSON,
			v.SnapshotKey, v.CSVKey, v.ReportKey, v.SentAt, v.SentBy,
		)
		if err != nil {
			if code, _ := pgErrorCode(err); code == pgUniqueViolation {
				return fmt.Errorf("%w: version %d of operation %s already exists", apperrors.ErrInvalidState, v.VersionNumber, v.OperationID)
			}
			return apperrors.NewAppError(500, "failed to insert operation version", err)
		}

		updateQuery := `
			UPDATE factor_operations
			SET status = $2, sent_at = $3, sent_by = $4,
				version_counter = $5, current_version_id = $6,
				last_updated_at = $3, last_updated_by = $4
			WHERE operation_id = $1;
		`
		_, err = tx.Exec(ctx, updateQuery,
			v.OperationID, string(domain.OperationSentToFactor), v.SentAt, v.SentBy,
			v.VersionNumber, v.VersionID,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to mark operation "+v.OperationID+" as sent", err)
		}
		sent = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return sent, nil
}

func (r *PgxOperationRepository) FindVersionsByOperationID(ctx context.Context, operationID string) ([]domain.FactorOperationVersion, error) {
	return r.getVersions(ctx, `WHERE operation_id = $1 ORDER BY version_number`, operationID)
}

func (r *PgxOperationRepository) FindVersionByID(ctx context.Context, versionID string) (*domain.FactorOperationVersion, error) {
	versions, err := r.getVersions(ctx, `WHERE version_id = $1`, versionID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: version %s", apperrors.ErrNotFound, versionID)
	}
	return &versions[0], nil
}

// ApplyResponses upserts the verdicts, re-derives the final terms of every answered
// item from the full response set and refreshes the reconciled totals.
func (r *PgxOperationRepository) ApplyResponses(ctx context.Context, operationID, versionID string, responses []domain.OperationResponse, change portsrepo.StatusChange) (*domain.FactorOperation, error) {
	var updated domain.FactorOperation
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		op, err := lockOperation(ctx, tx, operationID)
		if err != nil {
			return err
		}
		if op.Status != string(domain.OperationSentToFactor) {
			return fmt.Errorf("%w: responses apply only to an operation sent to the factor", apperrors.ErrInvalidState)
		}
		if op.CurrentVersionID == nil || *op.CurrentVersionID != versionID {
			return fmt.Errorf("%w: version %s is not the current version", apperrors.ErrValidation, versionID)
		}

		if err := upsertResponses(ctx, tx, responses); err != nil {
			return err
		}

		itemRows, err := queryItems(ctx, tx, operationID)
		if err != nil {
			return err
		}
		responseRows, err := queryResponses(ctx, tx, versionID)
		if err != nil {
			return err
		}
		items := mapping.ToDomainOperationItemSlice(itemRows)
		all := mapping.ToDomainOperationResponseSlice(responseRows)

		byItem := make(map[string]domain.OperationResponse, len(all))
		for _, resp := range all {
			byItem[resp.ItemID] = resp
		}
		for i := range items {
			resp, ok := byItem[items[i].ItemID]
			if !ok {
				continue
			}
			items[i].ApplyResponse(resp)
			m := mapping.ToModelOperationItem(items[i])
			_, err := tx.Exec(ctx, `
				UPDATE factor_operation_items
				SET status = $2, final_amount = $3, final_due_date = $4,
					last_updated_at = $5, last_updated_by = $6
				WHERE item_id = $1;
			`, m.ItemID, m.Status, m.FinalAmount, m.FinalDueDate, change.At, change.By)
			if err != nil {
				return apperrors.NewAppError(500, "failed to finalize item "+m.ItemID, err)
			}
		}

		totals := domain.ReconciledTotals(items, all)
		_, err = tx.Exec(ctx, `
			UPDATE factor_operations
			SET gross_amount = $2, costs_amount = $3, net_amount = $4,
				last_response_at = $5, last_response_by = $6,
				last_updated_at = $5, last_updated_by = $6
			WHERE operation_id = $1;
		`, operationID, totals.Gross, totals.Costs, totals.Net, change.At, change.By)
		if err != nil {
			return apperrors.NewAppError(500, "failed to update totals of operation "+operationID, err)
		}

		ops, err := queryOperations(ctx, tx, `WHERE operation_id = $1`, operationID)
		if err != nil {
			return err
		}
		updated = mapping.ToDomainFactorOperation(ops[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// upsertResponses keeps one response per (version, item); a later import replaces
// the verdict but keeps the original response_id.
func upsertResponses(ctx context.Context, tx pgx.Tx, responses []domain.OperationResponse) error {
	query := `
		INSERT INTO factor_operation_responses (
			response_id, version_id, item_id, response_status, code, message,
			accepted_amount, adjusted_amount, adjusted_due_date,
			fee_amount, interest_amount, iof_amount, other_cost_amount, total_cost_amount,
			imported_at, processed_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (version_id, item_id) DO UPDATE SET
			response_status = EXCLUDED.response_status,
			code = EXCLUDED.code,
			message = EXCLUDED.message,
			accepted_amount = EXCLUDED.accepted_amount,
			adjusted_amount = EXCLUDED.adjusted_amount,
			adjusted_due_date = EXCLUDED.adjusted_due_date,
			fee_amount = EXCLUDED.fee_amount,
			interest_amount = EXCLUDED.interest_amount,
			iof_amount = EXCLUDED.iof_amount,
			other_cost_amount = EXCLUDED.other_cost_amount,
			total_cost_amount = EXCLUDED.total_cost_amount,
			imported_at = EXCLUDED.imported_at,
			processed_by = EXCLUDED.processed_by;
	`
	batch := &pgx.Batch{}
	for _, resp := range responses {
		m := mapping.ToModelOperationResponse(resp)
		batch.Queue(query,
			m.ResponseID, m.VersionID, m.ItemID, m.Status, m.Code, m.Message,
			m.AcceptedAmount, m.AdjustedAmount, m.AdjustedDueDate,
			m.FeeAmount, m.InterestAmount, m.IOFAmount, m.OtherCostAmount, m.TotalCostAmount,
			m.ImportedAt, m.ProcessedBy,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return fmt.Errorf("%w: response references an unknown item", apperrors.ErrValidation)
		}
		return apperrors.NewAppError(500, "failed to store factor responses", err)
	}
	return nil
}

func (r *PgxOperationRepository) FindResponsesByVersionID(ctx context.Context, versionID string) ([]domain.OperationResponse, error) {
	rows, err := queryResponses(ctx, r.Pool, versionID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainOperationResponseSlice(rows), nil
}
