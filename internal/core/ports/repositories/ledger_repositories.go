package repositories

import (
	"context"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
)

// ReceivableLedger is the receivables subsystem as consumed by the factoring engine.
type ReceivableLedger interface {
	// FindInstallmentByID retrieves an installment.
	FindInstallmentByID(ctx context.Context, installmentID string) (*domain.EligibleInstallment, error)

	// ListOpenInstallments lists installments still in own custody.
	ListOpenInstallments(ctx context.Context, companyID string, limit int) ([]domain.EligibleInstallment, error)

	// ListInstallmentsWithFactor lists installments currently sold, optionally to one factor.
	ListInstallmentsWithFactor(ctx context.Context, companyID string, factorID *string, limit int) ([]domain.EligibleInstallment, error)

	// TransitionCustody applies change only if the installment is still in change.From.
	// It reports whether a row was updated.
	TransitionCustody(ctx context.Context, change domain.CustodyChange) (bool, error)
}

// PayableLedger is the payables subsystem. Both creates are insert-if-absent on the id.
type PayableLedger interface {
	CreateApTitle(ctx context.Context, title domain.ApTitle) (bool, error)
	CreateApInstallment(ctx context.Context, installment domain.ApInstallment) (bool, error)
}

// AuditSink stores the audit trail.
type AuditSink interface {
	InsertAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogsByEntity(ctx context.Context, companyID, entityType, entityID string) ([]domain.AuditLog, error)
}

// PostingRegistry is the idempotency ledger of applied financial effects.
type PostingRegistry interface {
	// FindPostingByKey returns ErrNotFound when the key was never posted.
	FindPostingByKey(ctx context.Context, postingKey string) (*domain.Posting, error)

	// CreatePosting inserts the posting if its key is absent and reports whether it did.
	CreatePosting(ctx context.Context, posting domain.Posting) (bool, error)

	// ListPostingsByOperation lists every posting of an operation ordered by creation.
	ListPostingsByOperation(ctx context.Context, operationID string) ([]domain.Posting, error)

	// ListPostingsByReference lists every posting referencing an installment or
	// payable, across operations, ordered by creation.
	ListPostingsByReference(ctx context.Context, referenceID string) ([]domain.Posting, error)
}
