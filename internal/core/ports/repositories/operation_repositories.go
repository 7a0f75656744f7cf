package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
)

// OperationFilter narrows ListOperations.
type OperationFilter struct {
	Status        *domain.OperationStatus
	FactorID      *string
	IssueDateFrom *time.Time
	IssueDateTo   *time.Time
	Limit         int
	NextToken     *string
}

// StatusChange carries the actor fields written by a status transition.
type StatusChange struct {
	At     time.Time
	By     string
	Reason *string // cancellation only
}

// OperationReader defines read operations for factor operations
type OperationReader interface {
	// FindOperationByID retrieves an operation header (without items).
	FindOperationByID(ctx context.Context, operationID string) (*domain.FactorOperation, error)

	// ListOperations retrieves a page of a company's operations, newest first.
	// It returns the operations, a token for the next page, and an error.
	ListOperations(ctx context.Context, companyID string, filter OperationFilter) ([]domain.FactorOperation, *string, error)

	// CountOperationsByFactor counts operations referencing a factor.
	CountOperationsByFactor(ctx context.Context, factorID string) (int, error)

	// FindItemsByOperationID retrieves the current items of an operation ordered by line_no.
	FindItemsByOperationID(ctx context.Context, operationID string) ([]domain.OperationItem, error)
}

// OperationWriter defines write operations for factor operations
type OperationWriter interface {
	// SaveOperation persists a new draft operation and assigns its company-scoped number.
	SaveOperation(ctx context.Context, operation domain.FactorOperation) (*domain.FactorOperation, error)

	// AddOperationItem assigns the next line_no and inserts the item while holding the
	// operation row lock; it fails with ErrInvalidState unless the operation is draft,
	// and with ErrValidation when the installment is already on another draft or
	// sent operation.
	AddOperationItem(ctx context.Context, item domain.OperationItem) (*domain.OperationItem, error)

	// DeleteOperationItem removes a draft item, recomputes gross_amount and stamps
	// the operation as last updated by deletedBy.
	DeleteOperationItem(ctx context.Context, operationID, itemID, deletedBy string) error

	// MarkSettlementStarted records the first conclude attempt on a sent operation.
	// It reports false when the operation is not sent_to_factor. Repeated calls keep
	// the first timestamp.
	MarkSettlementStarted(ctx context.Context, operationID string, at time.Time) (bool, error)

	// TransitionStatus moves the operation to `to` only if its current status is one of
	// `from`. It reports whether a row was updated. A move to cancelled also requires
	// that no settlement has started.
	TransitionStatus(ctx context.Context, operationID string, from []domain.OperationStatus, to domain.OperationStatus, change StatusChange) (bool, error)
}

// VersionRepository defines the append-only version store and the send transition.
type VersionRepository interface {
	// SendOperation inserts the version and moves the operation draft -> sent_to_factor
	// atomically. It reports false, and stores nothing, when the operation was no longer draft.
	// It fails with ErrInvalidState when the operation changed after expectedUpdatedAt.
	SendOperation(ctx context.Context, version domain.FactorOperationVersion, expectedUpdatedAt time.Time) (bool, error)

	// FindVersionsByOperationID lists versions ordered by version_number.
	FindVersionsByOperationID(ctx context.Context, operationID string) ([]domain.FactorOperationVersion, error)

	// FindVersionByID retrieves a single version.
	FindVersionByID(ctx context.Context, versionID string) (*domain.FactorOperationVersion, error)
}

// ResponseRepository defines the factor response store.
type ResponseRepository interface {
	// ApplyResponses upserts responses for the operation's current version, finalizes the
	// affected items and recomputes the operation totals in one transaction.
	ApplyResponses(ctx context.Context, operationID, versionID string, responses []domain.OperationResponse, change StatusChange) (*domain.FactorOperation, error)

	// FindResponsesByVersionID lists the responses recorded for a version.
	FindResponsesByVersionID(ctx context.Context, versionID string) ([]domain.OperationResponse, error)
}

// OperationRepositoryFacade combines all operation-related repository interfaces
type OperationRepositoryFacade interface {
	OperationReader
	OperationWriter
	VersionRepository
	ResponseRepository
}
