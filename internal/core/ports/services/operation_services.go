package services

import (
	"context"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	"github.com/SscSPs/factor_ops_app/internal/dto"
)

// OperationReaderSvc defines read operations for factor operations
type OperationReaderSvc interface {
	// GetOperationByID retrieves an operation together with its items.
	GetOperationByID(ctx context.Context, companyID, operationID, requestingUserID string) (*domain.FactorOperation, error)

	// ListOperations retrieves a page of the company's operations.
	ListOperations(ctx context.Context, companyID, requestingUserID string, params dto.ListOperationsParams) (*dto.ListOperationsResponse, error)

	// ListVersions retrieves every version sent for the operation.
	ListVersions(ctx context.Context, companyID, operationID, requestingUserID string) ([]domain.FactorOperationVersion, error)

	// GetVersion retrieves one version of the operation.
	GetVersion(ctx context.Context, companyID, operationID, versionID, requestingUserID string) (*domain.FactorOperationVersion, error)

	// ListResponses retrieves the responses of a version, the current one when versionID is empty.
	ListResponses(ctx context.Context, companyID, operationID, versionID, requestingUserID string) ([]domain.OperationResponse, error)

	// ListAuditTrail retrieves the audit entries of the operation.
	ListAuditTrail(ctx context.Context, companyID, operationID, requestingUserID string) ([]domain.AuditLog, error)
}

// OperationLifecycleSvc owns the operation state machine
type OperationLifecycleSvc interface {
	// CreateOperation opens a draft operation for an active factor.
	CreateOperation(ctx context.Context, companyID string, req dto.CreateOperationRequest, creatorUserID string) (*domain.FactorOperation, error)

	// SendToFactor freezes the next version and moves the operation to sent_to_factor.
	// An operation already sent by a concurrent caller is returned as is.
	SendToFactor(ctx context.Context, companyID, operationID, requestingUserID string) (*domain.FactorOperation, error)

	// CancelOperation moves a draft or sent operation to cancelled.
	CancelOperation(ctx context.Context, companyID, operationID string, req dto.CancelOperationRequest, requestingUserID string) (*domain.FactorOperation, error)
}

// OperationItemSvc manages the items of a draft operation
type OperationItemSvc interface {
	// AddOperationItem adds an installment to a draft operation, freezing its current terms.
	AddOperationItem(ctx context.Context, companyID, operationID string, req dto.AddOperationItemRequest, requestingUserID string) (*domain.OperationItem, error)

	// DeleteOperationItem removes an item from a draft operation.
	DeleteOperationItem(ctx context.Context, companyID, operationID, itemID, requestingUserID string) error
}

// ResponseReconcilerSvc ingests the factor's verdicts
type ResponseReconcilerSvc interface {
	// ApplyResponses records the responses against the current version and recomputes totals.
	ApplyResponses(ctx context.Context, companyID, operationID string, req dto.ApplyResponsesRequest, requestingUserID string) (*domain.FactorOperation, error)
}

// OperationSvcFacade combines all operation-related service interfaces
type OperationSvcFacade interface {
	OperationReaderSvc
	OperationLifecycleSvc
	OperationItemSvc
	ResponseReconcilerSvc
}
