package services

import (
	"context"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	"github.com/SscSPs/factor_ops_app/internal/dto"
)

// ConcludeResult is the outcome of ConcludeOperation. Idempotent is true when the
// operation was already completed and nothing was applied.
type ConcludeResult struct {
	Idempotent bool
	Operation  *domain.FactorOperation
}

// SettlementSvc applies accepted outcomes to the ledgers exactly once
type SettlementSvc interface {
	// ConcludeOperation settles a sent operation. Safe to call again after a failure.
	ConcludeOperation(ctx context.Context, companyID, operationID string, req dto.ConcludeOperationRequest, requestingUserID string) (*ConcludeResult, error)

	// ListPostings retrieves the postings recorded for the operation.
	ListPostings(ctx context.Context, companyID, operationID, requestingUserID string) ([]domain.Posting, error)
}

// TransmissionPackager builds the files sent to the factor for a version and
// returns where they were stored.
type TransmissionPackager interface {
	Package(ctx context.Context, snapshot domain.VersionSnapshot) (domain.PackageArtifacts, error)
}
