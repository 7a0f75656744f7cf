package services

import (
	"context"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	"github.com/SscSPs/factor_ops_app/internal/dto"
)

// FactorReaderSvc defines read operations for factors
type FactorReaderSvc interface {
	// GetFactorByID retrieves a factor of the company.
	GetFactorByID(ctx context.Context, companyID, factorID, requestingUserID string) (*domain.Factor, error)

	// ListFactors retrieves the factors of the company.
	ListFactors(ctx context.Context, companyID, requestingUserID string, includeInactive bool) ([]domain.Factor, error)
}

// FactorWriterSvc defines write operations for factors
type FactorWriterSvc interface {
	// CreateFactor registers a new factor. Only company admins may do this.
	CreateFactor(ctx context.Context, companyID string, req dto.CreateFactorRequest, creatorUserID string) (*domain.Factor, error)

	// UpdateFactor changes a factor. Name, code and counterpart are frozen once
	// an operation references the factor.
	UpdateFactor(ctx context.Context, companyID, factorID string, req dto.UpdateFactorRequest, requestingUserID string) (*domain.Factor, error)
}

// FactorSvcFacade combines all factor-related service interfaces
type FactorSvcFacade interface {
	FactorReaderSvc
	FactorWriterSvc
}
