package repositories

import (
	"context"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
)

// FactorReader defines read operations for factor data
type FactorReader interface {
	// FindFactorByID retrieves a factor by its ID.
	FindFactorByID(ctx context.Context, factorID string) (*domain.Factor, error)

	// FindFactorByCode retrieves a factor by its code within a company.
	FindFactorByCode(ctx context.Context, companyID, code string) (*domain.Factor, error)

	// ListFactors retrieves the factors of a company ordered by name.
	ListFactors(ctx context.Context, companyID string, includeInactive bool) ([]domain.Factor, error)
}

// FactorWriter defines write operations for factor data
type FactorWriter interface {
	// SaveFactor persists a new factor.
	SaveFactor(ctx context.Context, factor domain.Factor) error

	// UpdateFactor overwrites the mutable and, when allowed, identifying fields of a factor.
	UpdateFactor(ctx context.Context, factor domain.Factor) error
}

// FactorRepositoryFacade combines all factor-related repository interfaces
type FactorRepositoryFacade interface {
	FactorReader
	FactorWriter
}
