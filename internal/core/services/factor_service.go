package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/google/uuid"
)

// factorService implements the FactorSvcFacade interface
type factorService struct {
	BaseService
	factorRepo    portsrepo.FactorRepositoryFacade
	operationRepo portsrepo.OperationReader
}

// NewFactorService creates a new factor service.
func NewFactorService(factorRepo portsrepo.FactorRepositoryFacade, operationRepo portsrepo.OperationReader, opts ...Option) portssvc.FactorSvcFacade {
	svc := &factorService{
		factorRepo:    factorRepo,
		operationRepo: operationRepo,
	}
	svc.apply(opts)
	return svc
}

var _ portssvc.FactorSvcFacade = (*factorService)(nil)

// GetFactorByID retrieves a factor of the company. Factors of other companies are reported as missing.
func (s *factorService) GetFactorByID(ctx context.Context, companyID, factorID, requestingUserID string) (*domain.Factor, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.findCompanyFactor(ctx, companyID, factorID)
}

// ListFactors retrieves the factors of the company.
func (s *factorService) ListFactors(ctx context.Context, companyID, requestingUserID string, includeInactive bool) ([]domain.Factor, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	factors, err := s.factorRepo.ListFactors(ctx, companyID, includeInactive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list factors",
			slog.String("company_id", companyID))
		return nil, err
	}
	if factors == nil {
		return []domain.Factor{}, nil
	}
	return factors, nil
}

// CreateFactor registers a new factor.
func (s *factorService) CreateFactor(ctx context.Context, companyID string, req dto.CreateFactorRequest, creatorUserID string) (*domain.Factor, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, companyID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	rates := req.Rates.ToDomain()
	if err := validateRates(rates); err != nil {
		return nil, err
	}
	if err := s.ensureCodeAvailable(ctx, companyID, req.Code, ""); err != nil {
		return nil, err
	}

	now := s.Now()
	factor := domain.Factor{
		FactorID:                 uuid.NewString(),
		CompanyID:                companyID,
		CounterpartOrgID:         req.CounterpartOrgID,
		Name:                     req.Name,
		Code:                     req.Code,
		Rates:                    rates,
		AutoSettleBuybackDefault: req.AutoSettleBuybackDefault,
		IsActive:                 true,
		AuditFields:              domain.NewAuditFields(now, creatorUserID),
	}

	if err := s.factorRepo.SaveFactor(ctx, factor); err != nil {
		s.LogError(ctx, err, "Failed to save factor",
			slog.String("company_id", companyID),
			slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to create factor: %w", err)
	}

	s.LogInfo(ctx, "Factor created successfully",
		slog.String("factor_id", factor.FactorID),
		slog.String("company_id", companyID))
	return &factor, nil
}

// UpdateFactor applies the non-nil fields of req. Identifying fields are frozen
// once any operation references the factor.
func (s *factorService) UpdateFactor(ctx context.Context, companyID, factorID string, req dto.UpdateFactorRequest, requestingUserID string) (*domain.Factor, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	factor, err := s.findCompanyFactor(ctx, companyID, factorID)
	if err != nil {
		return nil, err
	}

	identityChanged := (req.Name != nil && *req.Name != factor.Name) ||
		(req.Code != nil && *req.Code != factor.Code) ||
		(req.CounterpartOrgID != nil && *req.CounterpartOrgID != factor.CounterpartOrgID)
	if identityChanged {
		count, err := s.operationRepo.CountOperationsByFactor(ctx, factorID)
		if err != nil {
			s.LogError(ctx, err, "Failed to count operations of factor",
				slog.String("factor_id", factorID))
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: name, code and counterpart cannot change once the factor has operations", apperrors.ErrValidation)
		}
	}

	if req.Code != nil && *req.Code != factor.Code {
		if err := s.ensureCodeAvailable(ctx, companyID, *req.Code, factorID); err != nil {
			return nil, err
		}
		factor.Code = *req.Code
	}
	if req.Name != nil {
		factor.Name = *req.Name
	}
	if req.CounterpartOrgID != nil {
		factor.CounterpartOrgID = *req.CounterpartOrgID
	}
	if req.Rates != nil {
		rates := req.Rates.ToDomain()
		if err := validateRates(rates); err != nil {
			return nil, err
		}
		factor.Rates = rates
	}
	if req.AutoSettleBuybackDefault != nil {
		factor.AutoSettleBuybackDefault = *req.AutoSettleBuybackDefault
	}
	if req.IsActive != nil {
		factor.IsActive = *req.IsActive
	}
	factor.Touch(s.Now(), requestingUserID)

	if err := s.factorRepo.UpdateFactor(ctx, *factor); err != nil {
		s.LogError(ctx, err, "Failed to update factor",
			slog.String("factor_id", factorID))
		return nil, fmt.Errorf("failed to update factor: %w", err)
	}

	s.LogInfo(ctx, "Factor updated successfully",
		slog.String("factor_id", factorID),
		slog.String("user_id", requestingUserID))
	return factor, nil
}

func (s *factorService) findCompanyFactor(ctx context.Context, companyID, factorID string) (*domain.Factor, error) {
	factor, err := s.factorRepo.FindFactorByID(ctx, factorID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find factor",
				slog.String("factor_id", factorID))
		}
		return nil, err
	}
	if factor.CompanyID != companyID {
		return nil, fmt.Errorf("%w: factor %s", apperrors.ErrNotFound, factorID)
	}
	return factor, nil
}

func (s *factorService) ensureCodeAvailable(ctx context.Context, companyID, code, ownFactorID string) error {
	existing, err := s.factorRepo.FindFactorByCode(ctx, companyID, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		s.LogError(ctx, err, "Failed to check factor code",
			slog.String("company_id", companyID),
			slog.String("code", code))
		return err
	}
	if existing.FactorID != ownFactorID {
		return fmt.Errorf("%w: factor code %s already in use", apperrors.ErrDuplicate, code)
	}
	return nil
}

func validateRates(r domain.FactorRates) error {
	if r.InterestRate.IsNegative() || r.FeeRate.IsNegative() || r.IOFRate.IsNegative() || r.OtherCostRate.IsNegative() {
		return fmt.Errorf("%w: rates must not be negative", apperrors.ErrValidation)
	}
	if r.GraceDays < 0 {
		return fmt.Errorf("%w: grace days must not be negative", apperrors.ErrValidation)
	}
	return nil
}
