package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/dto"
)

const defaultInstallmentLimit = 50

type installmentService struct {
	BaseService
	receivables portsrepo.ReceivableLedger
}

// NewInstallmentService creates the service listing installments available for selection.
func NewInstallmentService(receivables portsrepo.ReceivableLedger, opts ...Option) portssvc.InstallmentSvc {
	svc := &installmentService{receivables: receivables}
	svc.apply(opts)
	return svc
}

var _ portssvc.InstallmentSvc = (*installmentService)(nil)

// ListEligibleInstallments lists own installments for discount and sold ones for buyback.
func (s *installmentService) ListEligibleInstallments(ctx context.Context, companyID, requestingUserID string, params dto.ListEligibleInstallmentsParams) ([]domain.EligibleInstallment, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultInstallmentLimit
	}

	var (
		installments []domain.EligibleInstallment
		err          error
	)
	switch domain.ActionType(params.ActionType) {
	case domain.ActionDiscount, "":
		installments, err = s.receivables.ListOpenInstallments(ctx, companyID, limit)
	case domain.ActionBuyback:
		installments, err = s.receivables.ListInstallmentsWithFactor(ctx, companyID, params.FactorID, limit)
	default:
		return nil, fmt.Errorf("%w: unknown action type %q", apperrors.ErrValidation, params.ActionType)
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to list eligible installments",
			slog.String("company_id", companyID),
			slog.String("action_type", params.ActionType))
		return nil, err
	}
	if installments == nil {
		return []domain.EligibleInstallment{}, nil
	}
	return installments, nil
}
