package services

import (
	"context"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	"github.com/SscSPs/factor_ops_app/internal/dto"
)

// InstallmentSvc exposes the receivables that can be placed on an operation
type InstallmentSvc interface {
	// ListEligibleInstallments lists installments whose custody allows the given action.
	ListEligibleInstallments(ctx context.Context, companyID, requestingUserID string, params dto.ListEligibleInstallmentsParams) ([]domain.EligibleInstallment, error)
}
