package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplyResponses records the factor's verdicts for the current version. Entries
// replace earlier responses for the same item, so re-applying a file is harmless.
func (s *operationService) ApplyResponses(ctx context.Context, companyID, operationID string, req dto.ApplyResponsesRequest, requestingUserID string) (*domain.FactorOperation, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleMember); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, describeValidation(err))
	}

	op, err := s.loadOperation(ctx, companyID, operationID)
	if err != nil {
		return nil, err
	}
	if op.Status != domain.OperationSentToFactor {
		return nil, fmt.Errorf("%w: responses can only be applied to a sent operation", apperrors.ErrInvalidState)
	}
	if !op.HasCurrentVersion(req.VersionID) {
		return nil, fmt.Errorf("%w: version mismatch", apperrors.ErrValidation)
	}

	items, err := s.operationRepo.FindItemsByOperationID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ItemID] = true
	}

	now := s.Now()
	seen := make(map[string]bool, len(req.Responses))
	responses := make([]domain.OperationResponse, 0, len(req.Responses))
	for i, entry := range req.Responses {
		if !known[entry.ItemID] {
			return nil, fmt.Errorf("%w: response %d references item %s outside the operation", apperrors.ErrValidation, i, entry.ItemID)
		}
		if seen[entry.ItemID] {
			return nil, fmt.Errorf("%w: item %s appears more than once", apperrors.ErrValidation, entry.ItemID)
		}
		seen[entry.ItemID] = true

		resp, err := toOperationResponse(entry, req.VersionID, requestingUserID)
		if err != nil {
			return nil, fmt.Errorf("%w: response %d: %s", apperrors.ErrValidation, i, err.Error())
		}
		resp.ImportedAt = now
		responses = append(responses, resp)
	}

	updated, err := s.operationRepo.ApplyResponses(ctx, operationID, req.VersionID, responses,
		portsrepo.StatusChange{At: now, By: requestingUserID})
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) && !errors.Is(err, apperrors.ErrInvalidState) {
			s.LogError(ctx, err, "Failed to apply responses",
				slog.String("operation_id", operationID),
				slog.String("version_id", req.VersionID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Factor responses applied",
		slog.String("operation_id", operationID),
		slog.Int("responses", len(responses)),
		slog.String("gross_amount", updated.GrossAmount.String()),
		slog.String("costs_amount", updated.CostsAmount.String()))
	s.track(requestingUserID, "factor_responses_applied", map[string]any{
		"company_id": companyID,
		"responses":  len(responses),
	})

	return s.loadWithItems(ctx, companyID, operationID)
}

func toOperationResponse(e dto.ResponseEntry, versionID, userID string) (domain.OperationResponse, error) {
	status := domain.ResponseStatus(e.Status)
	if !status.IsValid() {
		return domain.OperationResponse{}, fmt.Errorf("unknown status %q", e.Status)
	}
	if status == domain.ResponseAdjusted && e.AdjustedAmount == nil {
		return domain.OperationResponse{}, errors.New("adjusted responses require adjustedAmount")
	}

	amounts := []decimal.Decimal{e.FeeAmount, e.InterestAmount, e.IOFAmount, e.OtherCostAmount}
	for _, opt := range []*decimal.Decimal{e.AcceptedAmount, e.AdjustedAmount, e.TotalCostAmount} {
		if opt != nil {
			amounts = append(amounts, *opt)
		}
	}
	for _, a := range amounts {
		if a.IsNegative() {
			return domain.OperationResponse{}, errors.New("amounts must not be negative")
		}
	}

	resp := domain.OperationResponse{
		ResponseID:      uuid.NewString(),
		VersionID:       versionID,
		ItemID:          e.ItemID,
		Status:          status,
		Code:            e.Code,
		Message:         e.Message,
		AcceptedAmount:  e.AcceptedAmount,
		AdjustedAmount:  e.AdjustedAmount,
		FeeAmount:       e.FeeAmount,
		InterestAmount:  e.InterestAmount,
		IOFAmount:       e.IOFAmount,
		OtherCostAmount: e.OtherCostAmount,
		ProcessedBy:     userID,
	}
	if e.AdjustedDueDate != nil {
		d := dateOnly(*e.AdjustedDueDate)
		resp.AdjustedDueDate = &d
	}
	if e.TotalCostAmount != nil {
		resp.TotalCostAmount = *e.TotalCostAmount
	} else {
		resp.TotalCostAmount = resp.CostSum()
	}
	return resp, nil
}

// describeValidation flattens validator errors into one message.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag())
	}
	return msg
}
