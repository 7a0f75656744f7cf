package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// operationService implements the OperationSvcFacade interface
type operationService struct {
	BaseService
	operationRepo portsrepo.OperationRepositoryFacade
	factorRepo    portsrepo.FactorReader
	receivables   portsrepo.ReceivableLedger
	auditSink     portsrepo.AuditSink
	packager      portssvc.TransmissionPackager
	validate      *validator.Validate
}

// NewOperationService creates the service owning the operation lifecycle, items and responses.
func NewOperationService(
	operationRepo portsrepo.OperationRepositoryFacade,
	factorRepo portsrepo.FactorReader,
	receivables portsrepo.ReceivableLedger,
	auditSink portsrepo.AuditSink,
	packager portssvc.TransmissionPackager,
	opts ...Option,
) portssvc.OperationSvcFacade {
	svc := &operationService{
		operationRepo: operationRepo,
		factorRepo:    factorRepo,
		receivables:   receivables,
		auditSink:     auditSink,
		packager:      packager,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
	svc.apply(opts)
	return svc
}

var _ portssvc.OperationSvcFacade = (*operationService)(nil)

// --- Reads ---

func (s *operationService) GetOperationByID(ctx context.Context, companyID, operationID, requestingUserID string) (*domain.FactorOperation, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.loadWithItems(ctx, companyID, operationID)
}

func (s *operationService) ListOperations(ctx context.Context, companyID, requestingUserID string, params dto.ListOperationsParams) (*dto.ListOperationsResponse, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	filter := portsrepo.OperationFilter{
		IssueDateFrom: params.IssueDateFrom,
		IssueDateTo:   params.IssueDateTo,
		Limit:         params.Limit,
		NextToken:     params.NextToken,
	}
	if params.Status != "" {
		status := domain.OperationStatus(params.Status)
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, params.Status)
		}
		filter.Status = &status
	}
	if params.FactorID != "" {
		filter.FactorID = &params.FactorID
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	ops, nextToken, err := s.operationRepo.ListOperations(ctx, companyID, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list operations",
			slog.String("company_id", companyID))
		return nil, err
	}
	return dto.ToListOperationsResponse(ops, nextToken), nil
}

func (s *operationService) ListVersions(ctx context.Context, companyID, operationID, requestingUserID string) ([]domain.FactorOperationVersion, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if _, err := s.loadOperation(ctx, companyID, operationID); err != nil {
		return nil, err
	}
	versions, err := s.operationRepo.FindVersionsByOperationID(ctx, operationID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list versions",
			slog.String("operation_id", operationID))
		return nil, err
	}
	if versions == nil {
		return []domain.FactorOperationVersion{}, nil
	}
	return versions, nil
}

func (s *operationService) GetVersion(ctx context.Context, companyID, operationID, versionID, requestingUserID string) (*domain.FactorOperationVersion, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if _, err := s.loadOperation(ctx, companyID, operationID); err != nil {
		return nil, err
	}
	version, err := s.operationRepo.FindVersionByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.OperationID != operationID {
		return nil, fmt.Errorf("%w: version %s", apperrors.ErrNotFound, versionID)
	}
	return version, nil
}

func (s *operationService) ListResponses(ctx context.Context, companyID, operationID, versionID, requestingUserID string) ([]domain.OperationResponse, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	op, err := s.loadOperation(ctx, companyID, operationID)
	if err != nil {
		return nil, err
	}

	if versionID == "" {
		if op.CurrentVersionID == nil {
			return []domain.OperationResponse{}, nil
		}
		versionID = *op.CurrentVersionID
	} else {
		version, err := s.operationRepo.FindVersionByID(ctx, versionID)
		if err != nil {
			return nil, err
		}
		if version.OperationID != operationID {
			return nil, fmt.Errorf("%w: version %s", apperrors.ErrNotFound, versionID)
		}
	}

	responses, err := s.operationRepo.FindResponsesByVersionID(ctx, versionID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list responses",
			slog.String("version_id", versionID))
		return nil, err
	}
	if responses == nil {
		return []domain.OperationResponse{}, nil
	}
	return responses, nil
}

func (s *operationService) ListAuditTrail(ctx context.Context, companyID, operationID, requestingUserID string) ([]domain.AuditLog, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if _, err := s.loadOperation(ctx, companyID, operationID); err != nil {
		return nil, err
	}
	entries, err := s.auditSink.ListAuditLogsByEntity(ctx, companyID, domain.AuditEntityOperation, operationID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		return []domain.AuditLog{}, nil
	}
	return entries, nil
}

// --- Lifecycle ---

func (s *operationService) CreateOperation(ctx context.Context, companyID string, req dto.CreateOperationRequest, creatorUserID string) (*domain.FactorOperation, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, companyID, domain.RoleMember); err != nil {
		return nil, err
	}

	factor, err := s.factorRepo.FindFactorByID(ctx, req.FactorID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load factor", slog.String("factor_id", req.FactorID))
		}
		return nil, err
	}
	if factor.CompanyID != companyID {
		return nil, fmt.Errorf("%w: factor %s", apperrors.ErrNotFound, req.FactorID)
	}
	if !factor.IsActive {
		return nil, fmt.Errorf("%w: factor %s is inactive", apperrors.ErrValidation, factor.Code)
	}

	issueDate := dateOnly(req.IssueDate)
	expectedSettlement := req.ExpectedSettlementDate
	if expectedSettlement != nil {
		d := dateOnly(*expectedSettlement)
		if d.Before(issueDate) {
			return nil, fmt.Errorf("%w: expected settlement date before issue date", apperrors.ErrValidation)
		}
		expectedSettlement = &d
	}

	now := s.Now()
	op := domain.FactorOperation{
		OperationID:            uuid.NewString(),
		CompanyID:              companyID,
		FactorID:               factor.FactorID,
		Reference:              req.Reference,
		IssueDate:              issueDate,
		ExpectedSettlementDate: expectedSettlement,
		SettlementAccountID:    req.SettlementAccountID,
		Status:                 domain.OperationDraft,
		GrossAmount:            decimal.Zero,
		CostsAmount:            decimal.Zero,
		NetAmount:              decimal.Zero,
		Rates:                  factor.Rates,
		Notes:                  req.Notes,
		AuditFields:            domain.NewAuditFields(now, creatorUserID),
	}

	saved, err := s.operationRepo.SaveOperation(ctx, op)
	if err != nil {
		s.LogError(ctx, err, "Failed to save operation",
			slog.String("company_id", companyID),
			slog.String("factor_id", factor.FactorID))
		return nil, fmt.Errorf("failed to create operation: %w", err)
	}

	s.LogInfo(ctx, "Factor operation created",
		slog.String("operation_id", saved.OperationID),
		slog.Int64("operation_number", saved.OperationNumber))
	s.track(creatorUserID, "factor_operation_created", map[string]any{"company_id": companyID, "factor_id": factor.FactorID})
	return saved, nil
}

func (s *operationService) SendToFactor(ctx context.Context, companyID, operationID, requestingUserID string) (*domain.FactorOperation, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleMember); err != nil {
		return nil, err
	}

	op, err := s.loadOperation(ctx, companyID, operationID)
	if err != nil {
		return nil, err
	}
	switch op.Status {
	case domain.OperationSentToFactor:
		s.Metrics.Transition(string(domain.OperationSentToFactor), "noop")
		return s.loadWithItems(ctx, companyID, operationID)
	case domain.OperationDraft:
	default:
		return nil, fmt.Errorf("%w: cannot send a %s operation", apperrors.ErrInvalidState, op.Status)
	}

	items, err := s.operationRepo.FindItemsByOperationID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty operation", apperrors.ErrValidation)
	}

	snapshot := domain.NewVersionSnapshot(*op, items)
	snapshot.VersionID = uuid.NewString()
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode version snapshot: %w", err)
	}

	artifacts, err := s.packager.Package(ctx, snapshot)
	if err != nil {
		s.LogError(ctx, err, "Failed to package transmission files",
			slog.String("operation_id", operationID))
		s.Metrics.Transition(string(domain.OperationSentToFactor), "error")
		return nil, apperrors.NewRetryableError("failed to package transmission files", err)
	}

	now := s.Now()
	version := domain.FactorOperationVersion{
		VersionID:     snapshot.VersionID,
		OperationID:   operationID,
		VersionNumber: snapshot.VersionNumber,
		SourceStatus:  op.Status,
		TotalItems:    len(items),
		GrossAmount:   op.GrossAmount,
		CostsAmount:   op.CostsAmount,
		NetAmount:     op.NetAmount,
		SnapshotJSON:  snapshotJSON,
		Artifacts:     artifacts,
		SentAt:        now,
		SentBy:        requestingUserID,
	}

	sent, err := s.operationRepo.SendOperation(ctx, version, op.LastUpdatedAt)
	if err != nil {
		s.LogError(ctx, err, "Failed to send operation",
			slog.String("operation_id", operationID))
		s.Metrics.Transition(string(domain.OperationSentToFactor), "error")
		return nil, err
	}
	if !sent {
		current, err := s.loadWithItems(ctx, companyID, operationID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.OperationSentToFactor {
			s.LogInfo(ctx, "Operation already sent by a concurrent request",
				slog.String("operation_id", operationID))
			s.Metrics.Transition(string(domain.OperationSentToFactor), "noop")
			return current, nil
		}
		return nil, fmt.Errorf("%w: operation is %s", apperrors.ErrInvalidState, current.Status)
	}

	s.Metrics.Transition(string(domain.OperationSentToFactor), "applied")
	s.writeAudit(ctx, domain.AuditLog{
		AuditLogID: uuid.NewString(),
		CompanyID:  companyID,
		UserID:     requestingUserID,
		Action:     domain.AuditActionOperationSent,
		EntityType: domain.AuditEntityOperation,
		EntityID:   operationID,
		Details: map[string]any{
			"versionID":     version.VersionID,
			"versionNumber": version.VersionNumber,
			"totalItems":    version.TotalItems,
			"grossAmount":   version.GrossAmount.String(),
		},
		CreatedAt: now,
	})
	s.track(requestingUserID, "factor_operation_sent", map[string]any{
		"company_id":     companyID,
		"version_number": version.VersionNumber,
		"total_items":    version.TotalItems,
	})
	s.LogInfo(ctx, "Operation sent to factor",
		slog.String("operation_id", operationID),
		slog.Int("version_number", version.VersionNumber))

	return s.loadWithItems(ctx, companyID, operationID)
}

func (s *operationService) CancelOperation(ctx context.Context, companyID, operationID string, req dto.CancelOperationRequest, requestingUserID string) (*domain.FactorOperation, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleMember); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", apperrors.ErrValidation)
	}

	op, err := s.loadOperation(ctx, companyID, operationID)
	if err != nil {
		return nil, err
	}
	if op.Status.IsTerminal() {
		if op.Status == domain.OperationCancelled {
			s.Metrics.Transition(string(domain.OperationCancelled), "noop")
			return s.loadWithItems(ctx, companyID, operationID)
		}
		return nil, fmt.Errorf("%w: a %s operation cannot be cancelled", apperrors.ErrInvalidState, op.Status)
	}
	if op.SettlementStarted() {
		return nil, fmt.Errorf("%w: settlement already started, conclude the operation instead", apperrors.ErrInvalidState)
	}

	now := s.Now()
	moved, err := s.operationRepo.TransitionStatus(ctx, operationID,
		domain.TransitionSources(domain.OperationCancelled), domain.OperationCancelled,
		portsrepo.StatusChange{At: now, By: requestingUserID, Reason: &reason})
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel operation",
			slog.String("operation_id", operationID))
		s.Metrics.Transition(string(domain.OperationCancelled), "error")
		return nil, err
	}
	if !moved {
		current, err := s.loadWithItems(ctx, companyID, operationID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.OperationCancelled {
			s.Metrics.Transition(string(domain.OperationCancelled), "noop")
			return current, nil
		}
		if current.SettlementStarted() {
			return nil, fmt.Errorf("%w: settlement already started, conclude the operation instead", apperrors.ErrInvalidState)
		}
		return nil, fmt.Errorf("%w: operation is %s", apperrors.ErrInvalidState, current.Status)
	}

	s.Metrics.Transition(string(domain.OperationCancelled), "applied")
	s.writeAudit(ctx, domain.AuditLog{
		AuditLogID: uuid.NewString(),
		CompanyID:  companyID,
		UserID:     requestingUserID,
		Action:     domain.AuditActionOperationCancelled,
		EntityType: domain.AuditEntityOperation,
		EntityID:   operationID,
		Details: map[string]any{
			"fromStatus": string(op.Status),
			"reason":     reason,
		},
		CreatedAt: now,
	})
	s.track(requestingUserID, "factor_operation_cancelled", map[string]any{
		"company_id":  companyID,
		"from_status": string(op.Status),
	})
	s.LogInfo(ctx, "Operation cancelled",
		slog.String("operation_id", operationID),
		slog.String("from_status", string(op.Status)))

	return s.loadWithItems(ctx, companyID, operationID)
}

// --- Items ---

func (s *operationService) AddOperationItem(ctx context.Context, companyID, operationID string, req dto.AddOperationItemRequest, requestingUserID string) (*domain.OperationItem, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleMember); err != nil {
		return nil, err
	}
	if !req.ActionType.IsValid() {
		return nil, fmt.Errorf("%w: unknown action type %q", apperrors.ErrValidation, req.ActionType)
	}

	op, err := s.loadOperation(ctx, companyID, operationID)
	if err != nil {
		return nil, err
	}
	if op.Status != domain.OperationDraft {
		return nil, fmt.Errorf("%w: items can only be added to a draft operation", apperrors.ErrInvalidState)
	}

	inst, err := s.receivables.FindInstallmentByID(ctx, req.InstallmentID)
	if err != nil {
		return nil, err
	}
	if inst.CompanyID != companyID {
		return nil, fmt.Errorf("%w: installment %s", apperrors.ErrNotFound, req.InstallmentID)
	}
	if inst.CustodyStatus != req.ActionType.RequiredCustody() {
		return nil, fmt.Errorf("%w: installment not eligible for %s (custody %s)",
			apperrors.ErrValidation, req.ActionType, inst.CustodyStatus)
	}
	if req.ActionType == domain.ActionBuyback && inst.FactorID != nil && *inst.FactorID != op.FactorID {
		return nil, fmt.Errorf("%w: installment not eligible, it is held by another factor", apperrors.ErrValidation)
	}

	settleNow := false
	if req.ActionType == domain.ActionBuyback {
		if req.BuybackSettleNow != nil {
			settleNow = *req.BuybackSettleNow
		} else {
			factor, err := s.factorRepo.FindFactorByID(ctx, op.FactorID)
			if err != nil {
				return nil, err
			}
			settleNow = factor.AutoSettleBuybackDefault
		}
	}

	var proposed *time.Time
	if req.ProposedDueDate != nil {
		d := dateOnly(*req.ProposedDueDate)
		proposed = &d
	}

	now := s.Now()
	item := domain.OperationItem{
		ItemID:           uuid.NewString(),
		OperationID:      operationID,
		ActionType:       req.ActionType,
		InstallmentID:    inst.InstallmentID,
		ARTitleID:        inst.ARTitleID,
		SalesDocumentID:  inst.SalesDocumentID,
		CustomerID:       inst.CustomerID,
		Snapshot:         domain.SnapshotOf(*inst),
		ProposedDueDate:  proposed,
		BuybackSettleNow: settleNow,
		Status:           domain.ItemPending,
		Notes:            req.Notes,
		AuditFields:      domain.NewAuditFields(now, requestingUserID),
	}

	saved, err := s.operationRepo.AddOperationItem(ctx, item)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) && !errors.Is(err, apperrors.ErrInvalidState) {
			s.LogError(ctx, err, "Failed to add operation item",
				slog.String("operation_id", operationID),
				slog.String("installment_id", req.InstallmentID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Operation item added",
		slog.String("operation_id", operationID),
		slog.String("item_id", saved.ItemID),
		slog.Int("line_no", saved.LineNo))
	return saved, nil
}

func (s *operationService) DeleteOperationItem(ctx context.Context, companyID, operationID, itemID, requestingUserID string) error {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleMember); err != nil {
		return err
	}
	op, err := s.loadOperation(ctx, companyID, operationID)
	if err != nil {
		return err
	}
	if op.Status != domain.OperationDraft {
		return fmt.Errorf("%w: items can only be removed from a draft operation", apperrors.ErrInvalidState)
	}

	if err := s.operationRepo.DeleteOperationItem(ctx, operationID, itemID, requestingUserID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrInvalidState) {
			s.LogError(ctx, err, "Failed to delete operation item",
				slog.String("operation_id", operationID),
				slog.String("item_id", itemID))
		}
		return err
	}

	s.LogInfo(ctx, "Operation item deleted",
		slog.String("operation_id", operationID),
		slog.String("item_id", itemID))
	return nil
}

// --- helpers ---

// loadOperation fetches the operation header and hides operations of other companies.
func (s *operationService) loadOperation(ctx context.Context, companyID, operationID string) (*domain.FactorOperation, error) {
	op, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load operation",
				slog.String("operation_id", operationID))
		}
		return nil, err
	}
	if op.CompanyID != companyID {
		return nil, fmt.Errorf("%w: operation %s", apperrors.ErrNotFound, operationID)
	}
	return op, nil
}

func (s *operationService) loadWithItems(ctx context.Context, companyID, operationID string) (*domain.FactorOperation, error) {
	op, err := s.loadOperation(ctx, companyID, operationID)
	if err != nil {
		return nil, err
	}
	items, err := s.operationRepo.FindItemsByOperationID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	op.Items = items
	return op, nil
}

// writeAudit records entry; a failure is logged and does not fail the caller.
func (s *operationService) writeAudit(ctx context.Context, entry domain.AuditLog) {
	if err := s.auditSink.InsertAuditLog(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to write audit log",
			slog.String("action", entry.Action),
			slog.String("entity_id", entry.EntityID))
	}
}
