package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/google/uuid"
)

// settlementNamespace seeds the deterministic ids of everything conclude creates,
// so a retried conclude addresses the same payable and audit rows.
var settlementNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("factor-ops/settlement"))

// settlementService implements the SettlementSvc interface
type settlementService struct {
	BaseService
	operationRepo portsrepo.OperationRepositoryFacade
	factorRepo    portsrepo.FactorReader
	receivables   portsrepo.ReceivableLedger
	payables      portsrepo.PayableLedger
	postings      portsrepo.PostingRegistry
	auditSink     portsrepo.AuditSink
}

// NewSettlementService creates the service that concludes operations.
func NewSettlementService(
	operationRepo portsrepo.OperationRepositoryFacade,
	factorRepo portsrepo.FactorReader,
	receivables portsrepo.ReceivableLedger,
	payables portsrepo.PayableLedger,
	postings portsrepo.PostingRegistry,
	auditSink portsrepo.AuditSink,
	opts ...Option,
) portssvc.SettlementSvc {
	svc := &settlementService{
		operationRepo: operationRepo,
		factorRepo:    factorRepo,
		receivables:   receivables,
		payables:      payables,
		postings:      postings,
		auditSink:     auditSink,
	}
	svc.apply(opts)
	return svc
}

var _ portssvc.SettlementSvc = (*settlementService)(nil)

// ConcludeOperation applies every accepted or adjusted item and the cost payable,
// each guarded by its posting key, then completes the operation. A failure part
// way through leaves the applied postings in place and a retry finishes the rest.
func (s *settlementService) ConcludeOperation(ctx context.Context, companyID, operationID string, req dto.ConcludeOperationRequest, requestingUserID string) (result *portssvc.ConcludeResult, err error) {
	started := time.Now()
	defer func() {
		outcome := "completed"
		switch {
		case err != nil:
			outcome = "error"
		case result != nil && result.Idempotent:
			outcome = "idempotent"
		}
		s.Metrics.Conclude(outcome, time.Since(started))
	}()

	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleMember); err != nil {
		return nil, err
	}
	if req.SettlementDate.IsZero() {
		return nil, fmt.Errorf("%w: settlement date is required", apperrors.ErrValidation)
	}
	settlementDate := dateOnly(req.SettlementDate)

	op, err := s.loadOperation(ctx, companyID, operationID)
	if err != nil {
		return nil, err
	}
	if op.Status == domain.OperationCompleted {
		s.Metrics.Transition(string(domain.OperationCompleted), "noop")
		return s.result(ctx, op, true)
	}
	if op.Status != domain.OperationSentToFactor {
		return nil, fmt.Errorf("%w: cannot conclude a %s operation", apperrors.ErrInvalidState, op.Status)
	}
	if op.CurrentVersionID == nil {
		return nil, fmt.Errorf("%w: operation has no current version", apperrors.ErrInvalidState)
	}

	responses, err := s.operationRepo.FindResponsesByVersionID(ctx, *op.CurrentVersionID)
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: no factor responses recorded for the current version", apperrors.ErrInvalidState)
	}
	items, err := s.operationRepo.FindItemsByOperationID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	factor, err := s.factorRepo.FindFactorByID(ctx, op.FactorID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	marked, err := s.operationRepo.MarkSettlementStarted(ctx, operationID, now)
	if err != nil {
		return nil, s.settlementFailure(ctx, op, "start", err)
	}
	if !marked {
		current, err := s.loadOperation(ctx, companyID, operationID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.OperationCompleted {
			s.Metrics.Transition(string(domain.OperationCompleted), "noop")
			return s.result(ctx, current, true)
		}
		return nil, fmt.Errorf("%w: cannot conclude a %s operation", apperrors.ErrInvalidState, current.Status)
	}

	applied := 0
	// Buybacks flagged settle-now are settled here together with everything else.
	for _, item := range items {
		if !item.Status.IsSettleable() {
			continue
		}
		created, err := s.applyItem(ctx, op, item, requestingUserID, now)
		if err != nil {
			return nil, s.settlementFailure(ctx, op, "item", err)
		}
		if created {
			applied++
		}
	}

	if err := s.applyCost(ctx, op, factor, items, responses, settlementDate, requestingUserID, now); err != nil {
		return nil, s.settlementFailure(ctx, op, "cost", err)
	}

	audit := domain.AuditLog{
		AuditLogID: uuid.NewSHA1(settlementNamespace, []byte("audit:concluded:"+operationID)).String(),
		CompanyID:  companyID,
		UserID:     requestingUserID,
		Action:     domain.AuditActionOperationConcluded,
		EntityType: domain.AuditEntityOperation,
		EntityID:   operationID,
		Details: map[string]any{
			"versionID":      *op.CurrentVersionID,
			"settlementDate": settlementDate.Format(dateLayout),
			"grossAmount":    op.GrossAmount.String(),
			"costsAmount":    op.CostsAmount.String(),
			"netAmount":      op.NetAmount.String(),
		},
		CreatedAt: now,
	}
	if err := s.auditSink.InsertAuditLog(ctx, audit); err != nil {
		return nil, s.settlementFailure(ctx, op, "audit", err)
	}

	moved, err := s.operationRepo.TransitionStatus(ctx, operationID,
		domain.TransitionSources(domain.OperationCompleted), domain.OperationCompleted,
		portsrepo.StatusChange{At: now, By: requestingUserID})
	if err != nil {
		s.Metrics.Transition(string(domain.OperationCompleted), "error")
		return nil, s.settlementFailure(ctx, op, "complete", err)
	}

	current, err := s.loadOperation(ctx, companyID, operationID)
	if err != nil {
		return nil, err
	}
	if !moved {
		if current.Status == domain.OperationCompleted {
			s.Metrics.Transition(string(domain.OperationCompleted), "noop")
			return s.result(ctx, current, true)
		}
		// Cancel refuses an operation whose settlement started, so this is not expected.
		s.LogError(ctx, apperrors.ErrInvalidState, "Operation left sent_to_factor during conclude",
			slog.String("operation_id", operationID),
			slog.String("status", string(current.Status)))
		return nil, fmt.Errorf("%w: operation is %s", apperrors.ErrInvalidState, current.Status)
	}

	s.Metrics.Transition(string(domain.OperationCompleted), "applied")
	s.track(requestingUserID, "factor_operation_concluded", map[string]any{
		"company_id":    companyID,
		"items_applied": applied,
		"net_amount":    current.NetAmount.String(),
	})
	s.LogInfo(ctx, "Operation concluded",
		slog.String("operation_id", operationID),
		slog.Int("items_applied", applied))
	return s.result(ctx, current, false)
}

// ListPostings retrieves the postings recorded for the operation.
func (s *settlementService) ListPostings(ctx context.Context, companyID, operationID, requestingUserID string) ([]domain.Posting, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if _, err := s.loadOperation(ctx, companyID, operationID); err != nil {
		return nil, err
	}
	postings, err := s.postings.ListPostingsByOperation(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if postings == nil {
		return []domain.Posting{}, nil
	}
	return postings, nil
}

// applyItem moves the installment's custody and records the item posting.
// It reports whether a new posting was created.
func (s *settlementService) applyItem(ctx context.Context, op *domain.FactorOperation, item domain.OperationItem, userID string, now time.Time) (bool, error) {
	key := domain.ItemPostingKey(item.ItemID)
	posted, err := s.isPosted(ctx, key)
	if err != nil || posted {
		return false, err
	}

	change := domain.CustodyChange{
		InstallmentID: item.InstallmentID,
		From:          item.ActionType.RequiredCustody(),
		To:            item.ActionType.SettledCustody(),
	}
	if item.ActionType == domain.ActionDiscount {
		change.FactorID = &op.FactorID
	}
	if item.Status == domain.ItemAdjusted {
		change.DueDate = item.FinalDueDate
	}

	moved, err := s.receivables.TransitionCustody(ctx, change)
	if err != nil {
		return false, fmt.Errorf("custody transition of installment %s: %w", item.InstallmentID, err)
	}
	if !moved {
		inst, err := s.receivables.FindInstallmentByID(ctx, item.InstallmentID)
		if err != nil {
			return false, err
		}
		if inst.CustodyStatus != change.To {
			return false, fmt.Errorf("%w: installment %s has custody %s, expected %s",
				apperrors.ErrInvalidState, item.InstallmentID, inst.CustodyStatus, change.From)
		}
		if change.FactorID != nil && (inst.FactorID == nil || *inst.FactorID != *change.FactorID) {
			return false, fmt.Errorf("%w: installment %s was settled with another factor",
				apperrors.ErrInvalidState, item.InstallmentID)
		}
		if err := s.ensureCustodyMovedByItem(ctx, item); err != nil {
			return false, err
		}
		s.LogDebug(ctx, "Installment already in settled custody",
			slog.String("installment_id", item.InstallmentID))
	}

	amount := item.Snapshot.Amount
	if item.FinalAmount != nil {
		amount = *item.FinalAmount
	}
	itemID := item.ItemID
	installmentID := item.InstallmentID
	created, err := s.postings.CreatePosting(ctx, domain.Posting{
		PostingKey:  key,
		CompanyID:   op.CompanyID,
		OperationID: op.OperationID,
		ItemID:      &itemID,
		Kind:        domain.PostingReceivableTransfer,
		Amount:      amount,
		ReferenceID: &installmentID,
		CreatedAt:   now,
		CreatedBy:   userID,
	})
	if err != nil {
		return false, fmt.Errorf("posting %s: %w", key, err)
	}
	s.Metrics.Posting(string(domain.PostingReceivableTransfer), created)
	return created, nil
}

// applyCost registers the aggregate cost of the settled items as a payable to the factor.
func (s *settlementService) applyCost(ctx context.Context, op *domain.FactorOperation, factor *domain.Factor, items []domain.OperationItem, responses []domain.OperationResponse, settlementDate time.Time, userID string, now time.Time) error {
	key := domain.CostPostingKey(op.OperationID)
	posted, err := s.isPosted(ctx, key)
	if err != nil || posted {
		return err
	}

	cost := domain.SettlementCost(items, responses)
	posting := domain.Posting{
		PostingKey:  key,
		CompanyID:   op.CompanyID,
		OperationID: op.OperationID,
		Kind:        domain.PostingCostPayable,
		Amount:      cost,
		CreatedAt:   now,
		CreatedBy:   userID,
	}

	if cost.IsPositive() {
		titleID := uuid.NewSHA1(settlementNamespace, []byte(key)).String()
		title := domain.ApTitle{
			ApTitleID:        titleID,
			CompanyID:        op.CompanyID,
			CounterpartOrgID: factor.CounterpartOrgID,
			Amount:           cost,
			IssueDate:        settlementDate,
			DocumentNumber:   fmt.Sprintf("FO-%d", op.OperationNumber),
			Description:      fmt.Sprintf("Factoring costs of operation FO-%d (%s)", op.OperationNumber, factor.Name),
			CreatedAt:        now,
			CreatedBy:        userID,
		}
		if _, err := s.payables.CreateApTitle(ctx, title); err != nil {
			return fmt.Errorf("ap title: %w", err)
		}
		installment := domain.ApInstallment{
			ApInstallmentID:   uuid.NewSHA1(settlementNamespace, []byte(key+":1")).String(),
			ApTitleID:         titleID,
			InstallmentNumber: 1,
			Amount:            cost,
			DueDate:           settlementDate,
			CreatedAt:         now,
		}
		if _, err := s.payables.CreateApInstallment(ctx, installment); err != nil {
			return fmt.Errorf("ap installment: %w", err)
		}
		posting.ReferenceID = &titleID
	}

	created, err := s.postings.CreatePosting(ctx, posting)
	if err != nil {
		return fmt.Errorf("posting %s: %w", key, err)
	}
	s.Metrics.Posting(string(domain.PostingCostPayable), created)
	return nil
}

// ensureCustodyMovedByItem rejects a custody that is already settled when the move
// belongs to another item: a transfer posted by a different item after this one
// was added means the installment was settled elsewhere.
func (s *settlementService) ensureCustodyMovedByItem(ctx context.Context, item domain.OperationItem) error {
	postings, err := s.postings.ListPostingsByReference(ctx, item.InstallmentID)
	if err != nil {
		return fmt.Errorf("lookup postings of installment %s: %w", item.InstallmentID, err)
	}
	for _, p := range postings {
		if p.Kind != domain.PostingReceivableTransfer || p.ItemID == nil || *p.ItemID == item.ItemID {
			continue
		}
		if !p.CreatedAt.Before(item.CreatedAt) {
			return fmt.Errorf("%w: installment %s was already settled by operation %s",
				apperrors.ErrInvalidState, item.InstallmentID, p.OperationID)
		}
	}
	return nil
}

func (s *settlementService) isPosted(ctx context.Context, key string) (bool, error) {
	_, err := s.postings.FindPostingByKey(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("lookup posting %s: %w", key, err)
	}
}

// settlementFailure logs err and marks it retryable unless retrying cannot help.
func (s *settlementService) settlementFailure(ctx context.Context, op *domain.FactorOperation, stage string, err error) error {
	s.LogError(ctx, err, "Conclude failed",
		slog.String("operation_id", op.OperationID),
		slog.String("stage", stage))
	if errors.Is(err, apperrors.ErrInvalidState) {
		return err
	}
	return apperrors.NewRetryableError("settlement incomplete, retry conclude", err)
}

func (s *settlementService) loadOperation(ctx context.Context, companyID, operationID string) (*domain.FactorOperation, error) {
	op, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if op.CompanyID != companyID {
		return nil, fmt.Errorf("%w: operation %s", apperrors.ErrNotFound, operationID)
	}
	return op, nil
}

func (s *settlementService) result(ctx context.Context, op *domain.FactorOperation, idempotent bool) (*portssvc.ConcludeResult, error) {
	items, err := s.operationRepo.FindItemsByOperationID(ctx, op.OperationID)
	if err != nil {
		return nil, err
	}
	op.Items = items
	return &portssvc.ConcludeResult{Idempotent: idempotent, Operation: op}, nil
}
