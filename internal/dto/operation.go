package dto

import (
	"encoding/json"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// --- Factor Operation DTOs ---

// CreateOperationRequest defines data for opening a draft operation.
type CreateOperationRequest struct {
	FactorID               string     `json:"factorID" binding:"required"`
	Reference              string     `json:"reference" binding:"max=100"`
	IssueDate              time.Time  `json:"issueDate" binding:"required"`
	ExpectedSettlementDate *time.Time `json:"expectedSettlementDate,omitempty"`
	SettlementAccountID    *string    `json:"settlementAccountID,omitempty"`
	Notes                  string     `json:"notes"`
}

// ListOperationsParams defines query parameters for listing operations.
type ListOperationsParams struct {
	Status        string     `form:"status" binding:"omitempty,oneof=draft sent_to_factor completed cancelled"`
	FactorID      string     `form:"factorID"`
	IssueDateFrom *time.Time `form:"issueDateFrom" time_format:"2006-01-02"`
	IssueDateTo   *time.Time `form:"issueDateTo" time_format:"2006-01-02"`
	Limit         int        `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken     *string    `form:"nextToken"`
}

// CancelOperationRequest defines data for cancelling an operation.
type CancelOperationRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ConcludeOperationRequest defines data for settling an operation.
type ConcludeOperationRequest struct {
	SettlementDate time.Time `json:"settlementDate" binding:"required"`
}

// AddOperationItemRequest defines data for placing an installment on a draft operation.
type AddOperationItemRequest struct {
	ActionType       domain.ActionType `json:"actionType" binding:"required,oneof=discount buyback"`
	InstallmentID    string            `json:"installmentID" binding:"required"`
	ProposedDueDate  *time.Time        `json:"proposedDueDate,omitempty"`
	BuybackSettleNow *bool             `json:"buybackSettleNow,omitempty"`
	Notes            string            `json:"notes"`
}

// ResponseEntry is the factor's verdict on one item, as imported from its return file.
type ResponseEntry struct {
	ItemID          string           `json:"itemID" validate:"required"`
	Status          string           `json:"status" validate:"required,oneof=accepted rejected adjusted"`
	Code            string           `json:"code" validate:"max=50"`
	Message         string           `json:"message" validate:"max=500"`
	AcceptedAmount  *decimal.Decimal `json:"acceptedAmount,omitempty"`
	AdjustedAmount  *decimal.Decimal `json:"adjustedAmount,omitempty" validate:"required_if=Status adjusted"`
	AdjustedDueDate *time.Time       `json:"adjustedDueDate,omitempty"`
	FeeAmount       decimal.Decimal  `json:"feeAmount"`
	InterestAmount  decimal.Decimal  `json:"interestAmount"`
	IOFAmount       decimal.Decimal  `json:"iofAmount"`
	OtherCostAmount decimal.Decimal  `json:"otherCostAmount"`
	TotalCostAmount *decimal.Decimal `json:"totalCostAmount,omitempty"`
}

// ApplyResponsesRequest carries the responses for the operation's current version.
type ApplyResponsesRequest struct {
	VersionID string          `json:"versionID" binding:"required" validate:"required"`
	Responses []ResponseEntry `json:"responses" binding:"required,min=1" validate:"required,min=1,dive"`
}

// OperationItemResponse defines data returned for an operation item.
type OperationItemResponse struct {
	ItemID            string            `json:"itemID"`
	LineNo            int               `json:"lineNo"`
	ActionType        domain.ActionType `json:"actionType"`
	InstallmentID     string            `json:"installmentID"`
	ARTitleID         string            `json:"arTitleID"`
	SalesDocumentID   string            `json:"salesDocumentID"`
	CustomerID        string            `json:"customerID"`
	InstallmentNumber int               `json:"installmentNumberSnapshot"`
	DueDateSnapshot   time.Time         `json:"dueDateSnapshot"`
	AmountSnapshot    decimal.Decimal   `json:"amountSnapshot"`
	ProposedDueDate   *time.Time        `json:"proposedDueDate,omitempty"`
	BuybackSettleNow  bool              `json:"buybackSettleNow"`
	Status            domain.ItemStatus `json:"status"`
	FinalAmount       *decimal.Decimal  `json:"finalAmount,omitempty"`
	FinalDueDate      *time.Time        `json:"finalDueDate,omitempty"`
	Notes             string            `json:"notes"`
}

// ToOperationItemResponse converts domain.OperationItem to DTO.
func ToOperationItemResponse(it *domain.OperationItem) OperationItemResponse {
	return OperationItemResponse{
		ItemID:            it.ItemID,
		LineNo:            it.LineNo,
		ActionType:        it.ActionType,
		InstallmentID:     it.InstallmentID,
		ARTitleID:         it.ARTitleID,
		SalesDocumentID:   it.SalesDocumentID,
		CustomerID:        it.CustomerID,
		InstallmentNumber: it.Snapshot.InstallmentNumber,
		DueDateSnapshot:   it.Snapshot.DueDate,
		AmountSnapshot:    it.Snapshot.Amount,
		ProposedDueDate:   it.ProposedDueDate,
		BuybackSettleNow:  it.BuybackSettleNow,
		Status:            it.Status,
		FinalAmount:       it.FinalAmount,
		FinalDueDate:      it.FinalDueDate,
		Notes:             it.Notes,
	}
}

// OperationResponse defines data returned for a factor operation.
type OperationResponse struct {
	OperationID            string                  `json:"operationID"`
	CompanyID              string                  `json:"companyID"`
	FactorID               string                  `json:"factorID"`
	OperationNumber        int64                   `json:"operationNumber"`
	Reference              string                  `json:"reference"`
	IssueDate              time.Time               `json:"issueDate"`
	ExpectedSettlementDate *time.Time              `json:"expectedSettlementDate,omitempty"`
	SettlementAccountID    *string                 `json:"settlementAccountID,omitempty"`
	Status                 domain.OperationStatus  `json:"status"`
	GrossAmount            decimal.Decimal         `json:"grossAmount"`
	CostsAmount            decimal.Decimal         `json:"costsAmount"`
	NetAmount              decimal.Decimal         `json:"netAmount"`
	VersionCounter         int                     `json:"versionCounter"`
	CurrentVersionID       *string                 `json:"currentVersionID,omitempty"`
	Rates                  domain.FactorRates      `json:"rates"`
	SentAt                 *time.Time              `json:"sentAt,omitempty"`
	SentBy                 *string                 `json:"sentBy,omitempty"`
	LastResponseAt         *time.Time              `json:"lastResponseAt,omitempty"`
	CompletedAt            *time.Time              `json:"completedAt,omitempty"`
	CompletedBy            *string                 `json:"completedBy,omitempty"`
	CancelledAt            *time.Time              `json:"cancelledAt,omitempty"`
	CancelledBy            *string                 `json:"cancelledBy,omitempty"`
	CancelReason           *string                 `json:"cancelReason,omitempty"`
	Notes                  string                  `json:"notes"`
	CreatedAt              time.Time               `json:"createdAt"`
	CreatedBy              string                  `json:"createdBy"`
	Items                  []OperationItemResponse `json:"items,omitempty"`
}

// ToOperationResponse converts domain.FactorOperation to DTO, including any loaded items.
func ToOperationResponse(op *domain.FactorOperation) OperationResponse {
	resp := OperationResponse{
		OperationID:            op.OperationID,
		CompanyID:              op.CompanyID,
		FactorID:               op.FactorID,
		OperationNumber:        op.OperationNumber,
		Reference:              op.Reference,
		IssueDate:              op.IssueDate,
		ExpectedSettlementDate: op.ExpectedSettlementDate,
		SettlementAccountID:    op.SettlementAccountID,
		Status:                 op.Status,
		GrossAmount:            op.GrossAmount,
		CostsAmount:            op.CostsAmount,
		NetAmount:              op.NetAmount,
		VersionCounter:         op.VersionCounter,
		CurrentVersionID:       op.CurrentVersionID,
		Rates:                  op.Rates,
		SentAt:                 op.SentAt,
		SentBy:                 op.SentBy,
		LastResponseAt:         op.LastResponseAt,
		CompletedAt:            op.CompletedAt,
		CompletedBy:            op.CompletedBy,
		CancelledAt:            op.CancelledAt,
		CancelledBy:            op.CancelledBy,
		CancelReason:           op.CancelReason,
		Notes:                  op.Notes,
		CreatedAt:              op.CreatedAt,
		CreatedBy:              op.CreatedBy,
	}
	if len(op.Items) > 0 {
		resp.Items = make([]OperationItemResponse, len(op.Items))
		for i := range op.Items {
			resp.Items[i] = ToOperationItemResponse(&op.Items[i])
		}
	}
	return resp
}

// ListOperationsResponse wraps a page of operations.
type ListOperationsResponse struct {
	Operations []OperationResponse `json:"operations"`
	NextToken  *string             `json:"nextToken,omitempty"`
}

// ToListOperationsResponse converts a page of domain.FactorOperation to DTO.
func ToListOperationsResponse(ops []domain.FactorOperation, nextToken *string) *ListOperationsResponse {
	list := make([]OperationResponse, len(ops))
	for i := range ops {
		list[i] = ToOperationResponse(&ops[i])
	}
	return &ListOperationsResponse{Operations: list, NextToken: nextToken}
}

// ConcludeOperationResponse is returned by the conclude endpoint.
type ConcludeOperationResponse struct {
	Idempotent bool              `json:"idempotent"`
	Operation  OperationResponse `json:"operation"`
}

// --- Versions, responses and postings ---

// VersionResponse defines data returned for an operation version.
type VersionResponse struct {
	VersionID     string                  `json:"versionID"`
	OperationID   string                  `json:"operationID"`
	VersionNumber int                     `json:"versionNumber"`
	SourceStatus  domain.OperationStatus  `json:"sourceStatus"`
	TotalItems    int                     `json:"totalItems"`
	GrossAmount   decimal.Decimal         `json:"grossAmount"`
	CostsAmount   decimal.Decimal         `json:"costsAmount"`
	NetAmount     decimal.Decimal         `json:"netAmount"`
	Artifacts     domain.PackageArtifacts `json:"artifacts"`
	SentAt        time.Time               `json:"sentAt"`
	SentBy        string                  `json:"sentBy"`
	Snapshot      json.RawMessage         `json:"snapshot,omitempty"`
}

// ToVersionResponse converts domain.FactorOperationVersion to DTO. The snapshot
// is only included when withSnapshot is set.
func ToVersionResponse(v *domain.FactorOperationVersion, withSnapshot bool) VersionResponse {
	resp := VersionResponse{
		VersionID:     v.VersionID,
		OperationID:   v.OperationID,
		VersionNumber: v.VersionNumber,
		SourceStatus:  v.SourceStatus,
		TotalItems:    v.TotalItems,
		GrossAmount:   v.GrossAmount,
		CostsAmount:   v.CostsAmount,
		NetAmount:     v.NetAmount,
		Artifacts:     v.Artifacts,
		SentAt:        v.SentAt,
		SentBy:        v.SentBy,
	}
	if withSnapshot {
		resp.Snapshot = v.SnapshotJSON
	}
	return resp
}

// ToVersionResponses converts a slice of versions without their snapshots.
func ToVersionResponses(vs []domain.FactorOperationVersion) []VersionResponse {
	list := make([]VersionResponse, len(vs))
	for i := range vs {
		list[i] = ToVersionResponse(&vs[i], false)
	}
	return list
}

// PostingResponse defines data returned for a posting.
type PostingResponse struct {
	PostingKey  string             `json:"postingKey"`
	Kind        domain.PostingKind `json:"kind"`
	ItemID      *string            `json:"itemID,omitempty"`
	Amount      decimal.Decimal    `json:"amount"`
	ReferenceID *string            `json:"referenceID,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	CreatedBy   string             `json:"createdBy"`
}

// ToPostingResponses converts a slice of domain.Posting to DTO.
func ToPostingResponses(ps []domain.Posting) []PostingResponse {
	list := make([]PostingResponse, len(ps))
	for i, p := range ps {
		list[i] = PostingResponse{
			PostingKey:  p.PostingKey,
			Kind:        p.Kind,
			ItemID:      p.ItemID,
			Amount:      p.Amount,
			ReferenceID: p.ReferenceID,
			CreatedAt:   p.CreatedAt,
			CreatedBy:   p.CreatedBy,
		}
	}
	return list
}
