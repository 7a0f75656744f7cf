package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingKind identifies which ledger a posting affected.
type PostingKind string

const (
	PostingReceivableTransfer PostingKind = "receivable_transfer"
	PostingCostPayable        PostingKind = "cost_payable"
)

// Posting marks a financial side-effect that has already been applied.
// The key is unique; its existence is the only guard against double application.
type Posting struct {
	PostingKey  string          `json:"postingKey"`
	CompanyID   string          `json:"companyID"`
	OperationID string          `json:"operationID"`
	ItemID      *string         `json:"itemID,omitempty"`
	Kind        PostingKind     `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID *string         `json:"referenceID,omitempty"` // installment or AP title affected
	CreatedAt   time.Time       `json:"createdAt"`
	CreatedBy   string          `json:"createdBy"`
}

// ItemPostingKey is the key of the receivable transfer for an operation item.
func ItemPostingKey(itemID string) string {
	return "discount:" + itemID
}

// CostPostingKey is the key of the aggregate cost payable of an operation.
func CostPostingKey(operationID string) string {
	return "cost:" + operationID
}
