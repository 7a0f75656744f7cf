package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActionType says what an item asks the factor to do with an installment.
type ActionType string

const (
	ActionDiscount ActionType = "discount"
	ActionBuyback  ActionType = "buyback"
)

// IsValid reports whether a is a known action type.
func (a ActionType) IsValid() bool {
	return a == ActionDiscount || a == ActionBuyback
}

// RequiredCustody is the custody an installment must have to be offered with a.
func (a ActionType) RequiredCustody() CustodyStatus {
	if a == ActionBuyback {
		return CustodyWithFactor
	}
	return CustodyOwn
}

// SettledCustody is the custody an installment ends up in once a settles.
func (a ActionType) SettledCustody() CustodyStatus {
	if a == ActionBuyback {
		return CustodyRepurchased
	}
	return CustodyWithFactor
}

// ItemStatus is the reconciliation state of an operation item.
type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemAccepted ItemStatus = "accepted"
	ItemRejected ItemStatus = "rejected"
	ItemAdjusted ItemStatus = "adjusted"
)

// IsSettleable reports whether an item in this status is applied on conclusion.
func (s ItemStatus) IsSettleable() bool {
	return s == ItemAccepted || s == ItemAdjusted
}

// InstallmentSnapshot freezes the installment terms at selection time. It is a
// value copy so later changes to the installment never alter what was offered.
type InstallmentSnapshot struct {
	InstallmentNumber int             `json:"installmentNumber"`
	DueDate           time.Time       `json:"dueDate"`
	Amount            decimal.Decimal `json:"amount"`
}

// SnapshotOf copies the current terms of inst.
func SnapshotOf(inst EligibleInstallment) InstallmentSnapshot {
	return InstallmentSnapshot{
		InstallmentNumber: inst.InstallmentNumber,
		DueDate:           inst.DueDate,
		Amount:            inst.AmountOpen,
	}
}

// OperationItem is one receivable line inside a factor operation.
type OperationItem struct {
	ItemID           string              `json:"itemID"`
	OperationID      string              `json:"operationID"`
	LineNo           int                 `json:"lineNo"`
	ActionType       ActionType          `json:"actionType"`
	InstallmentID    string              `json:"installmentID"`
	ARTitleID        string              `json:"arTitleID"`
	SalesDocumentID  string              `json:"salesDocumentID"`
	CustomerID       string              `json:"customerID"`
	Snapshot         InstallmentSnapshot `json:"snapshot"`
	ProposedDueDate  *time.Time          `json:"proposedDueDate,omitempty"`
	BuybackSettleNow bool                `json:"buybackSettleNow"`
	Status           ItemStatus          `json:"status"`
	FinalAmount      *decimal.Decimal    `json:"finalAmount,omitempty"`
	FinalDueDate     *time.Time          `json:"finalDueDate,omitempty"`
	Notes            string              `json:"notes"`
	AuditFields
}

// ApplyResponse sets the item's final terms from the factor's verdict.
func (it *OperationItem) ApplyResponse(resp OperationResponse) {
	switch resp.Status {
	case ResponseAccepted:
		amount := it.Snapshot.Amount
		if resp.AcceptedAmount != nil {
			amount = *resp.AcceptedAmount
		}
		due := it.offeredDueDate()
		it.FinalAmount = &amount
		it.FinalDueDate = &due
		it.Status = ItemAccepted
	case ResponseAdjusted:
		amount := it.Snapshot.Amount
		if resp.AdjustedAmount != nil {
			amount = *resp.AdjustedAmount
		}
		due := it.offeredDueDate()
		if resp.AdjustedDueDate != nil {
			due = *resp.AdjustedDueDate
		}
		it.FinalAmount = &amount
		it.FinalDueDate = &due
		it.Status = ItemAdjusted
	case ResponseRejected:
		it.FinalAmount = nil
		it.FinalDueDate = nil
		it.Status = ItemRejected
	}
}

func (it *OperationItem) offeredDueDate() time.Time {
	if it.ProposedDueDate != nil {
		return *it.ProposedDueDate
	}
	return it.Snapshot.DueDate
}
