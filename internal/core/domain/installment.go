package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustodyStatus says which party holds the collection rights of an installment.
type CustodyStatus string

const (
	CustodyOwn         CustodyStatus = "own"
	CustodyWithFactor  CustodyStatus = "with_factor"
	CustodyRepurchased CustodyStatus = "repurchased"
)

// CanMoveTo reports whether custody may go from c to next. Custody never moves backward.
func (c CustodyStatus) CanMoveTo(next CustodyStatus) bool {
	switch c {
	case CustodyOwn:
		return next == CustodyWithFactor
	case CustodyWithFactor:
		return next == CustodyRepurchased
	default:
		return false
	}
}

// EligibleInstallment is a receivable installment as seen by the factoring engine.
// The receivables ledger owns it; only custody, factor and due date are written here.
type EligibleInstallment struct {
	InstallmentID     string          `json:"installmentID"`
	CompanyID         string          `json:"companyID"`
	ARTitleID         string          `json:"arTitleID"`
	SalesDocumentID   string          `json:"salesDocumentID"`
	CustomerID        string          `json:"customerID"`
	InstallmentNumber int             `json:"installmentNumber"`
	DueDate           time.Time       `json:"dueDate"`
	AmountOpen        decimal.Decimal `json:"amountOpen"`
	CustodyStatus     CustodyStatus   `json:"custodyStatus"`
	FactorID          *string         `json:"factorID,omitempty"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// CustodyChange describes a compare-and-swap move of an installment's custody.
type CustodyChange struct {
	InstallmentID string
	From          CustodyStatus
	To            CustodyStatus
	FactorID      *string
	DueDate       *time.Time // set when the factor adjusted the due date
}
