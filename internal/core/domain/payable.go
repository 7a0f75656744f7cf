package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApTitle is a payable document registered in the payables ledger.
type ApTitle struct {
	ApTitleID        string          `json:"apTitleID"`
	CompanyID        string          `json:"companyID"`
	CounterpartOrgID string          `json:"counterpartOrgID"`
	Amount           decimal.Decimal `json:"amount"`
	IssueDate        time.Time       `json:"issueDate"`
	DocumentNumber   string          `json:"documentNumber"`
	Description      string          `json:"description"`
	CreatedAt        time.Time       `json:"createdAt"`
	CreatedBy        string          `json:"createdBy"`
}

// ApInstallment is a single due amount of an ApTitle.
type ApInstallment struct {
	ApInstallmentID   string          `json:"apInstallmentID"`
	ApTitleID         string          `json:"apTitleID"`
	InstallmentNumber int             `json:"installmentNumber"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"dueDate"`
	CreatedAt         time.Time       `json:"createdAt"`
}
