package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArInstallment is a row of ar_installments, the receivables ledger.
type ArInstallment struct {
	InstallmentID       string          `db:"installment_id"`
	CompanyID           string          `db:"company_id"`
	ARTitleID           string          `db:"ar_title_id"`
	SalesDocumentID     string          `db:"sales_document_id"`
	CustomerID          string          `db:"customer_id"`
	InstallmentNumber   int             `db:"installment_number"`
	DueDate             time.Time       `db:"due_date"`
	AmountOpen          decimal.Decimal `db:"amount_open"`
	FactorCustodyStatus string          `db:"factor_custody_status"`
	FactorID            *string         `db:"factor_id"`
	UpdatedAt           time.Time       `db:"updated_at"`
}

// Posting is a row of factor_postings.
type Posting struct {
	PostingKey  string          `db:"posting_key"`
	CompanyID   string          `db:"company_id"`
	OperationID string          `db:"operation_id"`
	ItemID      *string         `db:"item_id"`
	Kind        string          `db:"kind"`
	Amount      decimal.Decimal `db:"amount"`
	ReferenceID *string         `db:"reference_id"`
	CreatedAt   time.Time       `db:"created_at"`
	CreatedBy   string          `db:"created_by"`
}

// AuditLog is a row of audit_logs. Details holds JSON.
type AuditLog struct {
	AuditLogID string    `db:"audit_log_id"`
	CompanyID  string    `db:"company_id"`
	UserID     string    `db:"user_id"`
	Action     string    `db:"action"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	Details    []byte    `db:"details"`
	CreatedAt  time.Time `db:"created_at"`
}
