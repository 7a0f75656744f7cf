package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FactorOperation is a row of factor_operations.
type FactorOperation struct {
	OperationID            string          `db:"operation_id"`
	CompanyID              string          `db:"company_id"`
	FactorID               string          `db:"factor_id"`
	OperationNumber        int64           `db:"operation_number"`
	Reference              string          `db:"reference"`
	IssueDate              time.Time       `db:"issue_date"`
	ExpectedSettlementDate *time.Time      `db:"expected_settlement_date"`
	SettlementAccountID    *string         `db:"settlement_account_id"`
	Status                 string          `db:"status"`
	GrossAmount            decimal.Decimal `db:"gross_amount"`
	CostsAmount            decimal.Decimal `db:"costs_amount"`
	NetAmount              decimal.Decimal `db:"net_amount"`
	VersionCounter         int             `db:"version_counter"`
	CurrentVersionID       *string         `db:"current_version_id"`
	SentAt                 *time.Time      `db:"sent_at"`
	SentBy                 *string         `db:"sent_by"`
	LastResponseAt         *time.Time      `db:"last_response_at"`
	LastResponseBy         *string         `db:"last_response_by"`
	CompletedAt            *time.Time      `db:"completed_at"`
	CompletedBy            *string         `db:"completed_by"`
	CancelledAt            *time.Time      `db:"cancelled_at"`
	CancelledBy            *string         `db:"cancelled_by"`
	CancelReason           *string         `db:"cancel_reason"`
	SettlementStartedAt    *time.Time      `db:"settlement_started_at"`
	Notes                  string          `db:"notes"`
	Rates
	AuditFields
}

// OperationItem is a row of factor_operation_items.
type OperationItem struct {
	ItemID            string              `db:"item_id"`
	OperationID       string              `db:"operation_id"`
	LineNo            int                 `db:"line_no"`
	ActionType        string              `db:"action_type"`
	InstallmentID     string              `db:"installment_id"`
	ARTitleID         string              `db:"ar_title_id"`
	SalesDocumentID   string              `db:"sales_document_id"`
	CustomerID        string              `db:"customer_id"`
	InstallmentNumber int                 `db:"snapshot_installment_number"`
	SnapshotDueDate   time.Time           `db:"snapshot_due_date"`
	SnapshotAmount    decimal.Decimal     `db:"snapshot_amount"`
	ProposedDueDate   *time.Time          `db:"proposed_due_date"`
	BuybackSettleNow  bool                `db:"buyback_settle_now"`
	Status            string              `db:"status"`
	FinalAmount       decimal.NullDecimal `db:"final_amount"`
	FinalDueDate      *time.Time          `db:"final_due_date"`
	Notes             string              `db:"notes"`
	AuditFields
}

// OperationVersion is a row of factor_operation_versions.
type OperationVersion struct {
	VersionID     string          `db:"version_id"`
	OperationID   string          `db:"operation_id"`
	VersionNumber int             `db:"version_number"`
	SourceStatus  string          `db:"source_status"`
	TotalItems    int             `db:"total_items"`
	GrossAmount   decimal.Decimal `db:"gross_amount"`
	CostsAmount   decimal.Decimal `db:"costs_amount"`
	NetAmount     decimal.Decimal `db:"net_amount"`
	SnapshotJSON  []byte          `db:"snapshot_json"`
	SnapshotKey   string          `db:"snapshot_key"`
	CSVKey        string          `db:"csv_key"`
	ReportKey     string          `db:"report_key"`
	SentAt        time.Time       `db:"sent_at"`
	SentBy        string          `db:"sent_by"`
}

// OperationResponse is a row of factor_operation_responses.
type OperationResponse struct {
	ResponseID      string              `db:"response_id"`
	VersionID       string              `db:"version_id"`
	ItemID          string              `db:"item_id"`
	Status          string              `db:"response_status"`
	Code            string              `db:"code"`
	Message         string              `db:"message"`
	AcceptedAmount  decimal.NullDecimal `db:"accepted_amount"`
	AdjustedAmount  decimal.NullDecimal `db:"adjusted_amount"`
	AdjustedDueDate *time.Time          `db:"adjusted_due_date"`
	FeeAmount       decimal.Decimal     `db:"fee_amount"`
	InterestAmount  decimal.Decimal     `db:"interest_amount"`
	IOFAmount       decimal.Decimal     `db:"iof_amount"`
	OtherCostAmount decimal.Decimal     `db:"other_cost_amount"`
	TotalCostAmount decimal.Decimal     `db:"total_cost_amount"`
	ImportedAt      time.Time           `db:"imported_at"`
	ProcessedBy     string              `db:"processed_by"`
}
