package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PackageArtifacts are the identifiers of the transmission files built for a version.
type PackageArtifacts struct {
	SnapshotKey string `json:"snapshotKey"`
	CSVKey      string `json:"csvKey"`
	ReportKey   string `json:"reportKey"`
}

// FactorOperationVersion is the immutable record of what was sent to the factor.
// Versions are append-only.
type FactorOperationVersion struct {
	VersionID     string           `json:"versionID"`
	OperationID   string           `json:"operationID"`
	VersionNumber int              `json:"versionNumber"`
	SourceStatus  OperationStatus  `json:"sourceStatus"`
	TotalItems    int              `json:"totalItems"`
	GrossAmount   decimal.Decimal  `json:"grossAmount"`
	CostsAmount   decimal.Decimal  `json:"costsAmount"`
	NetAmount     decimal.Decimal  `json:"netAmount"`
	SnapshotJSON  json.RawMessage  `json:"snapshot"`
	Artifacts     PackageArtifacts `json:"artifacts"`
	SentAt        time.Time        `json:"sentAt"`
	SentBy        string           `json:"sentBy"`
}

// VersionSnapshot is the serialized legal record stored in snapshot_json.
type VersionSnapshot struct {
	VersionID              string          `json:"versionID"`
	OperationID            string          `json:"operationID"`
	CompanyID              string          `json:"companyID"`
	FactorID               string          `json:"factorID"`
	OperationNumber        int64           `json:"operationNumber"`
	Reference              string          `json:"reference"`
	IssueDate              time.Time       `json:"issueDate"`
	ExpectedSettlementDate *time.Time      `json:"expectedSettlementDate,omitempty"`
	VersionNumber          int             `json:"versionNumber"`
	SourceStatus           OperationStatus `json:"sourceStatus"`
	Rates                  FactorRates     `json:"rates"`
	GrossAmount            decimal.Decimal `json:"grossAmount"`
	CostsAmount            decimal.Decimal `json:"costsAmount"`
	NetAmount              decimal.Decimal `json:"netAmount"`
	Items                  []OperationItem `json:"items"`
}

// NewVersionSnapshot captures op and items as the next version of op.
func NewVersionSnapshot(op FactorOperation, items []OperationItem) VersionSnapshot {
	copied := make([]OperationItem, len(items))
	copy(copied, items)
	return VersionSnapshot{
		OperationID:            op.OperationID,
		CompanyID:              op.CompanyID,
		FactorID:               op.FactorID,
		OperationNumber:        op.OperationNumber,
		Reference:              op.Reference,
		IssueDate:              op.IssueDate,
		ExpectedSettlementDate: op.ExpectedSettlementDate,
		VersionNumber:          op.VersionCounter + 1,
		SourceStatus:           op.Status,
		Rates:                  op.Rates,
		GrossAmount:            op.GrossAmount,
		CostsAmount:            op.CostsAmount,
		NetAmount:              op.NetAmount,
		Items:                  copied,
	}
}
