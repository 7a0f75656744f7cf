package mapping

import (
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	"github.com/SscSPs/factor_ops_app/internal/models"
	"github.com/shopspring/decimal"
)

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

// ToModelFactorOperation converts a domain FactorOperation to a model FactorOperation
func ToModelFactorOperation(d domain.FactorOperation) models.FactorOperation {
	return models.FactorOperation{
		OperationID:            d.OperationID,
		CompanyID:              d.CompanyID,
		FactorID:               d.FactorID,
		OperationNumber:        d.OperationNumber,
		Reference:              d.Reference,
		IssueDate:              d.IssueDate,
		ExpectedSettlementDate: d.ExpectedSettlementDate,
		SettlementAccountID:    d.SettlementAccountID,
		Status:                 string(d.Status),
		GrossAmount:            d.GrossAmount,
		CostsAmount:            d.CostsAmount,
		NetAmount:              d.NetAmount,
		VersionCounter:         d.VersionCounter,
		CurrentVersionID:       d.CurrentVersionID,
		SentAt:                 d.SentAt,
		SentBy:                 d.SentBy,
		LastResponseAt:         d.LastResponseAt,
		LastResponseBy:         d.LastResponseBy,
		CompletedAt:            d.CompletedAt,
		CompletedBy:            d.CompletedBy,
		CancelledAt:            d.CancelledAt,
		CancelledBy:            d.CancelledBy,
		CancelReason:           d.CancelReason,
		SettlementStartedAt:    d.SettlementStartedAt,
		Notes:                  d.Notes,
		Rates:                  ToModelRates(d.Rates),
		AuditFields:            ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainFactorOperation converts a model FactorOperation to a domain FactorOperation
func ToDomainFactorOperation(m models.FactorOperation) domain.FactorOperation {
	return domain.FactorOperation{
		OperationID:            m.OperationID,
		CompanyID:              m.CompanyID,
		FactorID:               m.FactorID,
		OperationNumber:        m.OperationNumber,
		Reference:              m.Reference,
		IssueDate:              m.IssueDate,
		ExpectedSettlementDate: m.ExpectedSettlementDate,
		SettlementAccountID:    m.SettlementAccountID,
		Status:                 domain.OperationStatus(m.Status),
		GrossAmount:            m.GrossAmount,
		CostsAmount:            m.CostsAmount,
		NetAmount:              m.NetAmount,
		VersionCounter:         m.VersionCounter,
		CurrentVersionID:       m.CurrentVersionID,
		Rates:                  ToDomainRates(m.Rates),
		SentAt:                 m.SentAt,
		SentBy:                 m.SentBy,
		LastResponseAt:         m.LastResponseAt,
		LastResponseBy:         m.LastResponseBy,
		CompletedAt:            m.CompletedAt,
		CompletedBy:            m.CompletedBy,
		CancelledAt:            m.CancelledAt,
		CancelledBy:            m.CancelledBy,
		CancelReason:           m.CancelReason,
		SettlementStartedAt:    m.SettlementStartedAt,
		Notes:                  m.Notes,
		AuditFields:            ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainFactorOperationSlice converts a slice of model FactorOperations to domain FactorOperations
func ToDomainFactorOperationSlice(ms []models.FactorOperation) []domain.FactorOperation {
	ds := make([]domain.FactorOperation, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainFactorOperation(m)
	}
	return ds
}

// ToModelOperationItem flattens the item snapshot into its columns.
func ToModelOperationItem(d domain.OperationItem) models.OperationItem {
	return models.OperationItem{
		ItemID:            d.ItemID,
		OperationID:       d.OperationID,
		LineNo:            d.LineNo,
		ActionType:        string(d.ActionType),
		InstallmentID:     d.InstallmentID,
		ARTitleID:         d.ARTitleID,
		SalesDocumentID:   d.SalesDocumentID,
		CustomerID:        d.CustomerID,
		InstallmentNumber: d.Snapshot.InstallmentNumber,
		SnapshotDueDate:   d.Snapshot.DueDate,
		SnapshotAmount:    d.Snapshot.Amount,
		ProposedDueDate:   d.ProposedDueDate,
		BuybackSettleNow:  d.BuybackSettleNow,
		Status:            string(d.Status),
		FinalAmount:       toNullDecimal(d.FinalAmount),
		FinalDueDate:      d.FinalDueDate,
		Notes:             d.Notes,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainOperationItem converts a model OperationItem to a domain OperationItem
func ToDomainOperationItem(m models.OperationItem) domain.OperationItem {
	return domain.OperationItem{
		ItemID:          m.ItemID,
		OperationID:     m.OperationID,
		LineNo:          m.LineNo,
		ActionType:      domain.ActionType(m.ActionType),
		InstallmentID:   m.InstallmentID,
		ARTitleID:       m.ARTitleID,
		SalesDocumentID: m.SalesDocumentID,
		CustomerID:      m.CustomerID,
		Snapshot: domain.InstallmentSnapshot{
			InstallmentNumber: m.InstallmentNumber,
			DueDate:           m.SnapshotDueDate,
			Amount:            m.SnapshotAmount,
		},
		ProposedDueDate:  m.ProposedDueDate,
		BuybackSettleNow: m.BuybackSettleNow,
		Status:           domain.ItemStatus(m.Status),
		FinalAmount:      fromNullDecimal(m.FinalAmount),
		FinalDueDate:     m.FinalDueDate,
		Notes:            m.Notes,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainOperationItemSlice converts a slice of model OperationItems to domain OperationItems
func ToDomainOperationItemSlice(ms []models.OperationItem) []domain.OperationItem {
	ds := make([]domain.OperationItem, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainOperationItem(m)
	}
	return ds
}

// ToModelOperationVersion converts a domain FactorOperationVersion to a model OperationVersion
func ToModelOperationVersion(d domain.FactorOperationVersion) models.OperationVersion {
	return models.OperationVersion{
		VersionID:     d.VersionID,
		OperationID:   d.OperationID,
		VersionNumber: d.VersionNumber,
		SourceStatus:  string(d.SourceStatus),
		TotalItems:    d.TotalItems,
		GrossAmount:   d.GrossAmount,
		CostsAmount:   d.CostsAmount,
		NetAmount:     d.NetAmount,
		SnapshotJSON:  d.SnapshotJSON,
		SnapshotKey:   d.Artifacts.SnapshotKey,
		CSVKey:        d.Artifacts.CSVKey,
		ReportKey:     d.Artifacts.ReportKey,
		SentAt:        d.SentAt,
		SentBy:        d.SentBy,
	}
}

// ToDomainOperationVersion converts a model OperationVersion to a domain FactorOperationVersion
func ToDomainOperationVersion(m models.OperationVersion) domain.FactorOperationVersion {
	return domain.FactorOperationVersion{
		VersionID:     m.VersionID,
		OperationID:   m.OperationID,
		VersionNumber: m.VersionNumber,
		SourceStatus:  domain.OperationStatus(m.SourceStatus),
		TotalItems:    m.TotalItems,
		GrossAmount:   m.GrossAmount,
		CostsAmount:   m.CostsAmount,
		NetAmount:     m.NetAmount,
		SnapshotJSON:  m.SnapshotJSON,
		Artifacts: domain.PackageArtifacts{
			SnapshotKey: m.SnapshotKey,
			CSVKey:      m.CSVKey,
			ReportKey:   m.ReportKey,
		},
		SentAt: m.SentAt,
		SentBy: m.SentBy,
	}
}

// ToDomainOperationVersionSlice converts a slice of model OperationVersions to domain versions
func ToDomainOperationVersionSlice(ms []models.OperationVersion) []domain.FactorOperationVersion {
	ds := make([]domain.FactorOperationVersion, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainOperationVersion(m)
	}
	return ds
}

// ToModelOperationResponse converts a domain OperationResponse to a model OperationResponse
func ToModelOperationResponse(d domain.OperationResponse) models.OperationResponse {
	return models.OperationResponse{
		ResponseID:      d.ResponseID,
		VersionID:       d.VersionID,
		ItemID:          d.ItemID,
		Status:          string(d.Status),
		Code:            d.Code,
		Message:         d.Message,
		AcceptedAmount:  toNullDecimal(d.AcceptedAmount),
		AdjustedAmount:  toNullDecimal(d.AdjustedAmount),
		AdjustedDueDate: d.AdjustedDueDate,
		FeeAmount:       d.FeeAmount,
		InterestAmount:  d.InterestAmount,
		IOFAmount:       d.IOFAmount,
		OtherCostAmount: d.OtherCostAmount,
		TotalCostAmount: d.TotalCostAmount,
		ImportedAt:      d.ImportedAt,
		ProcessedBy:     d.ProcessedBy,
	}
}

// ToDomainOperationResponse converts a model OperationResponse to a domain OperationResponse
func ToDomainOperationResponse(m models.OperationResponse) domain.OperationResponse {
	return domain.OperationResponse{
		ResponseID:      m.ResponseID,
		VersionID:       m.VersionID,
		ItemID:          m.ItemID,
		Status:          domain.ResponseStatus(m.Status),
		Code:            m.Code,
		Message:         m.Message,
		AcceptedAmount:  fromNullDecimal(m.AcceptedAmount),
		AdjustedAmount:  fromNullDecimal(m.AdjustedAmount),
		AdjustedDueDate: m.AdjustedDueDate,
		FeeAmount:       m.FeeAmount,
		InterestAmount:  m.InterestAmount,
		IOFAmount:       m.IOFAmount,
		OtherCostAmount: m.OtherCostAmount,
		TotalCostAmount: m.TotalCostAmount,
		ImportedAt:      m.ImportedAt,
		ProcessedBy:     m.ProcessedBy,
	}
}

// ToDomainOperationResponseSlice converts a slice of model OperationResponses to domain responses
func ToDomainOperationResponseSlice(ms []models.OperationResponse) []domain.OperationResponse {
	ds := make([]domain.OperationResponse, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainOperationResponse(m)
	}
	return ds
}
