package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	"github.com/SscSPs/factor_ops_app/internal/models"
)

// ToDomainInstallment converts an ar_installments row to the engine's view of it.
func ToDomainInstallment(m models.ArInstallment) domain.EligibleInstallment {
	return domain.EligibleInstallment{
		InstallmentID:     m.InstallmentID,
		CompanyID:         m.CompanyID,
		ARTitleID:         m.ARTitleID,
		SalesDocumentID:   m.SalesDocumentID,
		CustomerID:        m.CustomerID,
		InstallmentNumber: m.InstallmentNumber,
		DueDate:           m.DueDate,
		AmountOpen:        m.AmountOpen,
		CustodyStatus:     domain.CustodyStatus(m.FactorCustodyStatus),
		FactorID:          m.FactorID,
		UpdatedAt:         m.UpdatedAt,
	}
}

// ToDomainInstallmentSlice converts a slice of ar_installments rows
func ToDomainInstallmentSlice(ms []models.ArInstallment) []domain.EligibleInstallment {
	ds := make([]domain.EligibleInstallment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainInstallment(m)
	}
	return ds
}

// ToModelPosting converts a domain Posting to a model Posting
func ToModelPosting(d domain.Posting) models.Posting {
	return models.Posting{
		PostingKey:  d.PostingKey,
		CompanyID:   d.CompanyID,
		OperationID: d.OperationID,
		ItemID:      d.ItemID,
		Kind:        string(d.Kind),
		Amount:      d.Amount,
		ReferenceID: d.ReferenceID,
		CreatedAt:   d.CreatedAt,
		CreatedBy:   d.CreatedBy,
	}
}

// ToDomainPosting converts a model Posting to a domain Posting
func ToDomainPosting(m models.Posting) domain.Posting {
	return domain.Posting{
		PostingKey:  m.PostingKey,
		CompanyID:   m.CompanyID,
		OperationID: m.OperationID,
		ItemID:      m.ItemID,
		Kind:        domain.PostingKind(m.Kind),
		Amount:      m.Amount,
		ReferenceID: m.ReferenceID,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}

// ToDomainPostingSlice converts a slice of model Postings to domain Postings
func ToDomainPostingSlice(ms []models.Posting) []domain.Posting {
	ds := make([]domain.Posting, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPosting(m)
	}
	return ds
}

// ToModelAuditLog encodes the details as JSON.
func ToModelAuditLog(d domain.AuditLog) (models.AuditLog, error) {
	details := []byte("{}")
	if len(d.Details) > 0 {
		b, err := json.Marshal(d.Details)
		if err != nil {
			return models.AuditLog{}, fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = b
	}
	return models.AuditLog{
		AuditLogID: d.AuditLogID,
		CompanyID:  d.CompanyID,
		UserID:     d.UserID,
		Action:     d.Action,
		EntityType: d.EntityType,
		EntityID:   d.EntityID,
		Details:    details,
		CreatedAt:  d.CreatedAt,
	}, nil
}

// ToDomainAuditLog decodes the JSON details of an audit row.
func ToDomainAuditLog(m models.AuditLog) (domain.AuditLog, error) {
	var details map[string]any
	if len(m.Details) > 0 {
		if err := json.Unmarshal(m.Details, &details); err != nil {
			return domain.AuditLog{}, fmt.Errorf("failed to decode audit details of %s: %w", m.AuditLogID, err)
		}
	}
	return domain.AuditLog{
		AuditLogID: m.AuditLogID,
		CompanyID:  m.CompanyID,
		UserID:     m.UserID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Details:    details,
		CreatedAt:  m.CreatedAt,
	}, nil
}
