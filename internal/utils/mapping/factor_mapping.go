package mapping

import (
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	"github.com/SscSPs/factor_ops_app/internal/models"
)

// ToModelRates flattens domain rates into their columns.
func ToModelRates(r domain.FactorRates) models.Rates {
	return models.Rates{
		InterestRate:  r.InterestRate,
		FeeRate:       r.FeeRate,
		IOFRate:       r.IOFRate,
		OtherCostRate: r.OtherCostRate,
		GraceDays:     r.GraceDays,
	}
}

// ToDomainRates converts rate columns to domain rates.
func ToDomainRates(m models.Rates) domain.FactorRates {
	return domain.FactorRates{
		InterestRate:  m.InterestRate,
		FeeRate:       m.FeeRate,
		IOFRate:       m.IOFRate,
		OtherCostRate: m.OtherCostRate,
		GraceDays:     m.GraceDays,
	}
}

// ToModelFactor converts a domain Factor to a model Factor
func ToModelFactor(d domain.Factor) models.Factor {
	return models.Factor{
		FactorID:                 d.FactorID,
		CompanyID:                d.CompanyID,
		CounterpartOrgID:         d.CounterpartOrgID,
		Name:                     d.Name,
		Code:                     d.Code,
		AutoSettleBuybackDefault: d.AutoSettleBuybackDefault,
		IsActive:                 d.IsActive,
		Rates:                    ToModelRates(d.Rates),
		AuditFields:              ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainFactor converts a model Factor to a domain Factor
func ToDomainFactor(m models.Factor) domain.Factor {
	return domain.Factor{
		FactorID:                 m.FactorID,
		CompanyID:                m.CompanyID,
		CounterpartOrgID:         m.CounterpartOrgID,
		Name:                     m.Name,
		Code:                     m.Code,
		Rates:                    ToDomainRates(m.Rates),
		AutoSettleBuybackDefault: m.AutoSettleBuybackDefault,
		IsActive:                 m.IsActive,
		AuditFields:              ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainFactorSlice converts a slice of model Factors to domain Factors
func ToDomainFactorSlice(ms []models.Factor) []domain.Factor {
	ds := make([]domain.Factor, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainFactor(m)
	}
	return ds
}
