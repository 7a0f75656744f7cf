package dto

import (
	"time"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FactorRatesRequest carries the default cost rates of a factor, in percent.
type FactorRatesRequest struct {
	InterestRate  decimal.Decimal `json:"interestRate"`
	FeeRate       decimal.Decimal `json:"feeRate"`
	IOFRate       decimal.Decimal `json:"iofRate"`
	OtherCostRate decimal.Decimal `json:"otherCostRate"`
	GraceDays     int             `json:"graceDays" binding:"min=0"`
}

// ToDomain converts the request into domain rates.
func (r FactorRatesRequest) ToDomain() domain.FactorRates {
	return domain.FactorRates{
		InterestRate:  r.InterestRate,
		FeeRate:       r.FeeRate,
		IOFRate:       r.IOFRate,
		OtherCostRate: r.OtherCostRate,
		GraceDays:     r.GraceDays,
	}
}

// CreateFactorRequest defines data for registering a factor.
type CreateFactorRequest struct {
	Name                     string             `json:"name" binding:"required,max=200"`
	Code                     string             `json:"code" binding:"required,max=50"`
	CounterpartOrgID         string             `json:"counterpartOrgID" binding:"required"`
	Rates                    FactorRatesRequest `json:"rates"`
	AutoSettleBuybackDefault bool               `json:"autoSettleBuybackDefault"`
}

// UpdateFactorRequest defines the changes applied to a factor. Nil fields are left unchanged.
type UpdateFactorRequest struct {
	Name                     *string             `json:"name,omitempty" binding:"omitempty,max=200"`
	Code                     *string             `json:"code,omitempty" binding:"omitempty,max=50"`
	CounterpartOrgID         *string             `json:"counterpartOrgID,omitempty"`
	Rates                    *FactorRatesRequest `json:"rates,omitempty"`
	AutoSettleBuybackDefault *bool               `json:"autoSettleBuybackDefault,omitempty"`
	IsActive                 *bool               `json:"isActive,omitempty"`
}

// FactorResponse defines data returned for a factor.
type FactorResponse struct {
	FactorID                 string             `json:"factorID"`
	CompanyID                string             `json:"companyID"`
	CounterpartOrgID         string             `json:"counterpartOrgID"`
	Name                     string             `json:"name"`
	Code                     string             `json:"code"`
	Rates                    domain.FactorRates `json:"rates"`
	AutoSettleBuybackDefault bool               `json:"autoSettleBuybackDefault"`
	IsActive                 bool               `json:"isActive"`
	CreatedAt                time.Time          `json:"createdAt"`
	CreatedBy                string             `json:"createdBy"`
	LastUpdatedAt            time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy            string             `json:"lastUpdatedBy"`
}

// ToFactorResponse converts domain.Factor to DTO.
func ToFactorResponse(f *domain.Factor) FactorResponse {
	return FactorResponse{
		FactorID:                 f.FactorID,
		CompanyID:                f.CompanyID,
		CounterpartOrgID:         f.CounterpartOrgID,
		Name:                     f.Name,
		Code:                     f.Code,
		Rates:                    f.Rates,
		AutoSettleBuybackDefault: f.AutoSettleBuybackDefault,
		IsActive:                 f.IsActive,
		CreatedAt:                f.CreatedAt,
		CreatedBy:                f.CreatedBy,
		LastUpdatedAt:            f.LastUpdatedAt,
		LastUpdatedBy:            f.LastUpdatedBy,
	}
}

// ListFactorsResponse wraps a list of factors.
type ListFactorsResponse struct {
	Factors []FactorResponse `json:"factors"`
}

// ToListFactorsResponse converts a slice of domain.Factor to DTO.
func ToListFactorsResponse(fs []domain.Factor) ListFactorsResponse {
	list := make([]FactorResponse, len(fs))
	for i := range fs {
		list[i] = ToFactorResponse(&fs[i])
	}
	return ListFactorsResponse{Factors: list}
}
