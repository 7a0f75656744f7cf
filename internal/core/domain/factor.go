package domain

import "github.com/shopspring/decimal"

// FactorRates are the default cost rates a factor charges. Percentages are
// stored as plain numbers (2.5 means 2.5%).
type FactorRates struct {
	InterestRate  decimal.Decimal `json:"interestRate"`
	FeeRate       decimal.Decimal `json:"feeRate"`
	IOFRate       decimal.Decimal `json:"iofRate"`
	OtherCostRate decimal.Decimal `json:"otherCostRate"`
	GraceDays     int             `json:"graceDays"`
}

// Factor is a financing partner that buys receivables from the company.
type Factor struct {
	FactorID                 string      `json:"factorID"`
	CompanyID                string      `json:"companyID"`
	CounterpartOrgID         string      `json:"counterpartOrgID"` // payable counterpart for operation costs
	Name                     string      `json:"name"`
	Code                     string      `json:"code"`
	Rates                    FactorRates `json:"rates"`
	AutoSettleBuybackDefault bool        `json:"autoSettleBuybackDefault"`
	IsActive                 bool        `json:"isActive"`
	AuditFields
}
