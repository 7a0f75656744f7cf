package models

import (
	"github.com/shopspring/decimal"
)

// Rates are the cost-rate columns shared by factors and operations.
type Rates struct {
	InterestRate  decimal.Decimal `db:"interest_rate"`
	FeeRate       decimal.Decimal `db:"fee_rate"`
	IOFRate       decimal.Decimal `db:"iof_rate"`
	OtherCostRate decimal.Decimal `db:"other_cost_rate"`
	GraceDays     int             `db:"grace_days"`
}

// Factor is a row of factors.
type Factor struct {
	FactorID                 string `db:"factor_id"`
	CompanyID                string `db:"company_id"`
	CounterpartOrgID         string `db:"counterpart_org_id"`
	Name                     string `db:"name"`
	Code                     string `db:"code"`
	AutoSettleBuybackDefault bool   `db:"auto_settle_buyback_default"`
	IsActive                 bool   `db:"is_active"`
	Rates
	AuditFields
}
