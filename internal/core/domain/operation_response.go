package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResponseStatus is the factor's verdict on a single item.
type ResponseStatus string

const (
	ResponseAccepted ResponseStatus = "accepted"
	ResponseRejected ResponseStatus = "rejected"
	ResponseAdjusted ResponseStatus = "adjusted"
)

// IsValid reports whether s is a known verdict.
func (s ResponseStatus) IsValid() bool {
	return s == ResponseAccepted || s == ResponseRejected || s == ResponseAdjusted
}

// OperationResponse is the factor's answer for one item of one version.
// (VersionID, ItemID) is the upsert key.
type OperationResponse struct {
	ResponseID      string           `json:"responseID"`
	VersionID       string           `json:"versionID"`
	ItemID          string           `json:"itemID"`
	Status          ResponseStatus   `json:"status"`
	Code            string           `json:"code"`
	Message         string           `json:"message"`
	AcceptedAmount  *decimal.Decimal `json:"acceptedAmount,omitempty"`
	AdjustedAmount  *decimal.Decimal `json:"adjustedAmount,omitempty"`
	AdjustedDueDate *time.Time       `json:"adjustedDueDate,omitempty"`
	FeeAmount       decimal.Decimal  `json:"feeAmount"`
	InterestAmount  decimal.Decimal  `json:"interestAmount"`
	IOFAmount       decimal.Decimal  `json:"iofAmount"`
	OtherCostAmount decimal.Decimal  `json:"otherCostAmount"`
	TotalCostAmount decimal.Decimal  `json:"totalCostAmount"`
	ImportedAt      time.Time        `json:"importedAt"`
	ProcessedBy     string           `json:"processedBy"`
}

// CostSum is fee + interest + IOF + other cost.
func (r OperationResponse) CostSum() decimal.Decimal {
	return r.FeeAmount.Add(r.InterestAmount).Add(r.IOFAmount).Add(r.OtherCostAmount)
}
