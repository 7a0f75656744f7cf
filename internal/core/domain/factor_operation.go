package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationStatus is the lifecycle state of a factor operation.
type OperationStatus string

const (
	OperationDraft        OperationStatus = "draft"
	OperationSentToFactor OperationStatus = "sent_to_factor"
	OperationCompleted    OperationStatus = "completed"
	OperationCancelled    OperationStatus = "cancelled"
)

// operationTransitions lists, for every non-terminal status, the statuses it may move to.
var operationTransitions = map[OperationStatus][]OperationStatus{
	OperationDraft:        {OperationSentToFactor, OperationCancelled},
	OperationSentToFactor: {OperationCompleted, OperationCancelled},
}

// IsValid reports whether s is a known status.
func (s OperationStatus) IsValid() bool {
	switch s {
	case OperationDraft, OperationSentToFactor, OperationCompleted, OperationCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s OperationStatus) IsTerminal() bool {
	return s == OperationCompleted || s == OperationCancelled
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s OperationStatus) CanTransitionTo(next OperationStatus) bool {
	for _, allowed := range operationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which to is reachable in one step.
// It is the "expected current status" set of a compare-and-swap update.
func TransitionSources(to OperationStatus) []OperationStatus {
	var sources []OperationStatus
	for _, from := range []OperationStatus{OperationDraft, OperationSentToFactor} {
		if from.CanTransitionTo(to) {
			sources = append(sources, from)
		}
	}
	return sources
}

// FactorOperation is one batch of receivables transmitted to a factor.
type FactorOperation struct {
	OperationID            string          `json:"operationID"`
	CompanyID              string          `json:"companyID"`
	FactorID               string          `json:"factorID"`
	OperationNumber        int64           `json:"operationNumber"`
	Reference              string          `json:"reference"`
	IssueDate              time.Time       `json:"issueDate"`
	ExpectedSettlementDate *time.Time      `json:"expectedSettlementDate,omitempty"`
	SettlementAccountID    *string         `json:"settlementAccountID,omitempty"`
	Status                 OperationStatus `json:"status"`
	GrossAmount            decimal.Decimal `json:"grossAmount"`
	CostsAmount            decimal.Decimal `json:"costsAmount"`
	NetAmount              decimal.Decimal `json:"netAmount"`
	VersionCounter         int             `json:"versionCounter"`
	CurrentVersionID       *string         `json:"currentVersionID,omitempty"`
	Rates                  FactorRates     `json:"rates"` // copied from the factor at creation
	SentAt                 *time.Time      `json:"sentAt,omitempty"`
	SentBy                 *string         `json:"sentBy,omitempty"`
	LastResponseAt         *time.Time      `json:"lastResponseAt,omitempty"`
	LastResponseBy         *string         `json:"lastResponseBy,omitempty"`
	CompletedAt            *time.Time      `json:"completedAt,omitempty"`
	CompletedBy            *string         `json:"completedBy,omitempty"`
	CancelledAt            *time.Time      `json:"cancelledAt,omitempty"`
	CancelledBy            *string         `json:"cancelledBy,omitempty"`
	CancelReason           *string         `json:"cancelReason,omitempty"`
	SettlementStartedAt    *time.Time      `json:"settlementStartedAt,omitempty"` // set by the first conclude attempt
	Notes                  string          `json:"notes"`
	AuditFields

	Items []OperationItem `json:"items,omitempty"`
}

// HasCurrentVersion reports whether versionID is the operation's current version.
func (o *FactorOperation) HasCurrentVersion(versionID string) bool {
	return o.CurrentVersionID != nil && *o.CurrentVersionID == versionID
}

// SettlementStarted reports whether a conclude has begun applying postings.
// Such an operation can only move forward to completed.
func (o *FactorOperation) SettlementStarted() bool {
	return o.SettlementStartedAt != nil
}

// OperationTotals holds the running totals of an operation.
type OperationTotals struct {
	Gross decimal.Decimal
	Costs decimal.Decimal
	Net   decimal.Decimal
}

// DraftTotals sums the frozen snapshot amounts of every current item.
func DraftTotals(items []OperationItem) OperationTotals {
	gross := decimal.Zero
	for _, item := range items {
		gross = gross.Add(item.Snapshot.Amount)
	}
	return OperationTotals{Gross: gross, Costs: decimal.Zero, Net: gross}
}

// ReconciledTotals recomputes totals after responses were applied: gross over
// accepted/adjusted final amounts, costs over every response.
func ReconciledTotals(items []OperationItem, responses []OperationResponse) OperationTotals {
	gross := decimal.Zero
	for _, item := range items {
		if item.Status.IsSettleable() && item.FinalAmount != nil {
			gross = gross.Add(*item.FinalAmount)
		}
	}
	costs := decimal.Zero
	for _, resp := range responses {
		costs = costs.Add(resp.CostSum())
	}
	return OperationTotals{Gross: gross, Costs: costs, Net: gross.Sub(costs)}
}

// SettlementCost sums the costs charged on the items that will actually be settled.
func SettlementCost(items []OperationItem, responses []OperationResponse) decimal.Decimal {
	settleable := make(map[string]bool, len(items))
	for _, item := range items {
		if item.Status.IsSettleable() {
			settleable[item.ItemID] = true
		}
	}
	total := decimal.Zero
	for _, resp := range responses {
		if settleable[resp.ItemID] {
			total = total.Add(resp.CostSum())
		}
	}
	return total
}
