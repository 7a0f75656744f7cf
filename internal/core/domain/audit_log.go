package domain

import "time"

// Audit entity types and actions written by the factoring engine.
const (
	AuditEntityOperation = "factor_operation"

	AuditActionOperationSent      = "factor_operation.sent"
	AuditActionOperationCancelled = "factor_operation.cancelled"
	AuditActionOperationConcluded = "factor_operation.concluded"
)

// AuditLog is an append-only audit trail entry.
type AuditLog struct {
	AuditLogID string         `json:"auditLogID"`
	CompanyID  string         `json:"companyID"`
	UserID     string         `json:"userID"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityID"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"createdAt"`
}
