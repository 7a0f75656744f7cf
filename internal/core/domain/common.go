package domain

import "time"

// AuditFields records who created an entity and who changed it last.
// User references are the subject of the caller's token.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// NewAuditFields stamps a freshly created entity.
func NewAuditFields(at time.Time, by string) AuditFields {
	return AuditFields{CreatedAt: at, CreatedBy: by, LastUpdatedAt: at, LastUpdatedBy: by}
}

// Touch records a change made by userID at time at.
func (a *AuditFields) Touch(at time.Time, by string) {
	a.LastUpdatedAt = at
	a.LastUpdatedBy = by
}
