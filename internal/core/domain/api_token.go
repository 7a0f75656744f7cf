package domain

import "time"

// APIToken authenticates machine clients, such as the job that imports a
// factor's return file, without an interactive JWT.
type APIToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"` // requests made with the token act as this user
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"` // Never expose the hash in JSON responses
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// IsExpired checks if the token has expired at now.
func (t *APIToken) IsExpired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.Before(now)
}

// IsUsable reports whether the token may authenticate a request at now.
func (t *APIToken) IsUsable(now time.Time) bool {
	return t.RevokedAt == nil && !t.IsExpired(now)
}
