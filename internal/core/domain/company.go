package domain

import "time"

// Company is the tenant that owns factors, operations and ledgers.
type Company struct {
	CompanyID   string `json:"companyID"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
	AuditFields
}

// UserCompanyRole defines the possible roles a user can have within a company.
type UserCompanyRole string

const (
	RoleAdmin    UserCompanyRole = "ADMIN"
	RoleMember   UserCompanyRole = "MEMBER"
	RoleReadOnly UserCompanyRole = "READONLY" // Users with read-only access to company data
	RoleRemoved  UserCompanyRole = "REMOVED"  // For users who have been removed from the company
)

// UserCompany represents the membership of a user in a company.
type UserCompany struct {
	UserID    string          `json:"userID"`
	CompanyID string          `json:"companyID"`
	Role      UserCompanyRole `json:"role"`
	JoinedAt  time.Time       `json:"joinedAt"`
}

// Satisfies reports whether role meets or exceeds required.
func (role UserCompanyRole) Satisfies(required UserCompanyRole) bool {
	switch required {
	case RoleReadOnly:
		return role == RoleReadOnly || role == RoleMember || role == RoleAdmin
	case RoleMember:
		return role == RoleMember || role == RoleAdmin
	case RoleAdmin:
		return role == RoleAdmin
	default:
		return false
	}
}
