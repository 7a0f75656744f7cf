package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/google/uuid"
)

// companyService implements the CompanySvcFacade interface
type companyService struct {
	BaseService
	companyRepo portsrepo.CompanyRepositoryFacade
}

// NewCompanyService creates a new company service. It is its own authorizer.
func NewCompanyService(companyRepo portsrepo.CompanyRepositoryFacade, opts ...Option) portssvc.CompanySvcFacade {
	svc := &companyService{companyRepo: companyRepo}
	svc.apply(opts)
	svc.CompanyAuthorizer = svc
	return svc
}

// Ensure companyService implements the CompanySvcFacade interface
var _ portssvc.CompanySvcFacade = (*companyService)(nil)

// FindCompanyByID retrieves a company the requesting user belongs to.
func (s *companyService) FindCompanyByID(ctx context.Context, companyID, requestingUserID string) (*domain.Company, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, companyID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find company by ID",
				slog.String("company_id", companyID))
		}
		return nil, err
	}
	return company, nil
}

// ListUserCompanies retrieves all companies a user belongs to
func (s *companyService) ListUserCompanies(ctx context.Context, userID string) ([]domain.Company, error) {
	companies, err := s.companyRepo.ListCompaniesByUserID(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list companies for user",
			slog.String("user_id", userID))
		return nil, err
	}
	if companies == nil {
		return []domain.Company{}, nil
	}

	s.LogDebug(ctx, "Companies listed successfully",
		slog.Int("count", len(companies)),
		slog.String("user_id", userID))
	return companies, nil
}

// CreateCompany creates a new company and makes the creator its admin.
func (s *companyService) CreateCompany(ctx context.Context, name, description, creatorUserID string) (*domain.Company, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: company name is required", apperrors.ErrValidation)
	}

	now := s.Now()
	company := domain.Company{
		CompanyID:   uuid.NewString(),
		Name:        name,
		Description: description,
		IsActive:    true,
		AuditFields: domain.NewAuditFields(now, creatorUserID),
	}

	if err := s.companyRepo.SaveCompany(ctx, company); err != nil {
		s.LogError(ctx, err, "Failed to save company",
			slog.String("company_name", name))
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	membership := domain.UserCompany{
		UserID:    creatorUserID,
		CompanyID: company.CompanyID,
		Role:      domain.RoleAdmin,
		JoinedAt:  now,
	}
	if err := s.companyRepo.AddUserToCompany(ctx, membership); err != nil {
		s.LogError(ctx, err, "Failed to add creator as admin to new company",
			slog.String("company_id", company.CompanyID),
			slog.String("user_id", creatorUserID))
		return nil, fmt.Errorf("failed to add creator to company: %w", err)
	}

	s.LogInfo(ctx, "Company created successfully",
		slog.String("company_id", company.CompanyID),
		slog.String("creator_id", creatorUserID))
	return &company, nil
}

// AddUserToCompany adds a user to a company with a specific role. Only admins may do this.
func (s *companyService) AddUserToCompany(ctx context.Context, addingUserID, targetUserID, companyID string, role domain.UserCompanyRole) (*domain.UserCompany, error) {
	if err := s.AuthorizeUserAction(ctx, addingUserID, companyID, domain.RoleAdmin); err != nil {
		s.LogError(ctx, err, "User not authorized to add members to company",
			slog.String("adding_user_id", addingUserID),
			slog.String("company_id", companyID))
		return nil, err
	}

	switch role {
	case domain.RoleAdmin, domain.RoleMember, domain.RoleReadOnly:
	default:
		return nil, fmt.Errorf("%w: invalid role %q", apperrors.ErrValidation, role)
	}

	membership := domain.UserCompany{
		UserID:    targetUserID,
		CompanyID: companyID,
		Role:      role,
		JoinedAt:  s.Now(),
	}
	if err := s.companyRepo.AddUserToCompany(ctx, membership); err != nil {
		s.LogError(ctx, err, "Failed to add user to company",
			slog.String("target_user_id", targetUserID),
			slog.String("company_id", companyID))
		return nil, err
	}

	s.LogInfo(ctx, "User added to company successfully",
		slog.String("target_user_id", targetUserID),
		slog.String("company_id", companyID),
		slog.String("role", string(role)))
	return &membership, nil
}

// AuthorizeUserAction checks if a user has at least requiredRole in a company.
func (s *companyService) AuthorizeUserAction(ctx context.Context, userID, companyID string, requiredRole domain.UserCompanyRole) error {
	membership, err := s.companyRepo.FindUserCompanyRole(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "User not a member of company",
				slog.String("user_id", userID),
				slog.String("company_id", companyID))
			return fmt.Errorf("%w: not a member of company", apperrors.ErrForbidden)
		}
		s.LogError(ctx, err, "Failed to find user company role",
			slog.String("user_id", userID),
			slog.String("company_id", companyID))
		return err
	}

	if !membership.Role.Satisfies(requiredRole) {
		s.LogDebug(ctx, "User does not have required role",
			slog.String("user_id", userID),
			slog.String("company_id", companyID),
			slog.String("user_role", string(membership.Role)),
			slog.String("required_role", string(requiredRole)))
		return fmt.Errorf("%w: role %s required", apperrors.ErrForbidden, requiredRole)
	}
	return nil
}
