package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/stretchr/testify/mock"
)

type MockCompanyService struct {
	mock.Mock
}

func (m *MockCompanyService) FindCompanyByID(ctx context.Context, companyID, requestingUserID string) (*domain.Company, error) {
	args := m.Called(ctx, companyID, requestingUserID)
	company, _ := args.Get(0).(*domain.Company)
	return company, args.Error(1)
}

func (m *MockCompanyService) ListUserCompanies(ctx context.Context, userID string) ([]domain.Company, error) {
	args := m.Called(ctx, userID)
	companies, _ := args.Get(0).([]domain.Company)
	return companies, args.Error(1)
}

func (m *MockCompanyService) CreateCompany(ctx context.Context, name, description, creatorUserID string) (*domain.Company, error) {
	args := m.Called(ctx, name, description, creatorUserID)
	company, _ := args.Get(0).(*domain.Company)
	return company, args.Error(1)
}

func (m *MockCompanyService) AddUserToCompany(ctx context.Context, addingUserID, targetUserID, companyID string, role domain.UserCompanyRole) (*domain.UserCompany, error) {
	args := m.Called(ctx, addingUserID, targetUserID, companyID, role)
	uc, _ := args.Get(0).(*domain.UserCompany)
	return uc, args.Error(1)
}

func (m *MockCompanyService) AuthorizeUserAction(ctx context.Context, userID, companyID string, requiredRole domain.UserCompanyRole) error {
	return m.Called(ctx, userID, companyID, requiredRole).Error(0)
}

type MockFactorService struct {
	mock.Mock
}

func (m *MockFactorService) GetFactorByID(ctx context.Context, companyID, factorID, requestingUserID string) (*domain.Factor, error) {
	args := m.Called(ctx, companyID, factorID, requestingUserID)
	factor, _ := args.Get(0).(*domain.Factor)
	return factor, args.Error(1)
}

func (m *MockFactorService) ListFactors(ctx context.Context, companyID, requestingUserID string, includeInactive bool) ([]domain.Factor, error) {
	args := m.Called(ctx, companyID, requestingUserID, includeInactive)
	factors, _ := args.Get(0).([]domain.Factor)
	return factors, args.Error(1)
}

func (m *MockFactorService) CreateFactor(ctx context.Context, companyID string, req dto.CreateFactorRequest, creatorUserID string) (*domain.Factor, error) {
	args := m.Called(ctx, companyID, req, creatorUserID)
	factor, _ := args.Get(0).(*domain.Factor)
	return factor, args.Error(1)
}

func (m *MockFactorService) UpdateFactor(ctx context.Context, companyID, factorID string, req dto.UpdateFactorRequest, requestingUserID string) (*domain.Factor, error) {
	args := m.Called(ctx, companyID, factorID, req, requestingUserID)
	factor, _ := args.Get(0).(*domain.Factor)
	return factor, args.Error(1)
}

type MockOperationService struct {
	mock.Mock
}

func (m *MockOperationService) GetOperationByID(ctx context.Context, companyID, operationID, requestingUserID string) (*domain.FactorOperation, error) {
	args := m.Called(ctx, companyID, operationID, requestingUserID)
	op, _ := args.Get(0).(*domain.FactorOperation)
	return op, args.Error(1)
}

func (m *MockOperationService) ListOperations(ctx context.Context, companyID, requestingUserID string, params dto.ListOperationsParams) (*dto.ListOperationsResponse, error) {
	args := m.Called(ctx, companyID, requestingUserID, params)
	resp, _ := args.Get(0).(*dto.ListOperationsResponse)
	return resp, args.Error(1)
}

func (m *MockOperationService) ListVersions(ctx context.Context, companyID, operationID, requestingUserID string) ([]domain.FactorOperationVersion, error) {
	args := m.Called(ctx, companyID, operationID, requestingUserID)
	versions, _ := args.Get(0).([]domain.FactorOperationVersion)
	return versions, args.Error(1)
}

func (m *MockOperationService) GetVersion(ctx context.Context, companyID, operationID, versionID, requestingUserID string) (*domain.FactorOperationVersion, error) {
	args := m.Called(ctx, companyID, operationID, versionID, requestingUserID)
	version, _ := args.Get(0).(*domain.FactorOperationVersion)
	return version, args.Error(1)
}

func (m *MockOperationService) ListResponses(ctx context.Context, companyID, operationID, versionID, requestingUserID string) ([]domain.OperationResponse, error) {
	args := m.Called(ctx, companyID, operationID, versionID, requestingUserID)
	responses, _ := args.Get(0).([]domain.OperationResponse)
	return responses, args.Error(1)
}

func (m *MockOperationService) ListAuditTrail(ctx context.Context, companyID, operationID, requestingUserID string) ([]domain.AuditLog, error) {
	args := m.Called(ctx, companyID, operationID, requestingUserID)
	entries, _ := args.Get(0).([]domain.AuditLog)
	return entries, args.Error(1)
}

func (m *MockOperationService) CreateOperation(ctx context.Context, companyID string, req dto.CreateOperationRequest, creatorUserID string) (*domain.FactorOperation, error) {
	args := m.Called(ctx, companyID, req, creatorUserID)
	op, _ := args.Get(0).(*domain.FactorOperation)
	return op, args.Error(1)
}

func (m *MockOperationService) SendToFactor(ctx context.Context, companyID, operationID, requestingUserID string) (*domain.FactorOperation, error) {
	args := m.Called(ctx, companyID, operationID, requestingUserID)
	op, _ := args.Get(0).(*domain.FactorOperation)
	return op, args.Error(1)
}

func (m *MockOperationService) CancelOperation(ctx context.Context, companyID, operationID string, req dto.CancelOperationRequest, requestingUserID string) (*domain.FactorOperation, error) {
	args := m.Called(ctx, companyID, operationID, req, requestingUserID)
	op, _ := args.Get(0).(*domain.FactorOperation)
	return op, args.Error(1)
}

func (m *MockOperationService) AddOperationItem(ctx context.Context, companyID, operationID string, req dto.AddOperationItemRequest, requestingUserID string) (*domain.OperationItem, error) {
	args := m.Called(ctx, companyID, operationID, req, requestingUserID)
	item, _ := args.Get(0).(*domain.OperationItem)
	return item, args.Error(1)
}

func (m *MockOperationService) DeleteOperationItem(ctx context.Context, companyID, operationID, itemID, requestingUserID string) error {
	return m.Called(ctx, companyID, operationID, itemID, requestingUserID).Error(0)
}

func (m *MockOperationService) ApplyResponses(ctx context.Context, companyID, operationID string, req dto.ApplyResponsesRequest, requestingUserID string) (*domain.FactorOperation, error) {
	args := m.Called(ctx, companyID, operationID, req, requestingUserID)
	op, _ := args.Get(0).(*domain.FactorOperation)
	return op, args.Error(1)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) ConcludeOperation(ctx context.Context, companyID, operationID string, req dto.ConcludeOperationRequest, requestingUserID string) (*portssvc.ConcludeResult, error) {
	args := m.Called(ctx, companyID, operationID, req, requestingUserID)
	result, _ := args.Get(0).(*portssvc.ConcludeResult)
	return result, args.Error(1)
}

func (m *MockSettlementService) ListPostings(ctx context.Context, companyID, operationID, requestingUserID string) ([]domain.Posting, error) {
	args := m.Called(ctx, companyID, operationID, requestingUserID)
	postings, _ := args.Get(0).([]domain.Posting)
	return postings, args.Error(1)
}

type MockInstallmentService struct {
	mock.Mock
}

func (m *MockInstallmentService) ListEligibleInstallments(ctx context.Context, companyID, requestingUserID string, params dto.ListEligibleInstallmentsParams) ([]domain.EligibleInstallment, error) {
	args := m.Called(ctx, companyID, requestingUserID, params)
	installments, _ := args.Get(0).([]domain.EligibleInstallment)
	return installments, args.Error(1)
}

type MockAPITokenService struct {
	mock.Mock
}

func (m *MockAPITokenService) CreateToken(ctx context.Context, userID, name string, expiresIn *time.Duration) (string, *domain.APIToken, error) {
	args := m.Called(ctx, userID, name, expiresIn)
	token, _ := args.Get(1).(*domain.APIToken)
	return args.String(0), token, args.Error(2)
}

func (m *MockAPITokenService) ListTokens(ctx context.Context, userID string) ([]domain.APIToken, error) {
	args := m.Called(ctx, userID)
	tokens, _ := args.Get(0).([]domain.APIToken)
	return tokens, args.Error(1)
}

func (m *MockAPITokenService) RevokeToken(ctx context.Context, userID, tokenID string) error {
	return m.Called(ctx, userID, tokenID).Error(0)
}

func (m *MockAPITokenService) RevokeAllTokens(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAPITokenService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	args := m.Called(ctx, tokenString)
	return args.String(0), args.Error(1)
}

var (
	_ portssvc.CompanySvcFacade   = (*MockCompanyService)(nil)
	_ portssvc.FactorSvcFacade    = (*MockFactorService)(nil)
	_ portssvc.OperationSvcFacade = (*MockOperationService)(nil)
	_ portssvc.SettlementSvc      = (*MockSettlementService)(nil)
	_ portssvc.InstallmentSvc     = (*MockInstallmentService)(nil)
	_ portssvc.APITokenSvc        = (*MockAPITokenService)(nil)
)
