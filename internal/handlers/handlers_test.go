package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/blob"
	"github.com/SscSPs/factor_ops_app/internal/cache"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/SscSPs/factor_ops_app/internal/handlers"
	"github.com/SscSPs/factor_ops_app/internal/middleware"
	"github.com/SscSPs/factor_ops_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type HandlersTestSuite struct {
	suite.Suite
	router    *gin.Engine
	jwtSecret string
	userID    string
	companyID string

	companySvc     *MockCompanyService
	factorSvc      *MockFactorService
	operationSvc   *MockOperationService
	settlementSvc  *MockSettlementService
	installmentSvc *MockInstallmentService
	tokenSvc       *MockAPITokenService
	artifacts      *blob.MemoryStore
}

func (suite *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.userID = uuid.NewString()
	suite.companyID = uuid.NewString()

	suite.companySvc = new(MockCompanyService)
	suite.factorSvc = new(MockFactorService)
	suite.operationSvc = new(MockOperationService)
	suite.settlementSvc = new(MockSettlementService)
	suite.installmentSvc = new(MockInstallmentService)
	suite.tokenSvc = new(MockAPITokenService)
	suite.artifacts = blob.NewMemoryStore()

	cfg := &config.Config{
		JWTSecret:      suite.jwtSecret,
		JWTIssuer:      "factor-test",
		IsProduction:   true,
		IdempotencyTTL: time.Hour,
	}
	container := &portssvc.ServiceContainer{
		Company:     suite.companySvc,
		Factor:      suite.factorSvc,
		Operation:   suite.operationSvc,
		Settlement:  suite.settlementSvc,
		Installment: suite.installmentSvc,
		APIToken:    suite.tokenSvc,
	}

	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	suite.T().Cleanup(func() { _ = store.Close() })

	suite.router = gin.New()
	suite.router.Use(middleware.StructuredLoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	handlers.RegisterRoutes(suite.router, cfg, container, handlers.Dependencies{
		Artifacts:        suite.artifacts,
		IdempotencyStore: store,
		Gatherer:         prometheus.NewRegistry(),
	})
}

func (suite *HandlersTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "factor-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(suite.jwtSecret))
	suite.Require().NoError(err)
	return signed
}

func (suite *HandlersTestSuite) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.userID))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) companyPath(format string, args ...any) string {
	return "/api/v1/companies/" + suite.companyID + fmt.Sprintf(format, args...)
}

func (suite *HandlersTestSuite) sampleOperation(status domain.OperationStatus) *domain.FactorOperation {
	return &domain.FactorOperation{
		OperationID:     uuid.NewString(),
		CompanyID:       suite.companyID,
		FactorID:        uuid.NewString(),
		OperationNumber: 1,
		IssueDate:       time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC),
		Status:          status,
		GrossAmount:     decimal.NewFromInt(1000),
		CostsAmount:     decimal.NewFromInt(34),
		NetAmount:       decimal.NewFromInt(966),
	}
}

func (suite *HandlersTestSuite) decodeError(w *httptest.ResponseRecorder) handlers.APIErrorResponse {
	var resp handlers.APIErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (suite *HandlersTestSuite) TestHealthAndMetricsArePublic() {
	for _, path := range []string{"/health", "/metrics"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		suite.router.ServeHTTP(w, req)
		suite.Equal(http.StatusOK, w.Code, path)
	}
}

func (suite *HandlersTestSuite) TestMissingTokenIsUnauthorized() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.companySvc.AssertNotCalled(suite.T(), "ListUserCompanies", mock.Anything, mock.Anything)
}

func (suite *HandlersTestSuite) TestWrongIssuerIsUnauthorized() {
	claims := jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   suite.userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(suite.jwtSecret))
	suite.Require().NoError(err)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestAPIKeyAuthenticatesAsTokenOwner() {
	suite.tokenSvc.On("ValidateToken", mock.Anything, "fop_secret").Return(suite.userID, nil).Once()
	suite.tokenSvc.On("ListTokens", mock.Anything, suite.userID).Return([]domain.APIToken{{ID: uuid.NewString(), Name: "importer"}}, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/api-tokens", nil)
	req.Header.Set(middleware.APITokenHeader, "fop_secret")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	var tokens dto.ListAPITokensResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &tokens))
	suite.Len(tokens, 1)
	suite.tokenSvc.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestCreateAPITokenConvertsSecondsToDuration() {
	created := &domain.APIToken{ID: uuid.NewString(), Name: "importer", CreatedAt: time.Now()}
	suite.tokenSvc.On("CreateToken", mock.Anything, suite.userID, "importer",
		mock.MatchedBy(func(d *time.Duration) bool { return d != nil && *d == time.Hour }),
	).Return("fop_plaintext", created, nil).Once()

	expiresIn := int64(3600)
	w := suite.do(http.MethodPost, "/api/v1/api-tokens", dto.CreateAPITokenRequest{Name: "importer", ExpiresIn: &expiresIn})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.CreateAPITokenResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("fop_plaintext", resp.TokenString)
	suite.Equal(created.ID, resp.Details.ID)
}

func (suite *HandlersTestSuite) TestRevokeTokenRejectsMalformedID() {
	w := suite.do(http.MethodDelete, "/api/v1/api-tokens/not-a-uuid", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.tokenSvc.AssertNotCalled(suite.T(), "RevokeToken", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlersTestSuite) TestCreateCompany() {
	company := &domain.Company{CompanyID: suite.companyID, Name: "Acme", IsActive: true}
	suite.companySvc.On("CreateCompany", mock.Anything, "Acme", "", suite.userID).Return(company, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/companies", dto.CreateCompanyRequest{Name: "Acme"})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.CompanyResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(suite.companyID, resp.CompanyID)
}

func (suite *HandlersTestSuite) TestAddUserToCompanyForbidden() {
	target := uuid.NewString()
	suite.companySvc.On("AddUserToCompany", mock.Anything, suite.userID, target, suite.companyID, domain.RoleMember).
		Return(nil, fmt.Errorf("%w: admin role required", apperrors.ErrForbidden)).Once()

	w := suite.do(http.MethodPost, suite.companyPath("/users"), dto.AddUserToCompanyRequest{UserID: target, Role: domain.RoleMember})

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestCreateFactor() {
	req := dto.CreateFactorRequest{
		Name:             "Factor A",
		Code:             "F-A",
		CounterpartOrgID: uuid.NewString(),
		Rates:            dto.FactorRatesRequest{FeeRate: decimal.RequireFromString("2")},
	}
	factor := &domain.Factor{FactorID: uuid.NewString(), CompanyID: suite.companyID, Name: req.Name, Code: req.Code, IsActive: true}
	suite.factorSvc.On("CreateFactor", mock.Anything, suite.companyID,
		mock.MatchedBy(func(r dto.CreateFactorRequest) bool {
			return r.Code == "F-A" && r.Rates.FeeRate.Equal(decimal.NewFromInt(2))
		}),
		suite.userID,
	).Return(factor, nil).Once()

	w := suite.do(http.MethodPost, suite.companyPath("/factors"), req)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.FactorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(factor.FactorID, resp.FactorID)
	suite.factorSvc.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestCreateFactorBindingFailure() {
	w := suite.do(http.MethodPost, suite.companyPath("/factors"), map[string]any{"name": "No code"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.factorSvc.AssertNotCalled(suite.T(), "CreateFactor", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlersTestSuite) TestCreateFactorDuplicateCode() {
	suite.factorSvc.On("CreateFactor", mock.Anything, suite.companyID, mock.Anything, suite.userID).
		Return(nil, fmt.Errorf("%w: factor code F-A", apperrors.ErrDuplicate)).Once()

	w := suite.do(http.MethodPost, suite.companyPath("/factors"), dto.CreateFactorRequest{
		Name: "Factor A", Code: "F-A", CounterpartOrgID: uuid.NewString(),
	})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestListFactorsIncludeInactive() {
	suite.factorSvc.On("ListFactors", mock.Anything, suite.companyID, suite.userID, true).Return([]domain.Factor{}, nil).Once()

	w := suite.do(http.MethodGet, suite.companyPath("/factors?includeInactive=true"), nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.factorSvc.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestListOperationsBindsFilters() {
	factorID := uuid.NewString()
	suite.operationSvc.On("ListOperations", mock.Anything, suite.companyID, suite.userID,
		mock.MatchedBy(func(p dto.ListOperationsParams) bool {
			return p.Status == "draft" && p.FactorID == factorID && p.Limit == 5 &&
				p.IssueDateFrom != nil && p.IssueDateFrom.Format("2006-01-02") == "2026-02-01"
		}),
	).Return(&dto.ListOperationsResponse{Operations: []dto.OperationResponse{}}, nil).Once()

	w := suite.do(http.MethodGet, suite.companyPath("/operations?status=draft&factorID=%s&limit=5&issueDateFrom=2026-02-01", factorID), nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.operationSvc.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestListOperationsRejectsUnknownStatus() {
	w := suite.do(http.MethodGet, suite.companyPath("/operations?status=archived"), nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestAddItemToSentOperationConflicts() {
	opID := uuid.NewString()
	suite.operationSvc.On("AddOperationItem", mock.Anything, suite.companyID, opID, mock.Anything, suite.userID).
		Return(nil, fmt.Errorf("%w: operation is sent_to_factor", apperrors.ErrInvalidState)).Once()

	w := suite.do(http.MethodPost, suite.companyPath("/operations/%s/items", opID), dto.AddOperationItemRequest{
		ActionType:    domain.ActionDiscount,
		InstallmentID: uuid.NewString(),
	})

	suite.Equal(http.StatusConflict, w.Code)
	suite.Contains(suite.decodeError(w).Error, "sent_to_factor")
}

func (suite *HandlersTestSuite) TestDeleteItem() {
	opID, itemID := uuid.NewString(), uuid.NewString()
	suite.operationSvc.On("DeleteOperationItem", mock.Anything, suite.companyID, opID, itemID, suite.userID).Return(nil).Once()

	w := suite.do(http.MethodDelete, suite.companyPath("/operations/%s/items/%s", opID, itemID), nil)

	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlersTestSuite) TestSendEmptyOperationIsValidationError() {
	opID := uuid.NewString()
	suite.operationSvc.On("SendToFactor", mock.Anything, suite.companyID, opID, suite.userID).
		Return(nil, fmt.Errorf("%w: operation has no items", apperrors.ErrValidation)).Once()

	w := suite.do(http.MethodPost, suite.companyPath("/operations/%s/send", opID), nil)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestApplyResponsesRequiresEntries() {
	opID := uuid.NewString()
	w := suite.do(http.MethodPost, suite.companyPath("/operations/%s/responses", opID), dto.ApplyResponsesRequest{VersionID: uuid.NewString()})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.operationSvc.AssertNotCalled(suite.T(), "ApplyResponses", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlersTestSuite) TestConclude() {
	op := suite.sampleOperation(domain.OperationCompleted)
	settlement := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	suite.settlementSvc.On("ConcludeOperation", mock.Anything, suite.companyID, op.OperationID,
		mock.MatchedBy(func(r dto.ConcludeOperationRequest) bool { return r.SettlementDate.Equal(settlement) }),
		suite.userID,
	).Return(&portssvc.ConcludeResult{Idempotent: true, Operation: op}, nil).Once()

	w := suite.do(http.MethodPost, suite.companyPath("/operations/%s/conclude", op.OperationID), dto.ConcludeOperationRequest{SettlementDate: settlement})

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ConcludeOperationResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Idempotent)
	suite.Equal(domain.OperationCompleted, resp.Operation.Status)
	suite.True(resp.Operation.NetAmount.Equal(decimal.NewFromInt(966)))
}

func (suite *HandlersTestSuite) TestConcludePartialFailureIsRetryable() {
	opID := uuid.NewString()
	suite.settlementSvc.On("ConcludeOperation", mock.Anything, suite.companyID, opID, mock.Anything, suite.userID).
		Return(nil, apperrors.NewRetryableError("failed to settle operation", fmt.Errorf("connection reset"))).Once()

	w := suite.do(http.MethodPost, suite.companyPath("/operations/%s/conclude", opID), dto.ConcludeOperationRequest{SettlementDate: time.Now()})

	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.True(suite.decodeError(w).Retryable)
}

func (suite *HandlersTestSuite) TestUnexpectedErrorIsHidden() {
	opID := uuid.NewString()
	suite.operationSvc.On("GetOperationByID", mock.Anything, suite.companyID, opID, suite.userID).
		Return(nil, apperrors.NewAppError(500, "failed to query operations", fmt.Errorf("pq: secret detail"))).Once()

	w := suite.do(http.MethodGet, suite.companyPath("/operations/%s", opID), nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "secret detail")
}

func (suite *HandlersTestSuite) TestCancelReplaysWithIdempotencyKey() {
	op := suite.sampleOperation(domain.OperationCancelled)
	suite.operationSvc.On("CancelOperation", mock.Anything, suite.companyID, op.OperationID,
		dto.CancelOperationRequest{Reason: "client withdrew"}, suite.userID,
	).Return(op, nil).Once()

	path := suite.companyPath("/operations/%s/cancel", op.OperationID)
	body := dto.CancelOperationRequest{Reason: "client withdrew"}
	first := suite.do(http.MethodPost, path, body, middleware.IdempotencyKeyHeader, "cancel-1")
	second := suite.do(http.MethodPost, path, body, middleware.IdempotencyKeyHeader, "cancel-1")

	suite.Equal(http.StatusOK, first.Code)
	suite.Equal(http.StatusOK, second.Code)
	suite.JSONEq(first.Body.String(), second.Body.String())
	suite.operationSvc.AssertNumberOfCalls(suite.T(), "CancelOperation", 1)
}

func (suite *HandlersTestSuite) TestGetVersionIncludesSnapshot() {
	opID := uuid.NewString()
	version := &domain.FactorOperationVersion{
		VersionID:     uuid.NewString(),
		OperationID:   opID,
		VersionNumber: 1,
		SourceStatus:  domain.OperationDraft,
		SnapshotJSON:  json.RawMessage(`{"versionNumber":1}`),
	}
	suite.operationSvc.On("GetVersion", mock.Anything, suite.companyID, opID, version.VersionID, suite.userID).Return(version, nil).Once()

	w := suite.do(http.MethodGet, suite.companyPath("/operations/%s/versions/%s", opID, version.VersionID), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.VersionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.JSONEq(`{"versionNumber":1}`, string(resp.Snapshot))
}

func (suite *HandlersTestSuite) TestDownloadArtifact() {
	opID := uuid.NewString()
	key := "factor-operations/" + opID + "/v1-abc/items.csv"
	_, err := suite.artifacts.Put(context.Background(), key, strings.NewReader("line_no,amount\n1,1000\n"), blob.PutOptions{ContentType: "text/csv"})
	suite.Require().NoError(err)

	version := &domain.FactorOperationVersion{
		VersionID:   uuid.NewString(),
		OperationID: opID,
		Artifacts:   domain.PackageArtifacts{CSVKey: key},
	}
	suite.operationSvc.On("GetVersion", mock.Anything, suite.companyID, opID, version.VersionID, suite.userID).Return(version, nil)

	w := suite.do(http.MethodGet, suite.companyPath("/operations/%s/versions/%s/artifacts/csv", opID, version.VersionID), nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("text/csv", w.Header().Get("Content-Type"))
	suite.Equal("line_no,amount\n1,1000\n", w.Body.String())

	w = suite.do(http.MethodGet, suite.companyPath("/operations/%s/versions/%s/artifacts/report", opID, version.VersionID), nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodGet, suite.companyPath("/operations/%s/versions/%s/artifacts/zip", opID, version.VersionID), nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestListPostings() {
	opID := uuid.NewString()
	itemID := uuid.NewString()
	suite.settlementSvc.On("ListPostings", mock.Anything, suite.companyID, opID, suite.userID).Return([]domain.Posting{
		{PostingKey: "factor-op:" + opID + ":item:" + itemID, Kind: domain.PostingReceivableTransfer, ItemID: &itemID, Amount: decimal.NewFromInt(1000)},
	}, nil).Once()

	w := suite.do(http.MethodGet, suite.companyPath("/operations/%s/postings", opID), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp []dto.PostingResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp, 1)
	suite.Equal(itemID, *resp[0].ItemID)
}

func (suite *HandlersTestSuite) TestListEligibleInstallmentsDefaults() {
	suite.installmentSvc.On("ListEligibleInstallments", mock.Anything, suite.companyID, suite.userID,
		mock.MatchedBy(func(p dto.ListEligibleInstallmentsParams) bool {
			return p.ActionType == "discount" && p.Limit == 50 && p.FactorID == nil
		}),
	).Return(nil, nil).Once()

	w := suite.do(http.MethodGet, suite.companyPath("/installments/eligible"), nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"installments":[]}`, w.Body.String())
}

func (suite *HandlersTestSuite) TestAuditTrailNotFound() {
	opID := uuid.NewString()
	suite.operationSvc.On("ListAuditTrail", mock.Anything, suite.companyID, opID, suite.userID).
		Return(nil, fmt.Errorf("%w: operation %s", apperrors.ErrNotFound, opID)).Once()

	w := suite.do(http.MethodGet, suite.companyPath("/operations/%s/audit", opID), nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
