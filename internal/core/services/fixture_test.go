package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/blob"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/core/services"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/SscSPs/factor_ops_app/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

const (
	adminUser    = "user-admin"
	memberUser   = "user-member"
	readerUser   = "user-reader"
	outsiderUser = "user-outsider"
)

var fixedNow = time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// engineSuite wires the real services over the in-memory store.
type engineSuite struct {
	suite.Suite
	ctx       context.Context
	store     *fakeStore
	blobs     *blob.MemoryStore
	recorder  *metrics.Recorder
	svc       *portssvc.ServiceContainer
	companyID string
	factor    *domain.Factor
}

func (s *engineSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newFakeStore()
	s.blobs = blob.NewMemoryStore()
	s.recorder = metrics.NewRecorder(prometheus.NewRegistry())
	s.svc = services.NewServiceContainer(s.store.provider(), services.NewTransmissionPackager(s.blobs),
		services.WithClock(func() time.Time { return fixedNow }),
		services.WithMetrics(s.recorder))

	company, err := s.svc.Company.CreateCompany(s.ctx, "Acme Distribuidora", "", adminUser)
	s.Require().NoError(err)
	s.companyID = company.CompanyID

	_, err = s.svc.Company.AddUserToCompany(s.ctx, adminUser, memberUser, s.companyID, domain.RoleMember)
	s.Require().NoError(err)
	_, err = s.svc.Company.AddUserToCompany(s.ctx, adminUser, readerUser, s.companyID, domain.RoleReadOnly)
	s.Require().NoError(err)

	s.factor, err = s.svc.Factor.CreateFactor(s.ctx, s.companyID, dto.CreateFactorRequest{
		Name:             "Factor A",
		Code:             "F-A",
		CounterpartOrgID: "org-factor-a",
		Rates: dto.FactorRatesRequest{
			InterestRate: dec(2),
			FeeRate:      dec(1),
		},
	}, adminUser)
	s.Require().NoError(err)
}

// seedOwnInstallment registers an installment in own custody.
func (s *engineSuite) seedOwnInstallment(id string, amount int64) {
	s.store.seedInstallment(domain.EligibleInstallment{
		InstallmentID:     id,
		CompanyID:         s.companyID,
		ARTitleID:         "ar-" + id,
		SalesDocumentID:   "sd-" + id,
		CustomerID:        "cust-1",
		InstallmentNumber: 1,
		DueDate:           date(2026, 3, 19),
		AmountOpen:        dec(amount),
		CustodyStatus:     domain.CustodyOwn,
	})
}

func (s *engineSuite) newOperation() *domain.FactorOperation {
	op, err := s.svc.Operation.CreateOperation(s.ctx, s.companyID, dto.CreateOperationRequest{
		FactorID:  s.factor.FactorID,
		Reference: "batch-1",
		IssueDate: date(2026, 2, 19),
	}, memberUser)
	s.Require().NoError(err)
	return op
}

func (s *engineSuite) addDiscount(opID, installmentID string) *domain.OperationItem {
	item, err := s.svc.Operation.AddOperationItem(s.ctx, s.companyID, opID, dto.AddOperationItemRequest{
		ActionType:    domain.ActionDiscount,
		InstallmentID: installmentID,
	}, memberUser)
	s.Require().NoError(err)
	return item
}

func (s *engineSuite) send(opID string) *domain.FactorOperation {
	op, err := s.svc.Operation.SendToFactor(s.ctx, s.companyID, opID, memberUser)
	s.Require().NoError(err)
	return op
}

func (s *engineSuite) respond(op *domain.FactorOperation, entries ...dto.ResponseEntry) *domain.FactorOperation {
	updated, err := s.svc.Operation.ApplyResponses(s.ctx, s.companyID, op.OperationID, dto.ApplyResponsesRequest{
		VersionID: *op.CurrentVersionID,
		Responses: entries,
	}, memberUser)
	s.Require().NoError(err)
	return updated
}

func (s *engineSuite) conclude(opID string) (*portssvc.ConcludeResult, error) {
	return s.svc.Settlement.ConcludeOperation(s.ctx, s.companyID, opID, dto.ConcludeOperationRequest{
		SettlementDate: date(2026, 2, 20),
	}, memberUser)
}
