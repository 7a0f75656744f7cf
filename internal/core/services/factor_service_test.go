package services_test

import (
	"testing"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/stretchr/testify/suite"
)

type FactorServiceTestSuite struct {
	engineSuite
}

func TestFactorServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FactorServiceTestSuite))
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func (s *FactorServiceTestSuite) TestCreateFactor() {
	s.Equal(s.companyID, s.factor.CompanyID)
	s.True(s.factor.IsActive)
	s.Equal(adminUser, s.factor.CreatedBy)
	s.True(dec(2).Equal(s.factor.Rates.InterestRate))

	_, err := s.svc.Factor.CreateFactor(s.ctx, s.companyID, dto.CreateFactorRequest{
		Name: "Another", Code: "F-A", CounterpartOrgID: "org-x",
	}, adminUser)
	s.ErrorIs(err, apperrors.ErrDuplicate)

	_, err = s.svc.Factor.CreateFactor(s.ctx, s.companyID, dto.CreateFactorRequest{
		Name: "Negative", Code: "F-N", CounterpartOrgID: "org-n",
		Rates: dto.FactorRatesRequest{FeeRate: dec(-1)},
	}, adminUser)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Factor.CreateFactor(s.ctx, s.companyID, dto.CreateFactorRequest{
		Name: "Members cannot", Code: "F-M", CounterpartOrgID: "org-m",
	}, memberUser)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *FactorServiceTestSuite) TestFactorCodesAreScopedToCompany() {
	other, err := s.svc.Company.CreateCompany(s.ctx, "Beta Comercio", "", outsiderUser)
	s.Require().NoError(err)

	f, err := s.svc.Factor.CreateFactor(s.ctx, other.CompanyID, dto.CreateFactorRequest{
		Name: "Factor A", Code: "F-A", CounterpartOrgID: "org-factor-a",
	}, outsiderUser)
	s.Require().NoError(err)

	_, err = s.svc.Factor.GetFactorByID(s.ctx, s.companyID, f.FactorID, adminUser)
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.svc.Factor.GetFactorByID(s.ctx, other.CompanyID, f.FactorID, adminUser)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *FactorServiceTestSuite) TestListFactors_HidesInactiveByDefault() {
	_, err := s.svc.Factor.CreateFactor(s.ctx, s.companyID, dto.CreateFactorRequest{
		Name: "Factor B", Code: "F-B", CounterpartOrgID: "org-factor-b",
	}, adminUser)
	s.Require().NoError(err)
	_, err = s.svc.Factor.UpdateFactor(s.ctx, s.companyID, s.factor.FactorID, dto.UpdateFactorRequest{IsActive: boolPtr(false)}, adminUser)
	s.Require().NoError(err)

	active, err := s.svc.Factor.ListFactors(s.ctx, s.companyID, readerUser, false)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal("F-B", active[0].Code)

	all, err := s.svc.Factor.ListFactors(s.ctx, s.companyID, readerUser, true)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *FactorServiceTestSuite) TestUpdateFactor_IdentityFrozenOnceUsed() {
	updated, err := s.svc.Factor.UpdateFactor(s.ctx, s.companyID, s.factor.FactorID, dto.UpdateFactorRequest{
		Name: strPtr("Factor A Ltda"),
	}, adminUser)
	s.Require().NoError(err)
	s.Equal("Factor A Ltda", updated.Name)

	s.newOperation()

	_, err = s.svc.Factor.UpdateFactor(s.ctx, s.companyID, s.factor.FactorID, dto.UpdateFactorRequest{
		Code: strPtr("F-Z"),
	}, adminUser)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Factor.UpdateFactor(s.ctx, s.companyID, s.factor.FactorID, dto.UpdateFactorRequest{
		CounterpartOrgID: strPtr("org-other"),
	}, adminUser)
	s.ErrorIs(err, apperrors.ErrValidation)

	updated, err = s.svc.Factor.UpdateFactor(s.ctx, s.companyID, s.factor.FactorID, dto.UpdateFactorRequest{
		Name:  strPtr("Factor A Ltda"),
		Rates: &dto.FactorRatesRequest{InterestRate: dec(3), FeeRate: dec(1), GraceDays: 2},
	}, adminUser)
	s.Require().NoError(err, "rates stay editable and an unchanged name is not a change")
	s.True(dec(3).Equal(updated.Rates.InterestRate))
	s.Equal(2, updated.Rates.GraceDays)

	op := s.newOperation()
	s.True(dec(3).Equal(op.Rates.InterestRate), "new operations copy the current rates")
}

func (s *FactorServiceTestSuite) TestUpdateFactor_DuplicateCode() {
	_, err := s.svc.Factor.CreateFactor(s.ctx, s.companyID, dto.CreateFactorRequest{
		Name: "Factor B", Code: "F-B", CounterpartOrgID: "org-factor-b",
	}, adminUser)
	s.Require().NoError(err)

	_, err = s.svc.Factor.UpdateFactor(s.ctx, s.companyID, s.factor.FactorID, dto.UpdateFactorRequest{Code: strPtr("F-B")}, adminUser)
	s.ErrorIs(err, apperrors.ErrDuplicate)

	_, err = s.svc.Factor.UpdateFactor(s.ctx, s.companyID, s.factor.FactorID, dto.UpdateFactorRequest{Code: strPtr("F-A")}, adminUser)
	s.NoError(err, "keeping its own code is allowed")
}
