package services

import (
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, packager portssvc.TransmissionPackager, opts ...Option) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The company service authorizes every other service.
	container.Company = NewCompanyService(repos.CompanyRepo, opts...)
	shared := append([]Option{WithCompanyAuthorizer(container.Company)}, opts...)

	container.Factor = NewFactorService(repos.FactorRepo, repos.OperationRepo, shared...)
	container.Operation = NewOperationService(
		repos.OperationRepo,
		repos.FactorRepo,
		repos.ReceivableRepo,
		repos.AuditRepo,
		packager,
		shared...,
	)
	container.Settlement = NewSettlementService(
		repos.OperationRepo,
		repos.FactorRepo,
		repos.ReceivableRepo,
		repos.PayableRepo,
		repos.PostingRepo,
		repos.AuditRepo,
		shared...,
	)
	container.Installment = NewInstallmentService(repos.ReceivableRepo, shared...)
	container.APIToken = NewAPITokenService(repos.APITokenRepo, opts...)

	return container
}
