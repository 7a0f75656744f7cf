package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	CompanyRepo    CompanyRepositoryFacade
	FactorRepo     FactorRepositoryFacade
	OperationRepo  OperationRepositoryFacade
	ReceivableRepo ReceivableLedger
	PayableRepo    PayableLedger
	AuditRepo      AuditSink
	PostingRepo    PostingRegistry
	APITokenRepo   APITokenRepository
}
