package pgsql

import (
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		CompanyRepo:    newPgxCompanyRepository(dbPool),
		FactorRepo:     newPgxFactorRepository(dbPool),
		OperationRepo:  newPgxOperationRepository(dbPool),
		ReceivableRepo: newPgxReceivableRepository(dbPool),
		PayableRepo:    newPgxPayableRepository(dbPool),
		AuditRepo:      newPgxAuditRepository(dbPool),
		PostingRepo:    newPgxPostingRepository(dbPool),
		APITokenRepo:   newPgxAPITokenRepository(dbPool),
	}
}
