package services_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portsrepo "github.com/SscSPs/factor_ops_app/internal/core/ports/repositories"
	"github.com/SscSPs/factor_ops_app/internal/utils/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// fakeStore is an in-memory implementation of every repository port. It keeps the
// same compare-and-swap and insert-if-absent semantics as the Postgres repositories.
type fakeStore struct {
	mu sync.Mutex

	companies      map[string]domain.Company
	members        map[string]domain.UserCompany
	factors        map[string]domain.Factor
	ops            map[string]domain.FactorOperation
	items          map[string][]domain.OperationItem
	versions       map[string]domain.FactorOperationVersion
	versionOrder   []string
	responses      map[string]map[string]domain.OperationResponse
	installments   map[string]domain.EligibleInstallment
	apTitles       map[string]domain.ApTitle
	apInstallments map[string]domain.ApInstallment
	postings       map[string]domain.Posting
	postingOrder   []string
	audit          map[string]domain.AuditLog
	auditOrder     []string
	tokens         map[string]domain.APIToken
	lastOpNumber   map[string]int64

	failures map[string]error
	ticks    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		companies:      map[string]domain.Company{},
		members:        map[string]domain.UserCompany{},
		factors:        map[string]domain.Factor{},
		ops:            map[string]domain.FactorOperation{},
		items:          map[string][]domain.OperationItem{},
		versions:       map[string]domain.FactorOperationVersion{},
		responses:      map[string]map[string]domain.OperationResponse{},
		installments:   map[string]domain.EligibleInstallment{},
		apTitles:       map[string]domain.ApTitle{},
		apInstallments: map[string]domain.ApInstallment{},
		postings:       map[string]domain.Posting{},
		audit:          map[string]domain.AuditLog{},
		tokens:         map[string]domain.APIToken{},
		lastOpNumber:   map[string]int64{},
		failures:       map[string]error{},
	}
}

func (f *fakeStore) provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		CompanyRepo:    f,
		FactorRepo:     f,
		OperationRepo:  f,
		ReceivableRepo: f,
		PayableRepo:    f,
		AuditRepo:      f,
		PostingRepo:    f,
		APITokenRepo:   f,
	}
}

// failOnce makes the next call to method return err.
func (f *fakeStore) failOnce(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

func (f *fakeStore) injected(method string) error {
	if err, ok := f.failures[method]; ok {
		delete(f.failures, method)
		return err
	}
	return nil
}

// stamp returns strictly increasing timestamps for row versioning.
func (f *fakeStore) stamp() time.Time {
	f.ticks++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.ticks) * time.Millisecond)
}

func memberKey(userID, companyID string) string { return userID + "|" + companyID }

// --- seeding helpers ---

func (f *fakeStore) seedInstallment(inst domain.EligibleInstallment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installments[inst.InstallmentID] = inst
}

func (f *fakeStore) installment(id string) domain.EligibleInstallment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installments[id]
}

func (f *fakeStore) postingKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.postingOrder...)
}

func (f *fakeStore) apTitleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.apTitles)
}

func (f *fakeStore) auditActions(entityID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var actions []string
	for _, id := range f.auditOrder {
		if f.audit[id].EntityID == entityID {
			actions = append(actions, f.audit[id].Action)
		}
	}
	return actions
}

// --- CompanyRepositoryFacade ---

func (f *fakeStore) FindCompanyByID(_ context.Context, companyID string) (*domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[companyID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) ListCompaniesByUserID(_ context.Context, userID string) ([]domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Company
	for _, m := range f.members {
		if m.UserID == userID && m.Role != domain.RoleRemoved {
			out = append(out, f.companies[m.CompanyID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) SaveCompany(_ context.Context, company domain.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("SaveCompany"); err != nil {
		return err
	}
	f.companies[company.CompanyID] = company
	return nil
}

func (f *fakeStore) AddUserToCompany(_ context.Context, membership domain.UserCompany) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[memberKey(membership.UserID, membership.CompanyID)] = membership
	return nil
}

func (f *fakeStore) FindUserCompanyRole(_ context.Context, userID, companyID string) (*domain.UserCompany, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberKey(userID, companyID)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &m, nil
}

// --- FactorRepositoryFacade ---

func (f *fakeStore) FindFactorByID(_ context.Context, factorID string) (*domain.Factor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fa, ok := f.factors[factorID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &fa, nil
}

func (f *fakeStore) FindFactorByCode(_ context.Context, companyID, code string) (*domain.Factor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fa := range f.factors {
		if fa.CompanyID == companyID && fa.Code == code {
			return &fa, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) ListFactors(_ context.Context, companyID string, includeInactive bool) ([]domain.Factor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Factor
	for _, fa := range f.factors {
		if fa.CompanyID == companyID && (includeInactive || fa.IsActive) {
			out = append(out, fa)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) SaveFactor(_ context.Context, factor domain.Factor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.factors[factor.FactorID] = factor
	return nil
}

func (f *fakeStore) UpdateFactor(_ context.Context, factor domain.Factor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.factors[factor.FactorID]; !ok {
		return apperrors.ErrNotFound
	}
	f.factors[factor.FactorID] = factor
	return nil
}

// --- OperationReader / OperationWriter ---

func (f *fakeStore) FindOperationByID(_ context.Context, operationID string) (*domain.FactorOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[operationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &op, nil
}

func (f *fakeStore) ListOperations(_ context.Context, companyID string, filter portsrepo.OperationFilter) ([]domain.FactorOperation, *string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	after := int64(-1)
	if filter.NextToken != nil {
		seq, err := pagination.DecodeSequenceToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		after = seq
	}

	var matched []domain.FactorOperation
	for _, op := range f.ops {
		if op.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && op.Status != *filter.Status {
			continue
		}
		if filter.FactorID != nil && op.FactorID != *filter.FactorID {
			continue
		}
		if after >= 0 && op.OperationNumber >= after {
			continue
		}
		matched = append(matched, op)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].OperationNumber > matched[j].OperationNumber })

	var next *string
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
		token := pagination.EncodeSequenceToken(matched[len(matched)-1].OperationNumber)
		next = &token
	}
	return matched, next, nil
}

func (f *fakeStore) CountOperationsByFactor(_ context.Context, factorID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, op := range f.ops {
		if op.FactorID == factorID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) FindItemsByOperationID(_ context.Context, operationID string) ([]domain.OperationItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OperationItem(nil), f.items[operationID]...), nil
}

func (f *fakeStore) SaveOperation(_ context.Context, op domain.FactorOperation) (*domain.FactorOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpNumber[op.CompanyID]++
	op.OperationNumber = f.lastOpNumber[op.CompanyID]
	op.LastUpdatedAt = f.stamp()
	f.ops[op.OperationID] = op
	return &op, nil
}

func (f *fakeStore) AddOperationItem(_ context.Context, item domain.OperationItem) (*domain.OperationItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[item.OperationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if op.Status != domain.OperationDraft {
		return nil, apperrors.ErrInvalidState
	}
	for _, existing := range f.items[item.OperationID] {
		if existing.InstallmentID == item.InstallmentID {
			return nil, fmt.Errorf("%w: installment already in operation", apperrors.ErrValidation)
		}
	}
	for opID, items := range f.items {
		if opID == item.OperationID || f.ops[opID].Status.IsTerminal() {
			continue
		}
		for _, existing := range items {
			if existing.InstallmentID == item.InstallmentID {
				return nil, fmt.Errorf("%w: installment already in open operation %s", apperrors.ErrValidation, opID)
			}
		}
	}
	item.LineNo = nextLineNo(f.items[item.OperationID])
	f.items[item.OperationID] = append(f.items[item.OperationID], item)
	f.touchDraftTotals(&op, item.LastUpdatedBy)
	return &item, nil
}

// nextLineNo mirrors the repository numbering: max(line_no)+1 over the current items.
func nextLineNo(items []domain.OperationItem) int {
	next := 1
	for _, item := range items {
		if item.LineNo >= next {
			next = item.LineNo + 1
		}
	}
	return next
}

func (f *fakeStore) DeleteOperationItem(_ context.Context, operationID, itemID, deletedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[operationID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if op.Status != domain.OperationDraft {
		return apperrors.ErrInvalidState
	}
	items := f.items[operationID]
	for i, it := range items {
		if it.ItemID == itemID {
			f.items[operationID] = append(items[:i:i], items[i+1:]...)
			f.touchDraftTotals(&op, deletedBy)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakeStore) touchDraftTotals(op *domain.FactorOperation, by string) {
	totals := domain.DraftTotals(f.items[op.OperationID])
	op.GrossAmount, op.CostsAmount, op.NetAmount = totals.Gross, totals.Costs, totals.Net
	op.LastUpdatedAt = f.stamp()
	op.LastUpdatedBy = by
	f.ops[op.OperationID] = *op
}

func (f *fakeStore) MarkSettlementStarted(_ context.Context, operationID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("MarkSettlementStarted"); err != nil {
		return false, err
	}
	op, ok := f.ops[operationID]
	if !ok || op.Status != domain.OperationSentToFactor {
		return false, nil
	}
	if op.SettlementStartedAt == nil {
		op.SettlementStartedAt = &at
		f.ops[operationID] = op
	}
	return true, nil
}

func (f *fakeStore) TransitionStatus(_ context.Context, operationID string, from []domain.OperationStatus, to domain.OperationStatus, change portsrepo.StatusChange) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("TransitionStatus"); err != nil {
		return false, err
	}
	op, ok := f.ops[operationID]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if op.Status == s {
			allowed = true
		}
	}
	if !allowed || (to == domain.OperationCancelled && op.SettlementStarted()) {
		return false, nil
	}
	op.Status = to
	at, by := change.At, change.By
	switch to {
	case domain.OperationCompleted:
		op.CompletedAt, op.CompletedBy = &at, &by
	case domain.OperationCancelled:
		op.CancelledAt, op.CancelledBy, op.CancelReason = &at, &by, change.Reason
	}
	op.LastUpdatedAt = f.stamp()
	op.LastUpdatedBy = by
	f.ops[operationID] = op
	return true, nil
}

// --- VersionRepository ---

func (f *fakeStore) SendOperation(_ context.Context, version domain.FactorOperationVersion, expectedUpdatedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[version.OperationID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if op.Status != domain.OperationDraft {
		return false, nil
	}
	if !op.LastUpdatedAt.Equal(expectedUpdatedAt) {
		return false, fmt.Errorf("%w: operation items changed while sending", apperrors.ErrInvalidState)
	}
	if version.VersionNumber != op.VersionCounter+1 {
		return false, fmt.Errorf("%w: version number out of sequence", apperrors.ErrInvalidState)
	}
	f.versions[version.VersionID] = version
	f.versionOrder = append(f.versionOrder, version.VersionID)

	at, by, vid := version.SentAt, version.SentBy, version.VersionID
	op.Status = domain.OperationSentToFactor
	op.SentAt, op.SentBy = &at, &by
	op.VersionCounter = version.VersionNumber
	op.CurrentVersionID = &vid
	op.LastUpdatedAt = f.stamp()
	f.ops[op.OperationID] = op
	return true, nil
}

func (f *fakeStore) FindVersionsByOperationID(_ context.Context, operationID string) ([]domain.FactorOperationVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.FactorOperationVersion
	for _, id := range f.versionOrder {
		if v := f.versions[id]; v.OperationID == operationID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) FindVersionByID(_ context.Context, versionID string) (*domain.FactorOperationVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.versions[versionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &v, nil
}

// --- ResponseRepository ---

func (f *fakeStore) ApplyResponses(_ context.Context, operationID, versionID string, responses []domain.OperationResponse, change portsrepo.StatusChange) (*domain.FactorOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[operationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if op.Status != domain.OperationSentToFactor {
		return nil, apperrors.ErrInvalidState
	}
	if !op.HasCurrentVersion(versionID) {
		return nil, fmt.Errorf("%w: version mismatch", apperrors.ErrValidation)
	}
	if f.responses[versionID] == nil {
		f.responses[versionID] = map[string]domain.OperationResponse{}
	}
	for _, r := range responses {
		if prev, ok := f.responses[versionID][r.ItemID]; ok {
			r.ResponseID = prev.ResponseID
		}
		f.responses[versionID][r.ItemID] = r
	}

	items := f.items[operationID]
	for i := range items {
		if r, ok := f.responses[versionID][items[i].ItemID]; ok {
			items[i].ApplyResponse(r)
		}
	}
	all := make([]domain.OperationResponse, 0, len(f.responses[versionID]))
	for _, r := range f.responses[versionID] {
		all = append(all, r)
	}
	totals := domain.ReconciledTotals(items, all)
	op.GrossAmount, op.CostsAmount, op.NetAmount = totals.Gross, totals.Costs, totals.Net
	at, by := change.At, change.By
	op.LastResponseAt, op.LastResponseBy = &at, &by
	op.LastUpdatedAt = f.stamp()
	f.ops[operationID] = op
	return &op, nil
}

func (f *fakeStore) FindResponsesByVersionID(_ context.Context, versionID string) ([]domain.OperationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.OperationResponse
	for _, r := range f.responses[versionID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// --- ReceivableLedger ---

func (f *fakeStore) FindInstallmentByID(_ context.Context, installmentID string) (*domain.EligibleInstallment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.installments[installmentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &inst, nil
}

func (f *fakeStore) listInstallments(companyID string, limit int, keep func(domain.EligibleInstallment) bool) []domain.EligibleInstallment {
	var out []domain.EligibleInstallment
	for _, inst := range f.installments {
		if inst.CompanyID == companyID && keep(inst) {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeStore) ListOpenInstallments(_ context.Context, companyID string, limit int) ([]domain.EligibleInstallment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listInstallments(companyID, limit, func(i domain.EligibleInstallment) bool {
		return i.CustodyStatus == domain.CustodyOwn
	}), nil
}

func (f *fakeStore) ListInstallmentsWithFactor(_ context.Context, companyID string, factorID *string, limit int) ([]domain.EligibleInstallment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listInstallments(companyID, limit, func(i domain.EligibleInstallment) bool {
		if i.CustodyStatus != domain.CustodyWithFactor {
			return false
		}
		return factorID == nil || (i.FactorID != nil && *i.FactorID == *factorID)
	}), nil
}

func (f *fakeStore) TransitionCustody(_ context.Context, change domain.CustodyChange) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("TransitionCustody"); err != nil {
		return false, err
	}
	inst, ok := f.installments[change.InstallmentID]
	if !ok || inst.CustodyStatus != change.From || !change.From.CanMoveTo(change.To) {
		return false, nil
	}
	inst.CustodyStatus = change.To
	inst.FactorID = change.FactorID
	if change.DueDate != nil {
		inst.DueDate = *change.DueDate
	}
	inst.UpdatedAt = f.stamp()
	f.installments[inst.InstallmentID] = inst
	return true, nil
}

// --- PayableLedger ---

func (f *fakeStore) CreateApTitle(_ context.Context, title domain.ApTitle) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("CreateApTitle"); err != nil {
		return false, err
	}
	if _, ok := f.apTitles[title.ApTitleID]; ok {
		return false, nil
	}
	f.apTitles[title.ApTitleID] = title
	return true, nil
}

func (f *fakeStore) CreateApInstallment(_ context.Context, installment domain.ApInstallment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.apInstallments[installment.ApInstallmentID]; ok {
		return false, nil
	}
	f.apInstallments[installment.ApInstallmentID] = installment
	return true, nil
}

// --- AuditSink ---

func (f *fakeStore) InsertAuditLog(_ context.Context, entry domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("InsertAuditLog"); err != nil {
		return err
	}
	if _, ok := f.audit[entry.AuditLogID]; ok {
		return nil
	}
	f.audit[entry.AuditLogID] = entry
	f.auditOrder = append(f.auditOrder, entry.AuditLogID)
	return nil
}

func (f *fakeStore) ListAuditLogsByEntity(_ context.Context, companyID, entityType, entityID string) ([]domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditLog
	for _, id := range f.auditOrder {
		e := f.audit[id]
		if e.CompanyID == companyID && e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- PostingRegistry ---

func (f *fakeStore) FindPostingByKey(_ context.Context, postingKey string) (*domain.Posting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.postings[postingKey]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) CreatePosting(_ context.Context, posting domain.Posting) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("CreatePosting"); err != nil {
		return false, err
	}
	if _, ok := f.postings[posting.PostingKey]; ok {
		return false, nil
	}
	f.postings[posting.PostingKey] = posting
	f.postingOrder = append(f.postingOrder, posting.PostingKey)
	return true, nil
}

func (f *fakeStore) ListPostingsByOperation(_ context.Context, operationID string) ([]domain.Posting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Posting
	for _, key := range f.postingOrder {
		if p := f.postings[key]; p.OperationID == operationID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPostingsByReference(_ context.Context, referenceID string) ([]domain.Posting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Posting
	for _, key := range f.postingOrder {
		if p := f.postings[key]; p.ReferenceID != nil && *p.ReferenceID == referenceID {
			out = append(out, p)
		}
	}
	return out, nil
}

// seedPosting records a posting made outside the services under test.
func (f *fakeStore) seedPosting(p domain.Posting) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postings[p.PostingKey] = p
	f.postingOrder = append(f.postingOrder, p.PostingKey)
}

// --- APITokenRepository ---

func (f *fakeStore) Create(_ context.Context, token *domain.APIToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token.ID] = *token
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*domain.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (f *fakeStore) FindByUserID(_ context.Context, userID string) ([]domain.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.APIToken
	for _, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) TouchLastUsed(_ context.Context, id string, usedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.LastUsedAt = &usedAt
	f.tokens[id] = t
	return nil
}

func (f *fakeStore) Revoke(_ context.Context, id string, revokedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.RevokedAt = &revokedAt
	f.tokens[id] = t
	return nil
}

func (f *fakeStore) RevokeByUserID(_ context.Context, userID string, revokedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &revokedAt
			f.tokens[id] = t
		}
	}
	return nil
}

// MockPackager is a mock type for the TransmissionPackager interface
type MockPackager struct {
	mock.Mock
}

func (m *MockPackager) Package(ctx context.Context, snapshot domain.VersionSnapshot) (domain.PackageArtifacts, error) {
	args := m.Called(ctx, snapshot)
	return args.Get(0).(domain.PackageArtifacts), args.Error(1)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
