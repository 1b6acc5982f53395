package ledger_test

import (
	"regexp"
	"testing"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reconciliationNumberPattern = regexp.MustCompile(`^REC-20240121-[0-9A-F]{12}$`)

func reconcileInput(accountId int, asserted string) models.NewReconciliation {
	return models.NewReconciliation{
		AccountId:       accountId,
		PeriodStart:     day(0),
		PeriodEnd:       day(15),
		AssertedBalance: decimal.RequireFromString(asserted),
		ActorId:         actor,
	}
}

func TestReconcileUsesWindowBookBalance(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	f.seedScenario(t, account.ID)

	matched, err := f.engine.Reconcile(f.ctx, tenant, reconcileInput(account.ID, "600"))
	require.NoError(t, err)
	requireAmount(t, "600", matched.BookBalance)
	requireAmount(t, "0", matched.Difference)
	assert.Equal(t, models.ReconciliationStatusCompleted, matched.Status)
	assert.Equal(t, 2, matched.UnreconciledCount)
	assert.Equal(t, 0, matched.ReconciledCount)
	assert.Regexp(t, reconciliationNumberPattern, matched.ReconciliationNumber)

	short, err := f.engine.Reconcile(f.ctx, tenant, reconcileInput(account.ID, "650"))
	require.NoError(t, err)
	requireAmount(t, "50", short.Difference)
	assert.Equal(t, models.ReconciliationStatusInProgress, short.Status)

	account, err = f.engine.GetAccount(f.ctx, tenant, account.ID)
	require.NoError(t, err)
	require.NotNil(t, account.LastReconciled)
	assert.True(t, account.LastReconciled.Equal(day(15)))
}

func TestReconcileWindowExcludesOpeningBalance(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	f.seedScenario(t, account.ID)

	input := reconcileInput(account.ID, "-200")
	input.PeriodStart = day(5)
	input.PeriodEnd = day(25)
	r, err := f.engine.Reconcile(f.ctx, tenant, input)
	require.NoError(t, err)
	requireAmount(t, "-200", r.BookBalance)
	assert.Equal(t, models.ReconciliationStatusCompleted, r.Status)
}

func TestReconcileToleratesSubCentDifference(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	f.seedScenario(t, account.ID)

	within, err := f.engine.Reconcile(f.ctx, tenant, reconcileInput(account.ID, "600.009"))
	require.NoError(t, err)
	assert.Equal(t, models.ReconciliationStatusCompleted, within.Status)

	edge, err := f.engine.Reconcile(f.ctx, tenant, reconcileInput(account.ID, "599.99"))
	require.NoError(t, err)
	assert.Equal(t, models.ReconciliationStatusInProgress, edge.Status)
}

func TestReconcileIsRepeatable(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	f.seedScenario(t, account.ID)

	first, err := f.engine.Reconcile(f.ctx, tenant, reconcileInput(account.ID, "610"))
	require.NoError(t, err)
	second, err := f.engine.Reconcile(f.ctx, tenant, reconcileInput(account.ID, "610"))
	require.NoError(t, err)

	requireAmount(t, first.BookBalance.String(), second.BookBalance)
	requireAmount(t, first.Difference.String(), second.Difference)
	assert.Equal(t, first.Status, second.Status)
	assert.NotEqual(t, first.ReconciliationNumber, second.ReconciliationNumber)

	records, err := f.engine.ListReconciliations(f.ctx, tenant, account.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	balance, err := f.engine.Recompute(f.ctx, tenant, account.ID)
	require.NoError(t, err)
	requireAmount(t, "800", balance, "reconciling never changes postings")
}

func TestReconcileRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")

	inverted := reconcileInput(account.ID, "0")
	inverted.PeriodStart, inverted.PeriodEnd = day(15), day(0)
	_, err := f.engine.Reconcile(f.ctx, tenant, inverted)
	require.ErrorIs(t, err, utils.ErrorInvalidInput)

	noActor := reconcileInput(account.ID, "0")
	noActor.ActorId = 0
	_, err = f.engine.Reconcile(f.ctx, tenant, noActor)
	require.ErrorIs(t, err, utils.ErrorInvalidInput)

	_, err = f.engine.Reconcile(f.ctx, tenant, reconcileInput(account.ID, "600.00005"))
	require.ErrorIs(t, err, utils.ErrorInvalidInput, "asserted balance finer than the column")

	_, err = f.engine.Reconcile(f.ctx, "tenant-b", reconcileInput(account.ID, "0"))
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)

	history, err := f.engine.ListReconciliations(f.ctx, tenant, account.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestReconcileDifferenceFitsColumn(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	f.post(t, account.ID, models.PostingKindDebit, "100.1234", day(1))

	r, err := f.engine.Reconcile(f.ctx, tenant, reconcileInput(account.ID, "100.1235"))
	require.NoError(t, err)
	requireAmount(t, "0.0001", r.Difference)
	assert.True(t, r.Difference.Equal(r.Difference.Round(utils.MoneyScale)))
	assert.Equal(t, models.ReconciliationStatusCompleted, r.Status)
}

func TestMarkReconciledKeepsFirstStamp(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	posting := f.post(t, account.ID, models.PostingKindDebit, "100", day(1))

	marked, err := f.engine.MarkReconciled(f.ctx, tenant, posting.ID, 7)
	require.NoError(t, err)
	assert.True(t, marked.IsReconciled)
	require.NotNil(t, marked.ReconciledBy)
	assert.Equal(t, 7, *marked.ReconciledBy)

	f.now = day(25)
	again, err := f.engine.MarkReconciled(f.ctx, tenant, posting.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 7, *again.ReconciledBy)
	assert.True(t, again.ReconciledAt.Equal(day(20)))
	requireAmount(t, "100", again.Amount)

	_, err = f.engine.MarkReconciled(f.ctx, tenant, posting.ID, 0)
	require.ErrorIs(t, err, utils.ErrorInvalidInput)

	_, err = f.engine.MarkReconciled(f.ctx, "tenant-b", posting.ID, 7)
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)

	r, err := f.engine.Reconcile(f.ctx, tenant, reconcileInput(account.ID, "100"))
	require.NoError(t, err)
	assert.Equal(t, 1, r.ReconciledCount)
	assert.Equal(t, 0, r.UnreconciledCount)
}

func TestMarkReconciledBulk(t *testing.T) {
	f := newFixture(t)
	a := f.customer(t, "A")
	b := f.customer(t, "B")
	p1 := f.post(t, a.ID, models.PostingKindDebit, "10", day(1))
	p2 := f.post(t, b.ID, models.PostingKindDebit, "20", day(1))
	p3 := f.post(t, b.ID, models.PostingKindCredit, "5", day(2))

	_, err := f.engine.MarkReconciled(f.ctx, tenant, p3.ID, actor)
	require.NoError(t, err)

	result, err := f.engine.MarkReconciledBulk(f.ctx, tenant, []int{p1.ID, p2.ID, p2.ID, p3.ID}, actor)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Requested)
	assert.EqualValues(t, 2, result.Reconciled)

	unreconciled, err := f.engine.UnreconciledPostings(f.ctx, tenant, b.ID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, unreconciled)
}

func TestMarkReconciledBulkRejectsForeignIds(t *testing.T) {
	f := newFixture(t)
	mine := f.customer(t, "Mine")
	p1 := f.post(t, mine.ID, models.PostingKindDebit, "10", day(1))

	other, err := f.engine.CreateAccount(f.ctx, "tenant-b", actor, models.NewAccount{
		Name:   "Theirs",
		Family: models.AccountFamilyCounterparty,
		Type:   models.CounterpartyTypeSupplier,
	})
	require.NoError(t, err)
	foreign, err := f.engine.Append(f.ctx, "tenant-b", actor, models.NewPosting{
		AccountId:   other.ID,
		Kind:        models.PostingKindCredit,
		Amount:      decimal.NewFromInt(10),
		PostingDate: day(1),
	})
	require.NoError(t, err)

	_, err = f.engine.MarkReconciledBulk(f.ctx, tenant, []int{p1.ID, foreign.ID}, actor)
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)

	_, err = f.engine.MarkReconciledBulk(f.ctx, tenant, []int{p1.ID, 99999}, actor)
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)

	_, err = f.engine.MarkReconciledBulk(f.ctx, tenant, nil, actor)
	require.ErrorIs(t, err, utils.ErrorInvalidInput)

	got, err := f.store.GetPosting(f.ctx, tenant, p1.ID)
	require.NoError(t, err)
	assert.False(t, got.IsReconciled, "a rejected batch marks nothing")
}
