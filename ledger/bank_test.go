package ledger_test

import (
	"testing"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreconciledPostingsNewestFirst(t *testing.T) {
	f := newFixture(t)
	bank := f.bank(t, "Operating")
	oldest := f.post(t, bank.ID, models.PostingKindDeposit, "100", day(1))
	middle := f.post(t, bank.ID, models.PostingKindWithdrawal, "30", day(5))
	newest := f.post(t, bank.ID, models.PostingKindDeposit, "10", day(9))
	_, err := f.engine.MarkReconciled(f.ctx, tenant, middle.ID, actor)
	require.NoError(t, err)

	postings, err := f.engine.UnreconciledPostings(f.ctx, tenant, bank.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, postings, 2)
	assert.Equal(t, newest.ID, postings[0].ID)
	assert.Equal(t, oldest.ID, postings[1].ID)

	from, to := day(0), day(4)
	windowed, err := f.engine.UnreconciledPostings(f.ctx, tenant, bank.ID, &from, &to)
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, oldest.ID, windowed[0].ID)
}

func TestBankSummaryCoversTrailingMonth(t *testing.T) {
	f := newFixture(t)
	f.now = day(40)
	second := f.bank(t, "Savings")
	first := f.bank(t, "Operating")
	closed := f.bank(t, "Closed")
	f.customer(t, "Not a bank")

	f.post(t, first.ID, models.PostingKindDeposit, "500", day(5))
	f.post(t, first.ID, models.PostingKindDeposit, "100", day(20))
	f.post(t, first.ID, models.PostingKindWithdrawal, "40", day(30))
	f.post(t, second.ID, models.PostingKindDeposit, "70", day(39))
	_, err := f.engine.Recompute(f.ctx, tenant, first.ID)
	require.NoError(t, err)
	_, err = f.engine.SetAccountActive(f.ctx, tenant, closed.ID, false)
	require.NoError(t, err)

	summary, err := f.engine.BankSummary(f.ctx, tenant, day(40))
	require.NoError(t, err)
	assert.True(t, summary.From.Equal(day(10)))
	require.Len(t, summary.Accounts, 2)

	operating := summary.Accounts[0]
	if operating.AccountId != first.ID {
		operating = summary.Accounts[1]
	}
	requireAmount(t, "100", operating.Deposits)
	requireAmount(t, "40", operating.Withdrawals)
	requireAmount(t, "560", operating.Balance)
	assert.Equal(t, 2, operating.PostingCount)
	assert.Equal(t, 2, operating.UnreconciledCount)
	assert.Less(t, summary.Accounts[0].AccountCode, summary.Accounts[1].AccountCode)
}
