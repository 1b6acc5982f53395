package ledger_test

import (
	"testing"

	"github.com/mmdatafocus/ledger_backend/ledger"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runningBalances(lines []ledger.Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.RunningBalance.String())
	}
	return out
}

func TestStatementScenario(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	f.seedScenario(t, account.ID)

	statement, err := f.engine.Statement(f.ctx, tenant, account.ID, day(0), day(15))
	require.NoError(t, err)
	requireAmount(t, "0", statement.OpeningBalance)
	requireAmount(t, "600", statement.ClosingBalance)
	assert.Equal(t, []string{"1000", "600"}, runningBalances(statement.Lines))
	requireAmount(t, "1000", statement.TotalDebit)
	requireAmount(t, "400", statement.TotalCredit)
	assert.Equal(t, account.Code, statement.AccountCode)
}

func TestStatementClosingIsOpeningPlusLines(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	f.seedScenario(t, account.ID)

	statement, err := f.engine.Statement(f.ctx, tenant, account.ID, day(5), day(25))
	require.NoError(t, err)
	requireAmount(t, "1000", statement.OpeningBalance)
	assert.Equal(t, []string{"600", "800"}, runningBalances(statement.Lines))

	sum := statement.OpeningBalance
	for _, l := range statement.Lines {
		sum = sum.Add(l.SignedAmount)
	}
	requireAmount(t, statement.ClosingBalance.String(), sum)

	balance, err := f.engine.Recompute(f.ctx, tenant, account.ID)
	require.NoError(t, err)
	requireAmount(t, balance.String(), statement.ClosingBalance, "window covers every posting after the opening")
}

func TestStatementBoundsAreInclusive(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Edges")
	f.post(t, account.ID, models.PostingKindDebit, "10", day(1))
	f.post(t, account.ID, models.PostingKindDebit, "20", day(3))
	f.post(t, account.ID, models.PostingKindDebit, "40", day(5))

	statement, err := f.engine.Statement(f.ctx, tenant, account.ID, day(3), utils.EndOfDay(day(5)))
	require.NoError(t, err)
	requireAmount(t, "10", statement.OpeningBalance)
	require.Len(t, statement.Lines, 2)
	requireAmount(t, "70", statement.ClosingBalance)

	single, err := f.engine.Statement(f.ctx, tenant, account.ID, day(3), day(3))
	require.NoError(t, err)
	require.Len(t, single.Lines, 1)
}

func TestStatementWithoutPostings(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Empty")

	statement, err := f.engine.Statement(f.ctx, tenant, account.ID, day(0), day(30))
	require.NoError(t, err)
	assert.Empty(t, statement.Lines)
	assert.True(t, statement.OpeningBalance.IsZero())
	assert.True(t, statement.ClosingBalance.IsZero())
}

func TestStatementRejectsInvertedWindow(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")

	_, err := f.engine.Statement(f.ctx, tenant, account.ID, day(10), day(1))
	require.ErrorIs(t, err, utils.ErrorInvalidInput)

	_, err = f.engine.Statement(f.ctx, tenant, account.ID+1000, day(1), day(10))
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestHistoryStartsFromZero(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	f.seedScenario(t, account.ID)

	history, err := f.engine.History(f.ctx, tenant, account.ID, ledger.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1000", "600", "800"}, runningBalances(history.Lines))
	requireAmount(t, "800", history.CurrentBalance)
	requireAmount(t, "1200", history.TotalDebit)
	requireAmount(t, "400", history.TotalCredit)

	from, to := day(5), day(25)
	windowed, err := f.engine.History(f.ctx, tenant, account.ID, ledger.HistoryFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, []string{"-400", "-200"}, runningBalances(windowed.Lines))

	credit := models.PostingKindCredit
	credits, err := f.engine.History(f.ctx, tenant, account.ID, ledger.HistoryFilter{Kind: &credit})
	require.NoError(t, err)
	require.Len(t, credits.Lines, 1)
	requireAmount(t, "-400", credits.CurrentBalance)

	onlyFrom, err := f.engine.History(f.ctx, tenant, account.ID, ledger.HistoryFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, onlyFrom.Lines, 3, "a single bound does not narrow the history")
	assert.True(t, onlyFrom.CurrentBalance.Equal(decimal.NewFromInt(800)))
}
