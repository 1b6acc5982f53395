package ledger

import (
	"fmt"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

// Line is a posting annotated with its signed effect and the running balance after it.
type Line struct {
	Posting        *models.Posting `json:"posting"`
	SignedAmount   decimal.Decimal `json:"signed_amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

type foldResult struct {
	Balance     decimal.Decimal
	Lines       []Line
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// fold accumulates postings left to right from opening. Postings must already be
// in ledger order (date ascending, insertion order on ties).
func fold(opening decimal.Decimal, postings []*models.Posting) (foldResult, error) {
	result := foldResult{
		Balance:     opening,
		Lines:       make([]Line, 0, len(postings)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, p := range postings {
		signed, err := p.SignedAmount()
		if err != nil {
			return foldResult{}, fmt.Errorf("posting %d: %w", p.ID, err)
		}
		if signed.IsNegative() {
			result.TotalCredit = result.TotalCredit.Add(p.Amount)
		} else {
			result.TotalDebit = result.TotalDebit.Add(p.Amount)
		}
		result.Balance = result.Balance.Add(signed)
		result.Lines = append(result.Lines, Line{
			Posting:        p,
			SignedAmount:   signed,
			RunningBalance: result.Balance,
		})
	}
	return result, nil
}

// signedSum is the balance of postings starting from zero.
func signedSum(postings []*models.Posting) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range postings {
		signed, err := p.SignedAmount()
		if err != nil {
			return decimal.Zero, fmt.Errorf("posting %d: %w", p.ID, err)
		}
		sum = sum.Add(signed)
	}
	return sum, nil
}
