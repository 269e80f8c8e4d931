package reports

import (
	"github.com/shopspring/decimal"
)

// LedgerPeriodTotals aggregates one ledger's movement for a trial balance:
// the fiscal-year opening row, sums posted before the range, and sums inside
// the range.
type LedgerPeriodTotals struct {
	LedgerID  int64
	Code      string
	Name      string
	OpeningDr decimal.Decimal
	OpeningCr decimal.Decimal
	PriorDr   decimal.Decimal
	PriorCr   decimal.Decimal
	PeriodDr  decimal.Decimal
	PeriodCr  decimal.Decimal
}

// TrialBalanceRow is one ledger line in the trial balance.
type TrialBalanceRow struct {
	LedgerID int64
	Code     string
	Name     string
	Opening  Balance
	Debit    decimal.Decimal
	Credit   decimal.Decimal
	Closing  Balance
}

// TrialBalance is the cross-ledger balance report for a date range.
type TrialBalance struct {
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// BuildTrialBalance derives trial balance rows from per-ledger totals.
// Ledgers with no opening and no movement are skipped.
func BuildTrialBalance(totals []LedgerPeriodTotals) TrialBalance {
	tb := TrialBalance{}
	for _, t := range totals {
		opening := SignedBalance(t.OpeningDr, t.OpeningCr, t.PriorDr, t.PriorCr)
		if opening.IsZero() && t.PeriodDr.IsZero() && t.PeriodCr.IsZero() {
			continue
		}
		closing := opening.Add(t.PeriodDr).Sub(t.PeriodCr)
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			LedgerID: t.LedgerID,
			Code:     t.Code,
			Name:     t.Name,
			Opening:  BalanceFromSigned(opening),
			Debit:    t.PeriodDr,
			Credit:   t.PeriodCr,
			Closing:  BalanceFromSigned(closing),
		})
		tb.TotalDebit = tb.TotalDebit.Add(t.PeriodDr)
		tb.TotalCredit = tb.TotalCredit.Add(t.PeriodCr)
	}
	return tb
}
