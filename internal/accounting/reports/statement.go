package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// StatementLine is one raw entry item fetched for a statement, already
// ordered by (entry date, entry id, item id).
type StatementLine struct {
	ItemID         int64
	EntryID        int64
	EntryCode      string
	Date           time.Time
	Side           shared.Side
	Amount         decimal.Decimal
	ItemNarration  string
	EntryNarration string
	// Counterparty heuristics: the number of other items on the entry and,
	// when there is exactly one, that item's ledger name.
	SiblingCount  int
	SiblingLedger string
}

// StatementRow is one rendered transaction with its post-transaction
// running balance.
type StatementRow struct {
	Date        time.Time
	EntryID     int64
	EntryCode   string
	Description string
	Side        shared.Side
	Amount      decimal.Decimal
	Running     Balance
}

// Statement is the chronological running-balance report for one ledger.
type Statement struct {
	Opening     Balance
	Rows        []StatementRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Closing     Balance
}

// BuildStatement walks ordered lines maintaining a running balance seeded by
// the signed opening balance. Debit items add, credit items subtract.
func BuildStatement(openingSigned decimal.Decimal, lines []StatementLine) Statement {
	st := Statement{Opening: BalanceFromSigned(openingSigned)}
	running := openingSigned
	for _, line := range lines {
		if line.Side == shared.SideCredit {
			running = running.Sub(line.Amount)
			st.TotalCredit = st.TotalCredit.Add(line.Amount)
		} else {
			running = running.Add(line.Amount)
			st.TotalDebit = st.TotalDebit.Add(line.Amount)
		}
		st.Rows = append(st.Rows, StatementRow{
			Date:        line.Date,
			EntryID:     line.EntryID,
			EntryCode:   line.EntryCode,
			Description: describeLine(line),
			Side:        line.Side,
			Amount:      line.Amount,
			Running:     BalanceFromSigned(running),
		})
	}
	st.Closing = BalanceFromSigned(running)
	return st
}

// describeLine picks the counterparty description: the opposite ledger name
// when the entry has exactly one other line, then the item narration, then
// the entry narration.
func describeLine(line StatementLine) string {
	if line.SiblingCount == 1 && line.SiblingLedger != "" {
		return line.SiblingLedger
	}
	if line.ItemNarration != "" {
		return line.ItemNarration
	}
	return line.EntryNarration
}
