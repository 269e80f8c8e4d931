package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestBalanceFromSigned(t *testing.T) {
	b := BalanceFromSigned(d("150.00"))
	require.True(t, b.Amount.Equal(d("150.00")))
	require.Equal(t, shared.SideDebit, b.Side)

	b = BalanceFromSigned(d("-42.50"))
	require.True(t, b.Amount.Equal(d("42.50")))
	require.Equal(t, shared.SideCredit, b.Side)

	// Zero is reported on the debit side.
	b = BalanceFromSigned(decimal.Zero)
	require.Equal(t, shared.SideDebit, b.Side)
	require.Equal(t, "0.00 Dr", b.Label())
}

func TestSignedBalance(t *testing.T) {
	got := SignedBalance(d("100"), d("30"), d("500"), d("450"))
	require.True(t, got.Equal(d("120")))

	got = SignedBalance(decimal.Zero, d("200"), d("50"), d("75"))
	require.True(t, got.Equal(d("-225")))
}

func TestBuildStatementRunningBalance(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2026, 4, n, 0, 0, 0, 0, time.UTC) }
	lines := []StatementLine{
		{ItemID: 1, EntryID: 10, EntryCode: "RCT/2026-27/000001", Date: day(1), Side: shared.SideDebit, Amount: d("500.00"), SiblingCount: 1, SiblingLedger: "Donation Income"},
		{ItemID: 2, EntryID: 11, EntryCode: "PAY/2026-27/000001", Date: day(2), Side: shared.SideCredit, Amount: d("800.00"), ItemNarration: "rent", SiblingCount: 2},
		{ItemID: 3, EntryID: 12, EntryCode: "RCT/2026-27/000002", Date: day(3), Side: shared.SideDebit, Amount: d("100.00"), SiblingCount: 2, EntryNarration: "hundi opening"},
	}

	st := BuildStatement(d("200.00"), lines)

	require.True(t, st.Opening.Amount.Equal(d("200.00")))
	require.Equal(t, shared.SideDebit, st.Opening.Side)
	require.Len(t, st.Rows, 3)

	require.True(t, st.Rows[0].Running.Signed().Equal(d("700.00")))
	require.Equal(t, "Donation Income", st.Rows[0].Description)

	// The balance flips to credit after the large payment.
	require.True(t, st.Rows[1].Running.Amount.Equal(d("100.00")))
	require.Equal(t, shared.SideCredit, st.Rows[1].Running.Side)
	require.Equal(t, "rent", st.Rows[1].Description)

	require.True(t, st.Rows[2].Running.Signed().Equal(decimal.Zero))
	require.Equal(t, "hundi opening", st.Rows[2].Description)

	require.True(t, st.TotalDebit.Equal(d("600.00")))
	require.True(t, st.TotalCredit.Equal(d("800.00")))
	require.True(t, st.Closing.Signed().Equal(decimal.Zero))
	require.Equal(t, shared.SideDebit, st.Closing.Side)
}

func TestBuildStatementEmpty(t *testing.T) {
	st := BuildStatement(d("-50.00"), nil)
	require.Empty(t, st.Rows)
	require.Equal(t, shared.SideCredit, st.Opening.Side)
	require.True(t, st.Closing.Amount.Equal(d("50.00")))
	require.Equal(t, shared.SideCredit, st.Closing.Side)
}

func TestBuildTrialBalance(t *testing.T) {
	totals := []LedgerPeriodTotals{
		{LedgerID: 1, Code: "1000", Name: "Cash",
			OpeningDr: d("1000"), PriorDr: d("200"), PriorCr: d("100"),
			PeriodDr: d("400"), PeriodCr: d("150")},
		{LedgerID: 2, Code: "2000", Name: "Sundry Creditors",
			OpeningCr: d("500"), PeriodCr: d("250")},
		{LedgerID: 3, Code: "9999", Name: "Dormant"},
	}

	tb := BuildTrialBalance(totals)

	require.Len(t, tb.Rows, 2)

	cash := tb.Rows[0]
	require.True(t, cash.Opening.Signed().Equal(d("1100")))
	require.True(t, cash.Closing.Signed().Equal(d("1350")))
	require.Equal(t, shared.SideDebit, cash.Closing.Side)

	creditors := tb.Rows[1]
	require.True(t, creditors.Opening.Signed().Equal(d("-500")))
	require.True(t, creditors.Closing.Amount.Equal(d("750")))
	require.Equal(t, shared.SideCredit, creditors.Closing.Side)

	require.True(t, tb.TotalDebit.Equal(d("400")))
	require.True(t, tb.TotalCredit.Equal(d("400")))
}
