package reports

import (
	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// Balance is a ledger balance reported as a magnitude with a Dr/Cr label.
// Zero is reported as Dr by convention.
type Balance struct {
	Amount decimal.Decimal
	Side   shared.Side
}

// BalanceFromSigned converts a debit-positive signed amount into the
// magnitude + label display form.
func BalanceFromSigned(signed decimal.Decimal) Balance {
	if signed.IsNegative() {
		return Balance{Amount: signed.Neg(), Side: shared.SideCredit}
	}
	return Balance{Amount: signed, Side: shared.SideDebit}
}

// Signed converts the display form back to a debit-positive amount.
func (b Balance) Signed() decimal.Decimal {
	if b.Side == shared.SideCredit {
		return b.Amount.Neg()
	}
	return b.Amount
}

// Label renders the balance the way statements display it.
func (b Balance) Label() string {
	return b.Amount.StringFixed(2) + " " + b.Side.Label()
}

// SignedBalance combines an opening contribution with period debit and
// credit sums into a debit-positive signed balance.
func SignedBalance(openingDr, openingCr, debit, credit decimal.Decimal) decimal.Decimal {
	return openingDr.Sub(openingCr).Add(debit).Sub(credit)
}
