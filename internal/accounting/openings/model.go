package openings

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// OpeningBalance seeds a ledger balance at the start of a fiscal year.
// At most one row exists per (ledger, fiscal year).
type OpeningBalance struct {
	ID           int64
	LedgerID     int64
	FiscalYearID int64
	DrAmount     decimal.Decimal
	CrAmount     decimal.Decimal
	Quantity     *decimal.Decimal
	UnitPrice    *decimal.Decimal
	UomID        *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Signed returns the opening contribution as a debit-positive amount.
func (b OpeningBalance) Signed() decimal.Decimal {
	return b.DrAmount.Sub(b.CrAmount)
}

// SetOpeningBalanceInput groups fields for the upsert operation. Side is the
// raw external marker and is normalised case-insensitively.
type SetOpeningBalanceInput struct {
	LedgerID     int64
	FiscalYearID int64
	Amount       decimal.Decimal
	Side         string
	Quantity     *decimal.Decimal
	UnitPrice    *decimal.Decimal
	UomID        *int64
}

// Result carries the stored row plus a non-fatal inventory warning.
type Result struct {
	OpeningBalance
	Warning string
}

func (in SetOpeningBalanceInput) normalise() (shared.Side, error) {
	return shared.ParseSide(in.Side)
}
