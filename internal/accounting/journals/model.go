package journals

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// EntryType enumerates journal entry categories.
type EntryType string

const (
	EntryTypeJournal  EntryType = "JOURNAL"
	EntryTypePurchase EntryType = "PURCHASE"
	EntryTypeSales    EntryType = "SALES"
	EntryTypePayment  EntryType = "PAYMENT"
	EntryTypeReceipt  EntryType = "RECEIPT"
	EntryTypeContra   EntryType = "CONTRA"
)

var codePrefixes = map[EntryType]string{
	EntryTypeJournal:  "JRN",
	EntryTypePurchase: "PUR",
	EntryTypeSales:    "SAL",
	EntryTypePayment:  "PAY",
	EntryTypeReceipt:  "RCT",
	EntryTypeContra:   "CON",
}

// Valid reports whether the entry type is recognised.
func (t EntryType) Valid() bool {
	_, ok := codePrefixes[t]
	return ok
}

// Prefix returns the entry-code prefix for the type.
func (t EntryType) Prefix() string {
	if p, ok := codePrefixes[t]; ok {
		return p
	}
	return "JRN"
}

// Entry captures a posted journal header. Entries are immutable once posted.
type Entry struct {
	ID        int64
	Code      string
	Type      EntryType
	Date      time.Time
	FundID    int64
	Narration string
	DrTotal   decimal.Decimal
	CrTotal   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []EntryItem
}

// EntryItem stores one debit or credit line against a ledger.
type EntryItem struct {
	ID           int64
	EntryID      int64
	LedgerID     int64
	Side         shared.Side
	Amount       decimal.Decimal
	Narration    string
	IsReconciled bool
	ReconciledAt *time.Time
	CreatedAt    time.Time
}
