package mappings

import "time"

// Module enumerates the master types that can map to a ledger.
const (
	ModuleProduct  = "PRODUCT"
	ModuleService  = "SERVICE"
	ModuleSupplier = "SUPPLIER"
	ModuleTax      = "TAX"
)

// LedgerMapping links a master record to its posting ledger.
type LedgerMapping struct {
	Module    string
	RefID     int64
	LedgerID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
