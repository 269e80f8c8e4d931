package ledgers

import (
	"time"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// Ledger models a chart of accounts node.
type Ledger struct {
	ID                int64
	Code              string
	Name              string
	NormalSide        shared.Side
	IsBank            bool
	IsInventory       bool
	HasAging          bool
	HasCreditAging    bool
	HasReconciliation bool
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CreateLedgerInput groups fields for ledger creation.
type CreateLedgerInput struct {
	Code              string
	Name              string
	NormalSide        shared.Side
	IsBank            bool
	IsInventory       bool
	HasAging          bool
	HasCreditAging    bool
	HasReconciliation bool
}

// UpdateLedgerInput groups mutable ledger fields.
type UpdateLedgerInput struct {
	ID                int64
	Name              string
	IsBank            bool
	IsInventory       bool
	HasAging          bool
	HasCreditAging    bool
	HasReconciliation bool
}
