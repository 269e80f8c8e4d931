package purchases

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvoiceNotFound = errors.New("purchases: invoice not found")
	ErrAlreadyMigrated = errors.New("purchases: invoice already migrated to journal")
	ErrEmptyInvoice    = errors.New("purchases: at least one line is required")
)

// PurchaseInvoice is a fully priced supplier invoice. Once migrated, the
// linked journal entry is recorded and the invoice cannot be posted again.
type PurchaseInvoice struct {
	ID              int64
	Number          string
	SupplierID      int64
	Date            time.Time
	ShippingCharges decimal.Decimal
	OtherCharges    decimal.Decimal
	Total           decimal.Decimal
	IsMigrated      bool
	EntryID         *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Lines           []InvoiceLine
}

// InvoiceLine prices one product or service on the invoice. Exactly one of
// ProductID and ServiceID is set.
type InvoiceLine struct {
	ID          int64
	InvoiceID   int64
	ProductID   *int64
	ServiceID   *int64
	Description string
	Qty         decimal.Decimal
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	TaxRateID   *int64
	TaxPct      decimal.Decimal
	TaxAmount   decimal.Decimal
	LineTotal   decimal.Decimal
}

// CreateInvoiceLineInput describes one line of a new invoice.
type CreateInvoiceLineInput struct {
	ProductID   *int64
	ServiceID   *int64
	Description string
	Qty         decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRateID   *int64
	TaxPct      decimal.Decimal
}

// CreateInvoiceInput groups fields for invoice creation. Totals are derived
// from the lines, never supplied.
type CreateInvoiceInput struct {
	Number          string
	SupplierID      int64
	Date            time.Time
	ShippingCharges decimal.Decimal
	OtherCharges    decimal.Decimal
	Lines           []CreateInvoiceLineInput
}

// Validate checks creation preconditions.
func (in CreateInvoiceInput) Validate() error {
	if in.SupplierID == 0 {
		return errors.New("purchases: supplier is required")
	}
	if in.Date.IsZero() {
		return errors.New("purchases: invoice date is required")
	}
	if len(in.Lines) == 0 {
		return ErrEmptyInvoice
	}
	for _, line := range in.Lines {
		if (line.ProductID == nil) == (line.ServiceID == nil) {
			return errors.New("purchases: line must reference exactly one product or service")
		}
		if !line.Qty.IsPositive() {
			return errors.New("purchases: line quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return errors.New("purchases: line unit price must not be negative")
		}
		if line.TaxPct.IsNegative() {
			return errors.New("purchases: line tax rate must not be negative")
		}
	}
	if in.ShippingCharges.IsNegative() || in.OtherCharges.IsNegative() {
		return errors.New("purchases: charges must not be negative")
	}
	return nil
}
