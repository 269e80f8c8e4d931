package purchases

import (
	"context"

	"github.com/shopspring/decimal"
)

// Service creates and reads purchase invoices.
type Service struct {
	repo Repository
}

// NewService constructs the invoice service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// PriceLine derives the stored amounts for one line: subtotal from quantity
// and unit price, tax from the percentage, line total as their sum. Amounts
// are rounded to two places at this boundary only.
func PriceLine(in CreateInvoiceLineInput) InvoiceLine {
	subtotal := in.Qty.Mul(in.UnitPrice).Round(2)
	tax := decimal.Zero
	if in.TaxRateID != nil && in.TaxPct.IsPositive() {
		tax = subtotal.Mul(in.TaxPct).Div(decimal.NewFromInt(100)).Round(2)
	}
	return InvoiceLine{
		ProductID:   in.ProductID,
		ServiceID:   in.ServiceID,
		Description: in.Description,
		Qty:         in.Qty,
		UnitPrice:   in.UnitPrice,
		Subtotal:    subtotal,
		TaxRateID:   in.TaxRateID,
		TaxPct:      in.TaxPct,
		TaxAmount:   tax,
		LineTotal:   subtotal.Add(tax),
	}
}

// Create prices the lines, derives the grand total and persists the invoice
// with its lines in one transaction. The number is generated when blank.
func (s *Service) Create(ctx context.Context, in CreateInvoiceInput) (PurchaseInvoice, error) {
	if err := in.Validate(); err != nil {
		return PurchaseInvoice{}, err
	}
	lines := make([]InvoiceLine, 0, len(in.Lines))
	total := in.ShippingCharges.Add(in.OtherCharges)
	for _, lineIn := range in.Lines {
		line := PriceLine(lineIn)
		total = total.Add(line.LineTotal)
		lines = append(lines, line)
	}

	var invoiceID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number := in.Number
		if number == "" {
			generated, err := tx.NextInvoiceNumber(ctx, in.Date)
			if err != nil {
				return err
			}
			number = generated
		}
		id, err := tx.InsertInvoice(ctx, in, PurchaseInvoice{Number: number, Total: total})
		if err != nil {
			return err
		}
		invoiceID = id
		for _, line := range lines {
			if err := tx.InsertLine(ctx, id, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PurchaseInvoice{}, err
	}
	return s.repo.GetWithLines(ctx, invoiceID)
}

// Get loads an invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (PurchaseInvoice, error) {
	return s.repo.GetWithLines(ctx, id)
}

// List returns recent invoices.
func (s *Service) List(ctx context.Context, limit int) ([]PurchaseInvoice, error) {
	return s.repo.List(ctx, limit)
}
