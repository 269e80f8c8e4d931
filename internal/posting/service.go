package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/fiscal"
	"github.com/temple-erp/temple-erp/internal/accounting/journals"
	"github.com/temple-erp/temple-erp/internal/accounting/mappings"
	"github.com/temple-erp/temple-erp/internal/accounting/shared"
	"github.com/temple-erp/temple-erp/internal/purchases"
	"github.com/temple-erp/temple-erp/internal/settings"
)

// SourceModule tags journal entries created from purchase invoices.
const SourceModule = "PURCHASES.INVOICE"

// ErrOtherChargesLedgerUnset indicates charges exist but no ledger is
// configured to receive them.
var ErrOtherChargesLedgerUnset = fmt.Errorf("posting: other charges ledger not configured: %w", settings.ErrUnset)

// tolerance bounds the accepted drift between derived debits and the
// externally supplied invoice total.
var tolerance = decimal.NewFromFloat(0.01)

// RepositoryPort abstracts the transactional posting store.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository runs every write of one posting inside a single transaction.
type TxRepository interface {
	GetInvoiceForUpdate(ctx context.Context, invoiceID int64) (purchases.PurchaseInvoice, error)
	NextEntryCode(ctx context.Context, entryType journals.EntryType, period string) (string, error)
	InsertEntry(ctx context.Context, code string, in journals.PostingInput) (journals.Entry, error)
	InsertEntryItems(ctx context.Context, entryID int64, lines []journals.PostingLineInput) error
	LinkSource(ctx context.Context, module string, refID int64, entryID int64) error
	MarkInvoiceMigrated(ctx context.Context, invoiceID, entryID int64) error
}

// InvoicePort loads the invoice being posted.
type InvoicePort interface {
	GetWithLines(ctx context.Context, id int64) (purchases.PurchaseInvoice, error)
}

// FiscalPort resolves the posting period and the default fund.
type FiscalPort interface {
	YearForDate(ctx context.Context, date time.Time) (fiscal.Year, error)
	FirstActiveFund(ctx context.Context) (fiscal.Fund, error)
}

// MappingPort resolves master records to ledgers.
type MappingPort interface {
	Resolve(ctx context.Context, module string, refID int64) (mappings.LedgerMapping, error)
}

// SettingsPort supplies the posting configuration.
type SettingsPort interface {
	IsTaxInclusive(ctx context.Context) (bool, error)
	OtherChargesLedgerID(ctx context.Context) (int64, error)
}

// CachePort invalidates derived balances after a posting. May be nil.
type CachePort interface {
	Invalidate(ctx context.Context, ledgerIDs ...int64)
}

// Result identifies the journal entry created for an invoice.
type Result struct {
	EntryID   int64
	EntryCode string
}

// Engine derives and persists the balanced journal entry for a purchase
// invoice.
type Engine struct {
	repo     RepositoryPort
	invoices InvoicePort
	fiscal   FiscalPort
	mappings MappingPort
	settings SettingsPort
	cache    CachePort
}

// NewEngine constructs the posting engine.
func NewEngine(repo RepositoryPort, invoices InvoicePort, fiscalPort FiscalPort, mappingPort MappingPort, settingsPort SettingsPort, cache CachePort) *Engine {
	return &Engine{repo: repo, invoices: invoices, fiscal: fiscalPort, mappings: mappingPort, settings: settingsPort, cache: cache}
}

// PostInvoiceJournal migrates one invoice into the journal. Every
// precondition failure aborts with nothing written; all writes happen in one
// transaction, and a concurrent duplicate attempt surfaces as
// purchases.ErrAlreadyMigrated.
func (e *Engine) PostInvoiceJournal(ctx context.Context, invoiceID int64) (Result, error) {
	invoice, err := e.invoices.GetWithLines(ctx, invoiceID)
	if err != nil {
		return Result{}, err
	}
	if invoice.IsMigrated {
		return Result{}, purchases.ErrAlreadyMigrated
	}
	fund, err := e.fiscal.FirstActiveFund(ctx)
	if err != nil {
		return Result{}, err
	}
	year, err := e.fiscal.YearForDate(ctx, invoice.Date)
	if err != nil {
		return Result{}, err
	}
	taxInclusive, err := e.settings.IsTaxInclusive(ctx)
	if err != nil {
		return Result{}, err
	}

	lines, err := e.buildLines(ctx, invoice, taxInclusive)
	if err != nil {
		return Result{}, err
	}

	input := journals.PostingInput{
		Type:         journals.EntryTypePurchase,
		Date:         invoice.Date,
		FundID:       fund.ID,
		Narration:    fmt.Sprintf("Purchase invoice %s", invoice.Number),
		SourceModule: SourceModule,
		SourceID:     journals.NewSourceID(SourceModule, invoice.ID),
		Lines:        lines,
	}
	if err := input.Validate(); err != nil {
		return Result{}, err
	}

	var result Result
	err = e.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.GetInvoiceForUpdate(ctx, invoice.ID)
		if err != nil {
			return err
		}
		if locked.IsMigrated {
			return purchases.ErrAlreadyMigrated
		}
		code, err := tx.NextEntryCode(ctx, journals.EntryTypePurchase, year.Code)
		if err != nil {
			return err
		}
		entry, err := tx.InsertEntry(ctx, code, input)
		if err != nil {
			return err
		}
		if err := tx.InsertEntryItems(ctx, entry.ID, input.Lines); err != nil {
			return err
		}
		if err := tx.LinkSource(ctx, SourceModule, invoice.ID, entry.ID); err != nil {
			if errors.Is(err, shared.ErrSourceConflict) {
				return purchases.ErrAlreadyMigrated
			}
			return err
		}
		if err := tx.MarkInvoiceMigrated(ctx, invoice.ID, entry.ID); err != nil {
			return err
		}
		result = Result{EntryID: entry.ID, EntryCode: code}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if e.cache != nil {
		touched := make([]int64, 0, len(input.Lines))
		for _, line := range input.Lines {
			touched = append(touched, line.LedgerID)
		}
		e.cache.Invalidate(ctx, touched...)
	}
	return result, nil
}

// buildLines maps the invoice onto journal lines: a debit per item (plus a
// separate tax debit when tax exclusive), one combined debit for shipping
// and other charges, and a single credit to the supplier's payable ledger.
func (e *Engine) buildLines(ctx context.Context, invoice purchases.PurchaseInvoice, taxInclusive bool) ([]journals.PostingLineInput, error) {
	var lines []journals.PostingLineInput
	debitTotal := decimal.Zero

	for _, item := range invoice.Lines {
		ledgerID, err := e.resolveItemLedger(ctx, item)
		if err != nil {
			return nil, err
		}
		amount := item.Subtotal
		if taxInclusive {
			amount = item.LineTotal
		}
		lines = append(lines, journals.PostingLineInput{
			LedgerID:  ledgerID,
			Side:      shared.SideDebit,
			Amount:    amount,
			Narration: item.Description,
		})
		debitTotal = debitTotal.Add(amount)

		if !taxInclusive && item.TaxRateID != nil && item.TaxAmount.IsPositive() {
			taxMapping, err := e.mappings.Resolve(ctx, mappings.ModuleTax, *item.TaxRateID)
			if err != nil {
				if errors.Is(err, shared.ErrMappingNotFound) {
					return nil, &shared.MappingError{Kind: "tax rate", Ref: *item.TaxRateID}
				}
				return nil, err
			}
			lines = append(lines, journals.PostingLineInput{
				LedgerID:  taxMapping.LedgerID,
				Side:      shared.SideDebit,
				Amount:    item.TaxAmount,
				Narration: fmt.Sprintf("Tax %s%% on %s", item.TaxPct.String(), item.Description),
			})
			debitTotal = debitTotal.Add(item.TaxAmount)
		}
	}

	// Shipping and other charges post as one combined line; downstream
	// reconciliation depends on the single-line shape.
	charges := invoice.ShippingCharges.Add(invoice.OtherCharges)
	if charges.IsPositive() {
		ledgerID, err := e.settings.OtherChargesLedgerID(ctx)
		if err != nil {
			if errors.Is(err, settings.ErrUnset) {
				return nil, ErrOtherChargesLedgerUnset
			}
			return nil, err
		}
		lines = append(lines, journals.PostingLineInput{
			LedgerID: ledgerID,
			Side:     shared.SideDebit,
			Amount:   charges,
			Narration: fmt.Sprintf("Shipping %s; other charges %s",
				invoice.ShippingCharges.StringFixed(2), invoice.OtherCharges.StringFixed(2)),
		})
		debitTotal = debitTotal.Add(charges)
	}

	diff := invoice.Total.Sub(debitTotal)
	if diff.Abs().GreaterThan(tolerance) {
		return nil, &shared.ImbalanceError{Debit: debitTotal, Credit: invoice.Total}
	}
	if !diff.IsZero() && len(lines) > 0 {
		// Rounding drift within tolerance lands on the last debit line so
		// the entry balances against the invoice total exactly. A line the
		// drift would wipe out cannot absorb it.
		last := len(lines) - 1
		adjusted := lines[last].Amount.Add(diff)
		if !adjusted.IsPositive() {
			return nil, &shared.ImbalanceError{Debit: debitTotal, Credit: invoice.Total}
		}
		lines[last].Amount = adjusted
	}

	supplierMapping, err := e.mappings.Resolve(ctx, mappings.ModuleSupplier, invoice.SupplierID)
	if err != nil {
		if errors.Is(err, shared.ErrMappingNotFound) {
			return nil, &shared.MappingError{Kind: "supplier", Ref: invoice.SupplierID}
		}
		return nil, err
	}
	lines = append(lines, journals.PostingLineInput{
		LedgerID:  supplierMapping.LedgerID,
		Side:      shared.SideCredit,
		Amount:    invoice.Total,
		Narration: fmt.Sprintf("Payable for invoice %s", invoice.Number),
	})
	return lines, nil
}

func (e *Engine) resolveItemLedger(ctx context.Context, item purchases.InvoiceLine) (int64, error) {
	module := mappings.ModuleProduct
	var ref int64
	switch {
	case item.ProductID != nil:
		ref = *item.ProductID
	case item.ServiceID != nil:
		module = mappings.ModuleService
		ref = *item.ServiceID
	default:
		return 0, fmt.Errorf("posting: invoice line %d has no product or service", item.ID)
	}
	mapping, err := e.mappings.Resolve(ctx, module, ref)
	if err != nil {
		if errors.Is(err, shared.ErrMappingNotFound) {
			kind := "product"
			if module == mappings.ModuleService {
				kind = "service"
			}
			return 0, &shared.MappingError{Kind: kind, Ref: ref}
		}
		return 0, err
	}
	return mapping.LedgerID, nil
}
