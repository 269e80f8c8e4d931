package posting

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/temple-erp/temple-erp/internal/accounting/fiscal"
	"github.com/temple-erp/temple-erp/internal/accounting/journals"
	"github.com/temple-erp/temple-erp/internal/accounting/mappings"
	"github.com/temple-erp/temple-erp/internal/accounting/shared"
	"github.com/temple-erp/temple-erp/internal/purchases"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func ptr(v int64) *int64 { return &v }

const (
	inventoryLedger = int64(100)
	serviceLedger   = int64(110)
	taxLedger       = int64(120)
	chargesLedger   = int64(130)
	supplierLedger  = int64(200)
)

// memoryPostingRepo stages every write and commits only when the closure
// succeeds, mirroring the transactional repository.
type memoryPostingRepo struct {
	invoices map[int64]*purchases.PurchaseInvoice
	entries  map[int64]journals.Entry
	items    map[int64][]journals.PostingLineInput
	links    map[string]int64
	seq      map[string]int64
	nextID   int64
}

func newMemoryPostingRepo() *memoryPostingRepo {
	return &memoryPostingRepo{
		invoices: make(map[int64]*purchases.PurchaseInvoice),
		entries:  make(map[int64]journals.Entry),
		items:    make(map[int64][]journals.PostingLineInput),
		links:    make(map[string]int64),
		seq:      make(map[string]int64),
	}
}

type stagedWrite func()

type memoryPostingTx struct {
	repo   *memoryPostingRepo
	writes []stagedWrite
	nextID int64
	seq    map[string]int64
}

func (m *memoryPostingRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryPostingTx{repo: m, nextID: m.nextID, seq: make(map[string]int64)}
	for k, v := range m.seq {
		tx.seq[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, w := range tx.writes {
		w()
	}
	m.nextID = tx.nextID
	m.seq = tx.seq
	return nil
}

func (t *memoryPostingTx) GetInvoiceForUpdate(ctx context.Context, invoiceID int64) (purchases.PurchaseInvoice, error) {
	inv, ok := t.repo.invoices[invoiceID]
	if !ok {
		return purchases.PurchaseInvoice{}, purchases.ErrInvoiceNotFound
	}
	return *inv, nil
}

func (t *memoryPostingTx) NextEntryCode(ctx context.Context, entryType journals.EntryType, period string) (string, error) {
	key := string(entryType) + "/" + period
	t.seq[key]++
	return journals.FormatEntryCode(entryType, period, t.seq[key]), nil
}

func (t *memoryPostingTx) InsertEntry(ctx context.Context, code string, in journals.PostingInput) (journals.Entry, error) {
	t.nextID++
	dr, cr := in.Totals()
	entry := journals.Entry{ID: t.nextID, Code: code, Type: in.Type, Date: in.Date, FundID: in.FundID, Narration: in.Narration, DrTotal: dr, CrTotal: cr}
	t.writes = append(t.writes, func() { t.repo.entries[entry.ID] = entry })
	return entry, nil
}

func (t *memoryPostingTx) InsertEntryItems(ctx context.Context, entryID int64, lines []journals.PostingLineInput) error {
	copied := append([]journals.PostingLineInput(nil), lines...)
	t.writes = append(t.writes, func() { t.repo.items[entryID] = copied })
	return nil
}

func (t *memoryPostingTx) LinkSource(ctx context.Context, module string, refID int64, entryID int64) error {
	key := fmt.Sprintf("%s:%d", module, refID)
	if _, exists := t.repo.links[key]; exists {
		return shared.ErrSourceConflict
	}
	t.writes = append(t.writes, func() { t.repo.links[key] = entryID })
	return nil
}

func (t *memoryPostingTx) MarkInvoiceMigrated(ctx context.Context, invoiceID, entryID int64) error {
	inv, ok := t.repo.invoices[invoiceID]
	if !ok || inv.IsMigrated {
		return purchases.ErrAlreadyMigrated
	}
	t.writes = append(t.writes, func() {
		inv.IsMigrated = true
		inv.EntryID = &entryID
	})
	return nil
}

type stubInvoices struct {
	repo *memoryPostingRepo
}

func (s stubInvoices) GetWithLines(ctx context.Context, id int64) (purchases.PurchaseInvoice, error) {
	inv, ok := s.repo.invoices[id]
	if !ok {
		return purchases.PurchaseInvoice{}, purchases.ErrInvoiceNotFound
	}
	return *inv, nil
}

type stubFiscal struct {
	noFund bool
	noYear bool
}

func (s stubFiscal) YearForDate(ctx context.Context, date time.Time) (fiscal.Year, error) {
	if s.noYear {
		return fiscal.Year{}, shared.ErrFiscalYearNotFound
	}
	return fiscal.Year{
		ID: 1, Code: "2026-27",
		StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 3, 31, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}, nil
}

func (s stubFiscal) FirstActiveFund(ctx context.Context) (fiscal.Fund, error) {
	if s.noFund {
		return fiscal.Fund{}, shared.ErrNoActiveFund
	}
	return fiscal.Fund{ID: 1, Name: "General Fund", IsActive: true}, nil
}

type stubMappings struct {
	missing map[string]bool
}

func (s stubMappings) Resolve(ctx context.Context, module string, refID int64) (mappings.LedgerMapping, error) {
	if s.missing[module] {
		return mappings.LedgerMapping{}, shared.ErrMappingNotFound
	}
	ledger := map[string]int64{
		mappings.ModuleProduct:  inventoryLedger,
		mappings.ModuleService:  serviceLedger,
		mappings.ModuleTax:      taxLedger,
		mappings.ModuleSupplier: supplierLedger,
	}[module]
	if ledger == 0 {
		return mappings.LedgerMapping{}, shared.ErrMappingNotFound
	}
	return mappings.LedgerMapping{Module: module, RefID: refID, LedgerID: ledger}, nil
}

type stubSettings struct {
	taxInclusive bool
	chargesUnset bool
}

func (s stubSettings) IsTaxInclusive(ctx context.Context) (bool, error) {
	return s.taxInclusive, nil
}

func (s stubSettings) OtherChargesLedgerID(ctx context.Context) (int64, error) {
	if s.chargesUnset {
		return 0, ErrOtherChargesLedgerUnset
	}
	return chargesLedger, nil
}

type recordingCache struct {
	invalidated [][]int64
}

func (c *recordingCache) Invalidate(ctx context.Context, ledgerIDs ...int64) {
	c.invalidated = append(c.invalidated, ledgerIDs)
}

type engineFixture struct {
	repo   *memoryPostingRepo
	cache  *recordingCache
	engine *Engine
}

func newFixture(fiscalStub stubFiscal, mapStub stubMappings, setStub stubSettings) *engineFixture {
	repo := newMemoryPostingRepo()
	cache := &recordingCache{}
	return &engineFixture{
		repo:   repo,
		cache:  cache,
		engine: NewEngine(repo, stubInvoices{repo: repo}, fiscalStub, mapStub, setStub, cache),
	}
}

// sampleInvoice: one taxed product line 5 x 20.00 = 100.00 + 6% tax 6.00,
// shipping 40.00, other charges 10.00, total 156.00.
func sampleInvoice() *purchases.PurchaseInvoice {
	return &purchases.PurchaseInvoice{
		ID:              1,
		Number:          "PI/2026/00001",
		SupplierID:      7,
		Date:            time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC),
		ShippingCharges: d("40.00"),
		OtherCharges:    d("10.00"),
		Total:           d("156.00"),
		Lines: []purchases.InvoiceLine{{
			ID: 1, InvoiceID: 1, ProductID: ptr(3), Description: "Camphor",
			Qty: d("5"), UnitPrice: d("20.00"), Subtotal: d("100.00"),
			TaxRateID: ptr(2), TaxPct: d("6"), TaxAmount: d("6.00"), LineTotal: d("106.00"),
		}},
	}
}

func lineAmount(t *testing.T, lines []journals.PostingLineInput, ledgerID int64, side shared.Side) decimal.Decimal {
	t.Helper()
	total := decimal.Zero
	for _, l := range lines {
		if l.LedgerID == ledgerID && l.Side == side {
			total = total.Add(l.Amount)
		}
	}
	return total
}

func TestPostInvoiceJournalTaxExclusive(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{})
	fx.repo.invoices[1] = sampleInvoice()

	res, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "PUR/2026-27/000001", res.EntryCode)

	lines := fx.repo.items[res.EntryID]
	require.Len(t, lines, 4)
	require.True(t, lineAmount(t, lines, inventoryLedger, shared.SideDebit).Equal(d("100.00")))
	require.True(t, lineAmount(t, lines, taxLedger, shared.SideDebit).Equal(d("6.00")))
	require.True(t, lineAmount(t, lines, chargesLedger, shared.SideDebit).Equal(d("50.00")))
	require.True(t, lineAmount(t, lines, supplierLedger, shared.SideCredit).Equal(d("156.00")))

	entry := fx.repo.entries[res.EntryID]
	require.True(t, entry.DrTotal.Equal(entry.CrTotal))
	require.Equal(t, journals.EntryTypePurchase, entry.Type)

	inv := fx.repo.invoices[1]
	require.True(t, inv.IsMigrated)
	require.NotNil(t, inv.EntryID)
	require.Equal(t, res.EntryID, *inv.EntryID)

	require.Len(t, fx.cache.invalidated, 1)
	require.Len(t, fx.cache.invalidated[0], 4)
}

func TestPostInvoiceJournalTaxInclusive(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{taxInclusive: true})
	fx.repo.invoices[1] = sampleInvoice()

	res, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.NoError(t, err)

	lines := fx.repo.items[res.EntryID]
	// No separate tax line: the item debit carries the gross amount.
	require.Len(t, lines, 3)
	require.True(t, lineAmount(t, lines, inventoryLedger, shared.SideDebit).Equal(d("106.00")))
	require.True(t, lineAmount(t, lines, taxLedger, shared.SideDebit).IsZero())
	require.True(t, lineAmount(t, lines, chargesLedger, shared.SideDebit).Equal(d("50.00")))
	require.True(t, lineAmount(t, lines, supplierLedger, shared.SideCredit).Equal(d("156.00")))
}

func TestPostInvoiceJournalCombinedChargesNarration(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{})
	fx.repo.invoices[1] = sampleInvoice()

	res, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.NoError(t, err)

	var narration string
	for _, l := range fx.repo.items[res.EntryID] {
		if l.LedgerID == chargesLedger {
			narration = l.Narration
		}
	}
	require.Equal(t, "Shipping 40.00; other charges 10.00", narration)
}

func TestPostInvoiceJournalAlreadyMigrated(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{})
	fx.repo.invoices[1] = sampleInvoice()

	_, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.NoError(t, err)

	_, err = fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.ErrorIs(t, err, purchases.ErrAlreadyMigrated)

	// Nothing extra was written.
	require.Len(t, fx.repo.entries, 1)
	require.Len(t, fx.repo.links, 1)
	require.Len(t, fx.cache.invalidated, 1)
}

func TestPostInvoiceJournalExistingSourceLink(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{})
	fx.repo.invoices[1] = sampleInvoice()
	// A concurrent posting already linked the source but the flag read was
	// stale.
	fx.repo.links[fmt.Sprintf("%s:%d", SourceModule, 1)] = 99

	_, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.ErrorIs(t, err, purchases.ErrAlreadyMigrated)
	require.Empty(t, fx.repo.entries)
}

func TestPostInvoiceJournalMissingMappings(t *testing.T) {
	cases := []struct {
		name   string
		module string
		kind   string
	}{
		{"product", mappings.ModuleProduct, "product"},
		{"tax", mappings.ModuleTax, "tax rate"},
		{"supplier", mappings.ModuleSupplier, "supplier"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(stubFiscal{}, stubMappings{missing: map[string]bool{tc.module: true}}, stubSettings{})
			fx.repo.invoices[1] = sampleInvoice()

			_, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
			var mapErr *shared.MappingError
			require.ErrorAs(t, err, &mapErr)
			require.Equal(t, tc.kind, mapErr.Kind)
			require.ErrorIs(t, err, shared.ErrMappingNotFound)

			require.Empty(t, fx.repo.entries)
			require.Empty(t, fx.repo.links)
			require.False(t, fx.repo.invoices[1].IsMigrated)
			require.Empty(t, fx.cache.invalidated)
		})
	}
}

func TestPostInvoiceJournalServiceLineMapping(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{})
	inv := sampleInvoice()
	inv.Lines = append(inv.Lines, purchases.InvoiceLine{
		ID: 2, InvoiceID: 1, ServiceID: ptr(8), Description: "Priest dakshina",
		Qty: d("1"), UnitPrice: d("44.00"), Subtotal: d("44.00"), LineTotal: d("44.00"),
	})
	inv.Total = d("200.00")
	fx.repo.invoices[1] = inv

	res, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.NoError(t, err)

	lines := fx.repo.items[res.EntryID]
	require.True(t, lineAmount(t, lines, serviceLedger, shared.SideDebit).Equal(d("44.00")))
	require.True(t, lineAmount(t, lines, supplierLedger, shared.SideCredit).Equal(d("200.00")))
}

func TestPostInvoiceJournalChargesLedgerUnset(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{chargesUnset: true})
	fx.repo.invoices[1] = sampleInvoice()

	_, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.ErrorIs(t, err, ErrOtherChargesLedgerUnset)
	require.Empty(t, fx.repo.entries)
}

func TestPostInvoiceJournalNoChargesSkipsChargesLine(t *testing.T) {
	// With zero charges the unset ledger never matters.
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{chargesUnset: true})
	inv := sampleInvoice()
	inv.ShippingCharges = decimal.Zero
	inv.OtherCharges = decimal.Zero
	inv.Total = d("106.00")
	fx.repo.invoices[1] = inv

	res, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, fx.repo.items[res.EntryID], 3)
}

func TestPostInvoiceJournalTotalOutsideTolerance(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{})
	inv := sampleInvoice()
	inv.Total = d("160.00")
	fx.repo.invoices[1] = inv

	_, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	var imb *shared.ImbalanceError
	require.ErrorAs(t, err, &imb)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	require.Empty(t, fx.repo.entries)
}

func TestPostInvoiceJournalRoundingWithinTolerance(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{})
	inv := sampleInvoice()
	inv.Total = d("156.01")
	fx.repo.invoices[1] = inv

	res, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.NoError(t, err)

	entry := fx.repo.entries[res.EntryID]
	require.True(t, entry.DrTotal.Equal(d("156.01")))
	require.True(t, entry.CrTotal.Equal(d("156.01")))
	lines := fx.repo.items[res.EntryID]
	require.True(t, lineAmount(t, lines, supplierLedger, shared.SideCredit).Equal(d("156.01")))
}

func TestPostInvoiceJournalDriftExceedsLastLine(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{})
	inv := sampleInvoice()
	inv.Lines[0].TaxRateID = nil
	inv.Lines[0].TaxPct = decimal.Zero
	inv.Lines[0].TaxAmount = decimal.Zero
	inv.Lines[0].LineTotal = d("100.00")
	inv.ShippingCharges = decimal.Zero
	inv.OtherCharges = d("0.01")
	inv.Total = d("100.00")
	fx.repo.invoices[1] = inv

	// The 0.01 drift would zero the charges line; absorption must refuse
	// instead of producing a non-positive amount.
	_, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	var imb *shared.ImbalanceError
	require.ErrorAs(t, err, &imb)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	require.Empty(t, fx.repo.entries)
	require.Empty(t, fx.cache.invalidated)
}

func TestPostInvoiceJournalNoActiveFund(t *testing.T) {
	fx := newFixture(stubFiscal{noFund: true}, stubMappings{}, stubSettings{})
	fx.repo.invoices[1] = sampleInvoice()

	_, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrNoActiveFund)
	require.Empty(t, fx.repo.entries)
}

func TestPostInvoiceJournalNoFiscalYear(t *testing.T) {
	fx := newFixture(stubFiscal{noYear: true}, stubMappings{}, stubSettings{})
	fx.repo.invoices[1] = sampleInvoice()

	_, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrFiscalYearNotFound)
}

func TestPostInvoiceJournalUnknownInvoice(t *testing.T) {
	fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{})

	_, err := fx.engine.PostInvoiceJournal(context.Background(), 404)
	require.ErrorIs(t, err, purchases.ErrInvoiceNotFound)
}

func TestPostInvoiceJournalRandomisedAlwaysBalances(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		fx := newFixture(stubFiscal{}, stubMappings{}, stubSettings{taxInclusive: i%2 == 0})

		inv := &purchases.PurchaseInvoice{
			ID: 1, Number: fmt.Sprintf("PI/2026/%05d", i+1), SupplierID: 7,
			Date:            time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rng.Intn(300)),
			ShippingCharges: decimal.NewFromInt(int64(rng.Intn(100))),
			OtherCharges:    decimal.NewFromInt(int64(rng.Intn(50))),
		}
		total := inv.ShippingCharges.Add(inv.OtherCharges)
		for l := 0; l < 1+rng.Intn(5); l++ {
			in := purchases.CreateInvoiceLineInput{
				Qty:       decimal.NewFromInt(int64(1 + rng.Intn(20))),
				UnitPrice: decimal.NewFromFloat(float64(rng.Intn(10000)) / 100).Round(2),
			}
			if rng.Intn(2) == 0 {
				in.ProductID = ptr(int64(1 + rng.Intn(5)))
			} else {
				in.ServiceID = ptr(int64(1 + rng.Intn(5)))
			}
			if rng.Intn(2) == 0 {
				in.TaxRateID = ptr(int64(1 + rng.Intn(3)))
				in.TaxPct = decimal.NewFromInt(int64(1 + rng.Intn(18)))
			}
			line := purchases.PriceLine(in)
			line.ID = int64(l + 1)
			inv.Lines = append(inv.Lines, line)
			total = total.Add(line.LineTotal)
		}
		inv.Total = total
		fx.repo.invoices[1] = inv

		res, err := fx.engine.PostInvoiceJournal(context.Background(), 1)
		require.NoError(t, err)

		entry := fx.repo.entries[res.EntryID]
		require.True(t, entry.DrTotal.Equal(entry.CrTotal), "run %d: %s != %s", i, entry.DrTotal, entry.CrTotal)
		require.True(t, lineAmount(t, fx.repo.items[res.EntryID], supplierLedger, shared.SideCredit).Equal(total))
	}
}
