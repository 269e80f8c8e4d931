package openings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	dec := decimal.RequireFromString(v)
	return &dec
}

type memoryOpeningsRepo struct {
	rows map[[2]int64]OpeningBalance
}

func newMemoryOpeningsRepo() *memoryOpeningsRepo {
	return &memoryOpeningsRepo{rows: make(map[[2]int64]OpeningBalance)}
}

func (m *memoryOpeningsRepo) Upsert(ctx context.Context, ledgerID, fiscalYearID int64, dr, cr decimal.Decimal, qty, price *decimal.Decimal, uomID *int64) (OpeningBalance, error) {
	key := [2]int64{ledgerID, fiscalYearID}
	row, exists := m.rows[key]
	if !exists {
		row = OpeningBalance{ID: int64(len(m.rows) + 1), LedgerID: ledgerID, FiscalYearID: fiscalYearID}
	}
	row.DrAmount, row.CrAmount = dr, cr
	row.Quantity, row.UnitPrice, row.UomID = qty, price, uomID
	m.rows[key] = row
	return row, nil
}

func (m *memoryOpeningsRepo) Get(ctx context.Context, ledgerID, fiscalYearID int64) (OpeningBalance, bool, error) {
	row, ok := m.rows[[2]int64{ledgerID, fiscalYearID}]
	return row, ok, nil
}

func (m *memoryOpeningsRepo) ListByYear(ctx context.Context, fiscalYearID int64) ([]OpeningBalance, error) {
	var out []OpeningBalance
	for key, row := range m.rows {
		if key[1] == fiscalYearID {
			out = append(out, row)
		}
	}
	return out, nil
}

type stubLedgers struct {
	inventory map[int64]bool
}

func (s stubLedgers) IsInventory(ctx context.Context, ledgerID int64) (bool, error) {
	return s.inventory[ledgerID], nil
}

func newTestService() (*Service, *memoryOpeningsRepo) {
	repo := newMemoryOpeningsRepo()
	svc := NewService(repo, stubLedgers{inventory: map[int64]bool{2: true}})
	return svc, repo
}

func TestSetNormalisesSide(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, err := svc.Set(ctx, SetOpeningBalanceInput{LedgerID: 1, FiscalYearID: 1, Amount: d("250.00"), Side: "dr"})
	require.NoError(t, err)
	require.True(t, res.DrAmount.Equal(d("250.00")))
	require.True(t, res.CrAmount.IsZero())
	require.True(t, res.Signed().Equal(d("250.00")))

	res, err = svc.Set(ctx, SetOpeningBalanceInput{LedgerID: 1, FiscalYearID: 1, Amount: d("80.00"), Side: "CREDIT"})
	require.NoError(t, err)
	require.True(t, res.DrAmount.IsZero())
	require.True(t, res.CrAmount.Equal(d("80.00")))
	require.True(t, res.Signed().Equal(d("-80.00")))
}

func TestSetUpsertsSameKey(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, err := svc.Set(ctx, SetOpeningBalanceInput{LedgerID: 1, FiscalYearID: 1, Amount: d("100"), Side: "D"})
	require.NoError(t, err)
	second, err := svc.Set(ctx, SetOpeningBalanceInput{LedgerID: 1, FiscalYearID: 1, Amount: d("300"), Side: "D"})
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.rows, 1)

	stored, found, err := svc.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, stored.DrAmount.Equal(d("300")))
}

func TestSetRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Set(ctx, SetOpeningBalanceInput{FiscalYearID: 1, Amount: d("10"), Side: "D"})
	require.ErrorIs(t, err, shared.ErrLedgerNotFound)

	_, err = svc.Set(ctx, SetOpeningBalanceInput{LedgerID: 1, Amount: d("10"), Side: "D"})
	require.ErrorIs(t, err, shared.ErrFiscalYearNotFound)

	_, err = svc.Set(ctx, SetOpeningBalanceInput{LedgerID: 1, FiscalYearID: 1, Amount: d("-5"), Side: "D"})
	require.Error(t, err)

	_, err = svc.Set(ctx, SetOpeningBalanceInput{LedgerID: 1, FiscalYearID: 1, Amount: d("5"), Side: "SIDEWAYS"})
	require.ErrorIs(t, err, shared.ErrInvalidSide)
}

func TestSetInventoryWarning(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Consistent quantity and price: no warning.
	res, err := svc.Set(ctx, SetOpeningBalanceInput{
		LedgerID: 2, FiscalYearID: 1, Amount: d("100.00"), Side: "D",
		Quantity: dp("10"), UnitPrice: dp("10.00"),
	})
	require.NoError(t, err)
	require.Empty(t, res.Warning)

	// Mismatch warns but still stores the supplied amount.
	res, err = svc.Set(ctx, SetOpeningBalanceInput{
		LedgerID: 2, FiscalYearID: 1, Amount: d("100.00"), Side: "D",
		Quantity: dp("10"), UnitPrice: dp("9.00"),
	})
	require.NoError(t, err)
	require.Contains(t, res.Warning, "90.00")
	require.True(t, res.DrAmount.Equal(d("100.00")))
}

func TestSetQuantityOnNonInventoryLedger(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Set(context.Background(), SetOpeningBalanceInput{
		LedgerID: 1, FiscalYearID: 1, Amount: d("50"), Side: "D",
		Quantity: dp("5"), UnitPrice: dp("10"),
	})
	require.Error(t, err)
	require.Empty(t, repo.rows)
}
