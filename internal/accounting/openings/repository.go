package openings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists opening balances.
type Repository interface {
	Upsert(ctx context.Context, ledgerID, fiscalYearID int64, dr, cr decimal.Decimal, qty, unitPrice *decimal.Decimal, uomID *int64) (OpeningBalance, error)
	Get(ctx context.Context, ledgerID, fiscalYearID int64) (OpeningBalance, bool, error)
	ListByYear(ctx context.Context, fiscalYearID int64) ([]OpeningBalance, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed opening balance repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const obColumns = `id, ledger_id, fiscal_year_id, dr_amount, cr_amount, quantity, unit_price, uom_id, created_at, updated_at`

func scanOpening(row pgx.Row) (OpeningBalance, error) {
	var b OpeningBalance
	err := row.Scan(&b.ID, &b.LedgerID, &b.FiscalYearID, &b.DrAmount, &b.CrAmount, &b.Quantity, &b.UnitPrice, &b.UomID, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// Upsert writes the opening balance for (ledger, fiscal year), replacing any
// existing row.
func (r *repository) Upsert(ctx context.Context, ledgerID, fiscalYearID int64, dr, cr decimal.Decimal, qty, unitPrice *decimal.Decimal, uomID *int64) (OpeningBalance, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO opening_balances (ledger_id, fiscal_year_id, dr_amount, cr_amount, quantity, unit_price, uom_id)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (ledger_id, fiscal_year_id) DO UPDATE
SET dr_amount=EXCLUDED.dr_amount, cr_amount=EXCLUDED.cr_amount, quantity=EXCLUDED.quantity,
    unit_price=EXCLUDED.unit_price, uom_id=EXCLUDED.uom_id, updated_at=NOW()
RETURNING `+obColumns, ledgerID, fiscalYearID, dr, cr, qty, unitPrice, uomID)
	return scanOpening(row)
}

func (r *repository) Get(ctx context.Context, ledgerID, fiscalYearID int64) (OpeningBalance, bool, error) {
	b, err := scanOpening(r.db.QueryRow(ctx, `SELECT `+obColumns+` FROM opening_balances WHERE ledger_id=$1 AND fiscal_year_id=$2`, ledgerID, fiscalYearID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OpeningBalance{}, false, nil
		}
		return OpeningBalance{}, false, err
	}
	return b, true, nil
}

func (r *repository) ListByYear(ctx context.Context, fiscalYearID int64) ([]OpeningBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT `+obColumns+` FROM opening_balances WHERE fiscal_year_id=$1 ORDER BY ledger_id`, fiscalYearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OpeningBalance
	for rows.Next() {
		b, err := scanOpening(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
