package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository runs the read-only aggregate queries behind balances and
// statements.
type Repository interface {
	SumSides(ctx context.Context, ledgerID int64, cutoff time.Time, inclusive bool) (dr, cr decimal.Decimal, err error)
	ListLines(ctx context.Context, ledgerID int64, from, to time.Time) ([]StatementLine, error)
	LedgerTotals(ctx context.Context, fiscalYearID int64, from, to time.Time) ([]LedgerPeriodTotals, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed reporting repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// SumSides totals debit and credit entry items for the ledger up to the
// cutoff date, inclusive or strictly before.
func (r *repository) SumSides(ctx context.Context, ledgerID int64, cutoff time.Time, inclusive bool) (decimal.Decimal, decimal.Decimal, error) {
	op := "<"
	if inclusive {
		op = "<="
	}
	var dr, cr decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT
	COALESCE(SUM(ei.amount) FILTER (WHERE ei.side='DEBIT'), 0),
	COALESCE(SUM(ei.amount) FILTER (WHERE ei.side='CREDIT'), 0)
FROM entry_items ei
JOIN entries e ON e.id = ei.entry_id
WHERE ei.ledger_id = $1 AND e.date `+op+` $2`, ledgerID, cutoff).Scan(&dr, &cr)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return dr, cr, nil
}

// ListLines fetches the ledger's entry items inside [from, to] in statement
// order, with the counterparty sibling lookup resolved in SQL.
func (r *repository) ListLines(ctx context.Context, ledgerID int64, from, to time.Time) ([]StatementLine, error) {
	rows, err := r.db.Query(ctx, `SELECT
	ei.id, e.id, e.code, e.date, ei.side, ei.amount, ei.narration, e.narration,
	(SELECT COUNT(*) FROM entry_items s WHERE s.entry_id = e.id AND s.id <> ei.id),
	COALESCE((SELECT l.name FROM entry_items s JOIN ledgers l ON l.id = s.ledger_id
		WHERE s.entry_id = e.id AND s.id <> ei.id
		ORDER BY s.id LIMIT 1), '')
FROM entry_items ei
JOIN entries e ON e.id = ei.entry_id
WHERE ei.ledger_id = $1 AND e.date BETWEEN $2 AND $3
ORDER BY e.date ASC, e.id ASC, ei.id ASC`, ledgerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StatementLine
	for rows.Next() {
		var line StatementLine
		if err := rows.Scan(&line.ItemID, &line.EntryID, &line.EntryCode, &line.Date, &line.Side, &line.Amount,
			&line.ItemNarration, &line.EntryNarration, &line.SiblingCount, &line.SiblingLedger); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// LedgerTotals aggregates all active ledgers' opening rows and movement for
// the trial balance in one pass.
func (r *repository) LedgerTotals(ctx context.Context, fiscalYearID int64, from, to time.Time) ([]LedgerPeriodTotals, error) {
	rows, err := r.db.Query(ctx, `SELECT
	l.id, l.code, l.name,
	COALESCE(ob.dr_amount, 0), COALESCE(ob.cr_amount, 0),
	COALESCE(SUM(ei.amount) FILTER (WHERE ei.side='DEBIT'  AND e.date <  $2), 0),
	COALESCE(SUM(ei.amount) FILTER (WHERE ei.side='CREDIT' AND e.date <  $2), 0),
	COALESCE(SUM(ei.amount) FILTER (WHERE ei.side='DEBIT'  AND e.date >= $2 AND e.date <= $3), 0),
	COALESCE(SUM(ei.amount) FILTER (WHERE ei.side='CREDIT' AND e.date >= $2 AND e.date <= $3), 0)
FROM ledgers l
LEFT JOIN opening_balances ob ON ob.ledger_id = l.id AND ob.fiscal_year_id = $1
LEFT JOIN entry_items ei ON ei.ledger_id = l.id
LEFT JOIN entries e ON e.id = ei.entry_id AND e.date <= $3
WHERE l.is_active
GROUP BY l.id, l.code, l.name, ob.dr_amount, ob.cr_amount
ORDER BY l.code`, fiscalYearID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerPeriodTotals
	for rows.Next() {
		var t LedgerPeriodTotals
		if err := rows.Scan(&t.LedgerID, &t.Code, &t.Name, &t.OpeningDr, &t.OpeningCr,
			&t.PriorDr, &t.PriorCr, &t.PeriodDr, &t.PeriodCr); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
