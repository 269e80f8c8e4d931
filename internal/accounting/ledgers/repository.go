package ledgers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// Repository persists chart of accounts nodes.
type Repository interface {
	Create(ctx context.Context, in CreateLedgerInput) (Ledger, error)
	Update(ctx context.Context, in UpdateLedgerInput) (Ledger, error)
	Get(ctx context.Context, id int64) (Ledger, error)
	List(ctx context.Context, activeOnly bool) ([]Ledger, error)
	CountReferences(ctx context.Context, id int64) (postings int64, references int64, err error)
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed ledger repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const ledgerColumns = `id, code, name, normal_side, is_bank, is_inventory, has_aging, has_credit_aging, has_reconciliation, is_active, created_at, updated_at`

func scanLedger(row pgx.Row) (Ledger, error) {
	var l Ledger
	err := row.Scan(&l.ID, &l.Code, &l.Name, &l.NormalSide, &l.IsBank, &l.IsInventory, &l.HasAging, &l.HasCreditAging, &l.HasReconciliation, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ledger{}, shared.ErrLedgerNotFound
		}
		return Ledger{}, err
	}
	return l, nil
}

func (r *repository) Create(ctx context.Context, in CreateLedgerInput) (Ledger, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO ledgers (code, name, normal_side, is_bank, is_inventory, has_aging, has_credit_aging, has_reconciliation, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,TRUE) RETURNING `+ledgerColumns,
		in.Code, in.Name, in.NormalSide, in.IsBank, in.IsInventory, in.HasAging, in.HasCreditAging, in.HasReconciliation)
	return scanLedger(row)
}

func (r *repository) Update(ctx context.Context, in UpdateLedgerInput) (Ledger, error) {
	row := r.db.QueryRow(ctx, `UPDATE ledgers SET name=$2, is_bank=$3, is_inventory=$4, has_aging=$5, has_credit_aging=$6, has_reconciliation=$7, updated_at=NOW()
WHERE id=$1 AND is_active RETURNING `+ledgerColumns,
		in.ID, in.Name, in.IsBank, in.IsInventory, in.HasAging, in.HasCreditAging, in.HasReconciliation)
	return scanLedger(row)
}

func (r *repository) Get(ctx context.Context, id int64) (Ledger, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM ledgers WHERE id=$1`, id)
	return scanLedger(row)
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Ledger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledgers ORDER BY code`
	if activeOnly {
		query = `SELECT ` + ledgerColumns + ` FROM ledgers WHERE is_active ORDER BY code`
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Ledger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CountReferences returns posted entry items against the ledger and rows in
// other masters (mappings, opening balances) that still point at it.
func (r *repository) CountReferences(ctx context.Context, id int64) (int64, int64, error) {
	var postings, mappings, openings int64
	err := r.db.QueryRow(ctx, `SELECT
	(SELECT COUNT(*) FROM entry_items WHERE ledger_id=$1),
	(SELECT COUNT(*) FROM ledger_mappings WHERE ledger_id=$1),
	(SELECT COUNT(*) FROM opening_balances WHERE ledger_id=$1)`, id).
		Scan(&postings, &mappings, &openings)
	if err != nil {
		return 0, 0, err
	}
	return postings, mappings + openings, nil
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE ledgers SET is_active=FALSE, updated_at=NOW() WHERE id=$1 AND is_active`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrLedgerNotFound
	}
	return nil
}
