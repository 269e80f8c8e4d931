package mappings

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// Repository resolves and maintains ledger mappings.
type Repository interface {
	Resolve(ctx context.Context, module string, refID int64) (LedgerMapping, error)
	Set(ctx context.Context, module string, refID, ledgerID int64) (LedgerMapping, error)
	ListByModule(ctx context.Context, module string) ([]LedgerMapping, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed mapping repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Resolve returns the ledger mapped for a master record.
func (r *repository) Resolve(ctx context.Context, module string, refID int64) (LedgerMapping, error) {
	if module == "" || refID == 0 {
		return LedgerMapping{}, errors.New("mappings: module and ref required")
	}
	normalized := strings.ToUpper(module)
	var m LedgerMapping
	err := r.db.QueryRow(ctx, `SELECT module, ref_id, ledger_id, created_at, updated_at FROM ledger_mappings WHERE module=$1 AND ref_id=$2`, normalized, refID).
		Scan(&m.Module, &m.RefID, &m.LedgerID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LedgerMapping{}, shared.ErrMappingNotFound
		}
		return LedgerMapping{}, err
	}
	return m, nil
}

// Set upserts the mapping for a master record.
func (r *repository) Set(ctx context.Context, module string, refID, ledgerID int64) (LedgerMapping, error) {
	if module == "" || refID == 0 || ledgerID == 0 {
		return LedgerMapping{}, errors.New("mappings: module, ref and ledger required")
	}
	normalized := strings.ToUpper(module)
	var m LedgerMapping
	err := r.db.QueryRow(ctx, `INSERT INTO ledger_mappings (module, ref_id, ledger_id) VALUES ($1,$2,$3)
ON CONFLICT (module, ref_id) DO UPDATE SET ledger_id=EXCLUDED.ledger_id, updated_at=NOW()
RETURNING module, ref_id, ledger_id, created_at, updated_at`, normalized, refID, ledgerID).
		Scan(&m.Module, &m.RefID, &m.LedgerID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return LedgerMapping{}, err
	}
	return m, nil
}

func (r *repository) ListByModule(ctx context.Context, module string) ([]LedgerMapping, error) {
	rows, err := r.db.Query(ctx, `SELECT module, ref_id, ledger_id, created_at, updated_at FROM ledger_mappings WHERE module=$1 ORDER BY ref_id`, strings.ToUpper(module))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerMapping
	for rows.Next() {
		var m LedgerMapping
		if err := rows.Scan(&m.Module, &m.RefID, &m.LedgerID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
