package journals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
	"github.com/temple-erp/temple-erp/internal/platform/db"
)

// Repository persists journal entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional posting operations.
type TxRepository interface {
	NextEntryCode(ctx context.Context, entryType EntryType, period string) (string, error)
	InsertEntry(ctx context.Context, code string, in PostingInput) (Entry, error)
	InsertEntryItems(ctx context.Context, entryID int64, lines []PostingLineInput) error
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("journals repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// NextEntryCode reserves the next sequence number for the type and period.
// The counter row is locked by the upsert, so two concurrent postings in the
// same scope cannot observe the same number.
func (r *txRepository) NextEntryCode(ctx context.Context, entryType EntryType, period string) (string, error) {
	return NextEntryCode(ctx, r.tx, entryType, period)
}

// NextEntryCode reserves the next entry code inside an existing transaction.
// Other modules that post journal entries in their own transactions share it
// so the sequence tables have a single owner.
func NextEntryCode(ctx context.Context, tx pgx.Tx, entryType EntryType, period string) (string, error) {
	var number int64
	err := tx.QueryRow(ctx, `INSERT INTO entry_sequences (entry_type, period, last_number) VALUES ($1,$2,1)
ON CONFLICT (entry_type, period) DO UPDATE SET last_number = entry_sequences.last_number + 1
RETURNING last_number`, entryType, period).Scan(&number)
	if err != nil {
		return "", err
	}
	return FormatEntryCode(entryType, period, number), nil
}

func (r *txRepository) InsertEntry(ctx context.Context, code string, in PostingInput) (Entry, error) {
	return InsertEntry(ctx, r.tx, code, in)
}

// InsertEntry writes the entry header inside an existing transaction.
func InsertEntry(ctx context.Context, tx pgx.Tx, code string, in PostingInput) (Entry, error) {
	dr, cr := in.Totals()
	row := tx.QueryRow(ctx, `INSERT INTO entries (code, entry_type, date, fund_id, narration, dr_total, cr_total)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at, updated_at`,
		code, in.Type, in.Date, in.FundID, in.Narration, dr, cr)
	entry := Entry{
		Code:      code,
		Type:      in.Type,
		Date:      in.Date,
		FundID:    in.FundID,
		Narration: in.Narration,
		DrTotal:   dr,
		CrTotal:   cr,
	}
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertEntryItems(ctx context.Context, entryID int64, lines []PostingLineInput) error {
	return InsertEntryItems(ctx, r.tx, entryID, lines)
}

// InsertEntryItems writes the entry lines inside an existing transaction.
func InsertEntryItems(ctx context.Context, tx pgx.Tx, entryID int64, lines []PostingLineInput) error {
	for _, line := range lines {
		if _, err := tx.Exec(ctx, `INSERT INTO entry_items (entry_id, ledger_id, side, amount, narration)
VALUES ($1,$2,$3,$4,$5)`, entryID, line.LedgerID, line.Side, line.Amount, line.Narration); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	return LinkSource(ctx, r.tx, module, ref, entryID)
}

// LinkSource records the source document link inside an existing
// transaction, mapping the unique constraint to ErrSourceConflict.
func LinkSource(ctx context.Context, tx pgx.Tx, module string, ref uuid.UUID, entryID int64) error {
	_, err := tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, entry_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_source_links" {
			return shared.ErrSourceConflict
		}
		return err
	}
	return nil
}

// GetEntryWithItems loads a posted entry and its items.
func (r *Repository) GetEntryWithItems(ctx context.Context, entryID int64) (Entry, error) {
	var entry Entry
	err := r.pool.QueryRow(ctx, `SELECT id, code, entry_type, date, fund_id, narration, dr_total, cr_total, created_at, updated_at
FROM entries WHERE id=$1`, entryID).
		Scan(&entry.ID, &entry.Code, &entry.Type, &entry.Date, &entry.FundID, &entry.Narration, &entry.DrTotal, &entry.CrTotal, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrEntryNotFound
		}
		return Entry{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, entry_id, ledger_id, side, amount, narration, is_reconciled, reconciled_at, created_at
FROM entry_items WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return Entry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item EntryItem
		if err := rows.Scan(&item.ID, &item.EntryID, &item.LedgerID, &item.Side, &item.Amount, &item.Narration, &item.IsReconciled, &item.ReconciledAt, &item.CreatedAt); err != nil {
			return Entry{}, err
		}
		entry.Items = append(entry.Items, item)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ListEntries returns entry headers, newest first.
func (r *Repository) ListEntries(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, entry_type, date, fund_id, narration, dr_total, cr_total, created_at, updated_at
FROM entries ORDER BY date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Code, &e.Type, &e.Date, &e.FundID, &e.Narration, &e.DrTotal, &e.CrTotal, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
