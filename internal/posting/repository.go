package posting

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/temple-erp/temple-erp/internal/accounting/journals"
	"github.com/temple-erp/temple-erp/internal/platform/db"
	"github.com/temple-erp/temple-erp/internal/purchases"
)

// Repository runs invoice postings. It owns every statement the posting
// transaction needs so that the entry, its items, the source link and the
// invoice flag commit or roll back together.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed posting repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("posting repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetInvoiceForUpdate locks the invoice header so concurrent postings of the
// same invoice serialise on the row.
func (r *txRepository) GetInvoiceForUpdate(ctx context.Context, invoiceID int64) (purchases.PurchaseInvoice, error) {
	var inv purchases.PurchaseInvoice
	err := r.tx.QueryRow(ctx, `SELECT id, number, supplier_id, date, shipping_charges, other_charges, total, is_migrated, entry_id, created_at, updated_at
FROM purchase_invoices WHERE id=$1 FOR UPDATE`, invoiceID).
		Scan(&inv.ID, &inv.Number, &inv.SupplierID, &inv.Date, &inv.ShippingCharges, &inv.OtherCharges,
			&inv.Total, &inv.IsMigrated, &inv.EntryID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return purchases.PurchaseInvoice{}, purchases.ErrInvoiceNotFound
		}
		return purchases.PurchaseInvoice{}, err
	}
	return inv, nil
}

// Entry, item and source-link statements live in the journals package; the
// posting transaction reuses them against its own pgx.Tx.
func (r *txRepository) NextEntryCode(ctx context.Context, entryType journals.EntryType, period string) (string, error) {
	return journals.NextEntryCode(ctx, r.tx, entryType, period)
}

func (r *txRepository) InsertEntry(ctx context.Context, code string, in journals.PostingInput) (journals.Entry, error) {
	return journals.InsertEntry(ctx, r.tx, code, in)
}

func (r *txRepository) InsertEntryItems(ctx context.Context, entryID int64, lines []journals.PostingLineInput) error {
	return journals.InsertEntryItems(ctx, r.tx, entryID, lines)
}

func (r *txRepository) LinkSource(ctx context.Context, module string, refID int64, entryID int64) error {
	return journals.LinkSource(ctx, r.tx, module, journals.NewSourceID(module, refID), entryID)
}

func (r *txRepository) MarkInvoiceMigrated(ctx context.Context, invoiceID, entryID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE purchase_invoices SET is_migrated=TRUE, entry_id=$2, updated_at=NOW()
WHERE id=$1 AND NOT is_migrated`, invoiceID, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_purchase_invoices_entry" {
			return purchases.ErrAlreadyMigrated
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return purchases.ErrAlreadyMigrated
	}
	return nil
}
