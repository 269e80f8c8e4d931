package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/temple-erp/temple-erp/internal/platform/db"
)

// Repository persists purchase invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetWithLines(ctx context.Context, id int64) (PurchaseInvoice, error)
	List(ctx context.Context, limit int) ([]PurchaseInvoice, error)
}

// TxRepository exposes transactional invoice writes.
type TxRepository interface {
	NextInvoiceNumber(ctx context.Context, date time.Time) (string, error)
	InsertInvoice(ctx context.Context, in CreateInvoiceInput, invoice PurchaseInvoice) (int64, error)
	InsertLine(ctx context.Context, invoiceID int64, line InvoiceLine) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed invoice repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// NextInvoiceNumber reserves the next sequential invoice number for the
// calendar year of the invoice date.
func (r *txRepository) NextInvoiceNumber(ctx context.Context, date time.Time) (string, error) {
	scope := date.Format("2006")
	var number int64
	err := r.tx.QueryRow(ctx, `INSERT INTO invoice_sequences (scope, last_number) VALUES ($1,1)
ON CONFLICT (scope) DO UPDATE SET last_number = invoice_sequences.last_number + 1
RETURNING last_number`, scope).Scan(&number)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PI/%s/%05d", scope, number), nil
}

func (r *txRepository) InsertInvoice(ctx context.Context, in CreateInvoiceInput, invoice PurchaseInvoice) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_invoices (number, supplier_id, date, shipping_charges, other_charges, total, is_migrated)
VALUES ($1,$2,$3,$4,$5,$6,FALSE) RETURNING id`,
		invoice.Number, in.SupplierID, in.Date, in.ShippingCharges, in.OtherCharges, invoice.Total).Scan(&id)
	return id, err
}

func (r *txRepository) InsertLine(ctx context.Context, invoiceID int64, line InvoiceLine) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO purchase_invoice_lines
(invoice_id, product_id, service_id, description, qty, unit_price, subtotal, tax_rate_id, tax_pct, tax_amount, line_total)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		invoiceID, line.ProductID, line.ServiceID, line.Description, line.Qty, line.UnitPrice,
		line.Subtotal, line.TaxRateID, line.TaxPct, line.TaxAmount, line.LineTotal)
	return err
}

const invoiceColumns = `id, number, supplier_id, date, shipping_charges, other_charges, total, is_migrated, entry_id, created_at, updated_at`

func scanInvoice(row pgx.Row) (PurchaseInvoice, error) {
	var inv PurchaseInvoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.SupplierID, &inv.Date, &inv.ShippingCharges, &inv.OtherCharges,
		&inv.Total, &inv.IsMigrated, &inv.EntryID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseInvoice{}, ErrInvoiceNotFound
		}
		return PurchaseInvoice{}, err
	}
	return inv, nil
}

func (r *repository) GetWithLines(ctx context.Context, id int64) (PurchaseInvoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM purchase_invoices WHERE id=$1`, id))
	if err != nil {
		return PurchaseInvoice{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, invoice_id, product_id, service_id, description, qty, unit_price, subtotal, tax_rate_id, tax_pct, tax_amount, line_total
FROM purchase_invoice_lines WHERE invoice_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return PurchaseInvoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.ProductID, &line.ServiceID, &line.Description,
			&line.Qty, &line.UnitPrice, &line.Subtotal, &line.TaxRateID, &line.TaxPct, &line.TaxAmount, &line.LineTotal); err != nil {
			return PurchaseInvoice{}, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return PurchaseInvoice{}, err
	}
	return inv, nil
}

func (r *repository) List(ctx context.Context, limit int) ([]PurchaseInvoice, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM purchase_invoices ORDER BY date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
