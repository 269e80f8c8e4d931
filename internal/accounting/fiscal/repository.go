package fiscal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// Repository persists fiscal years and funds.
type Repository interface {
	GetActiveYear(ctx context.Context) (Year, error)
	YearForDate(ctx context.Context, date time.Time) (Year, error)
	ListYears(ctx context.Context) ([]Year, error)
	ActivateYear(ctx context.Context, yearID int64) error
	ListFunds(ctx context.Context, activeOnly bool) ([]Fund, error)
	FirstActiveFund(ctx context.Context) (Fund, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed fiscal repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const yearColumns = `id, code, start_date, end_date, is_active, created_at, updated_at`

func scanYear(row pgx.Row) (Year, error) {
	var y Year
	err := row.Scan(&y.ID, &y.Code, &y.StartDate, &y.EndDate, &y.IsActive, &y.CreatedAt, &y.UpdatedAt)
	return y, err
}

func (r *repository) GetActiveYear(ctx context.Context) (Year, error) {
	y, err := scanYear(r.db.QueryRow(ctx, `SELECT `+yearColumns+` FROM fiscal_years WHERE is_active LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Year{}, shared.ErrNoActiveFiscalYear
		}
		return Year{}, err
	}
	return y, nil
}

func (r *repository) YearForDate(ctx context.Context, date time.Time) (Year, error) {
	y, err := scanYear(r.db.QueryRow(ctx, `SELECT `+yearColumns+` FROM fiscal_years
WHERE $1 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Year{}, shared.ErrFiscalYearNotFound
		}
		return Year{}, err
	}
	return y, nil
}

func (r *repository) ListYears(ctx context.Context) ([]Year, error) {
	rows, err := r.db.Query(ctx, `SELECT `+yearColumns+` FROM fiscal_years ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Year
	for rows.Next() {
		y, err := scanYear(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// ActivateYear marks one year active and the rest inactive in one transaction.
func (r *repository) ActivateYear(ctx context.Context, yearID int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `UPDATE fiscal_years SET is_active=FALSE, updated_at=NOW() WHERE is_active`); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `UPDATE fiscal_years SET is_active=TRUE, updated_at=NOW() WHERE id=$1`, yearID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrFiscalYearNotFound
	}
	return tx.Commit(ctx)
}

func (r *repository) ListFunds(ctx context.Context, activeOnly bool) ([]Fund, error) {
	query := `SELECT id, name, is_active, created_at, updated_at FROM funds ORDER BY id`
	if activeOnly {
		query = `SELECT id, name, is_active, created_at, updated_at FROM funds WHERE is_active ORDER BY id`
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Fund
	for rows.Next() {
		var f Fund
		if err := rows.Scan(&f.ID, &f.Name, &f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *repository) FirstActiveFund(ctx context.Context) (Fund, error) {
	var f Fund
	err := r.db.QueryRow(ctx, `SELECT id, name, is_active, created_at, updated_at FROM funds WHERE is_active ORDER BY id LIMIT 1`).
		Scan(&f.ID, &f.Name, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Fund{}, shared.ErrNoActiveFund
		}
		return Fund{}, err
	}
	return f, nil
}
