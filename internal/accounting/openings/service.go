package openings

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// LedgerPort supplies the ledger flags the store needs.
type LedgerPort interface {
	IsInventory(ctx context.Context, ledgerID int64) (bool, error)
}

// Service maintains per-year opening balances.
type Service struct {
	repo    Repository
	ledgers LedgerPort
}

// NewService constructs the opening balance service.
func NewService(repo Repository, ledgers LedgerPort) *Service {
	return &Service{repo: repo, ledgers: ledgers}
}

// Set upserts the opening balance for (ledger, fiscal year). The amount is
// stored on the normalised side with the opposite side forced to zero. For
// inventory ledgers a quantity × unit price mismatch against the monetary
// amount is reported as a warning, never corrected.
func (s *Service) Set(ctx context.Context, in SetOpeningBalanceInput) (Result, error) {
	if in.LedgerID == 0 {
		return Result{}, shared.ErrLedgerNotFound
	}
	if in.FiscalYearID == 0 {
		return Result{}, shared.ErrFiscalYearNotFound
	}
	if in.Amount.IsNegative() {
		return Result{}, errors.New("openings: amount must not be negative")
	}
	side, err := in.normalise()
	if err != nil {
		return Result{}, err
	}
	dr, cr := decimal.Zero, decimal.Zero
	if side == shared.SideDebit {
		dr = in.Amount
	} else {
		cr = in.Amount
	}

	var warning string
	if in.Quantity != nil && in.UnitPrice != nil {
		inventory, err := s.ledgers.IsInventory(ctx, in.LedgerID)
		if err != nil {
			return Result{}, err
		}
		if !inventory {
			return Result{}, errors.New("openings: quantity only applies to inventory ledgers")
		}
		if implied := in.Quantity.Mul(*in.UnitPrice); !implied.Equal(in.Amount) {
			warning = fmt.Sprintf("quantity x unit price %s differs from amount %s", implied.StringFixed(2), in.Amount.StringFixed(2))
		}
	}

	stored, err := s.repo.Upsert(ctx, in.LedgerID, in.FiscalYearID, dr, cr, in.Quantity, in.UnitPrice, in.UomID)
	if err != nil {
		return Result{}, err
	}
	return Result{OpeningBalance: stored, Warning: warning}, nil
}

// Get returns the opening balance for (ledger, fiscal year) if one exists.
func (s *Service) Get(ctx context.Context, ledgerID, fiscalYearID int64) (OpeningBalance, bool, error) {
	return s.repo.Get(ctx, ledgerID, fiscalYearID)
}

// ListByYear returns all opening balances seeded for a fiscal year.
func (s *Service) ListByYear(ctx context.Context, fiscalYearID int64) ([]OpeningBalance, error) {
	return s.repo.ListByYear(ctx, fiscalYearID)
}
