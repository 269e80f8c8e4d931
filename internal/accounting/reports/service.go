package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/temple-erp/temple-erp/internal/accounting/fiscal"
	"github.com/temple-erp/temple-erp/internal/accounting/openings"
	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// FiscalPort resolves fiscal years for balance dates.
type FiscalPort interface {
	YearForDate(ctx context.Context, date time.Time) (fiscal.Year, error)
}

// OpeningsPort supplies the seeded opening balance, when one exists.
type OpeningsPort interface {
	Get(ctx context.Context, ledgerID, fiscalYearID int64) (openings.OpeningBalance, bool, error)
}

// Service computes balances, statements and the trial balance. All paths are
// read-only; concurrent identical balance reads are collapsed through
// singleflight.
type Service struct {
	repo     Repository
	fiscal   FiscalPort
	openings OpeningsPort
	cache    *BalanceCache
	group    singleflight.Group
}

// NewService constructs the reporting service. cache may be nil.
func NewService(repo Repository, fiscalPort FiscalPort, openingsPort OpeningsPort, cache *BalanceCache) *Service {
	return &Service{repo: repo, fiscal: fiscalPort, openings: openingsPort, cache: cache}
}

// openingSigned returns the opening-balance contribution for the fiscal year
// containing the date. A ledger or date outside any seeded year contributes
// zero.
func (s *Service) openingSigned(ctx context.Context, ledgerID int64, date time.Time) (decimal.Decimal, error) {
	year, err := s.fiscal.YearForDate(ctx, date)
	if err != nil {
		if errors.Is(err, shared.ErrFiscalYearNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	ob, found, err := s.openings.Get(ctx, ledgerID, year.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if !found {
		return decimal.Zero, nil
	}
	return ob.Signed(), nil
}

func (s *Service) signedBalance(ctx context.Context, ledgerID int64, asOf time.Time, inclusive bool) (decimal.Decimal, error) {
	opening, err := s.openingSigned(ctx, ledgerID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	dr, cr, err := s.repo.SumSides(ctx, ledgerID, asOf, inclusive)
	if err != nil {
		return decimal.Zero, err
	}
	return opening.Add(dr).Sub(cr), nil
}

// GetBalance computes the ledger balance as of a date: opening balance for
// the fiscal year containing the date plus all entry items dated on or
// before it. A ledger with no activity yields 0 Dr.
func (s *Service) GetBalance(ctx context.Context, ledgerID int64, asOf time.Time) (Balance, error) {
	if ledgerID == 0 {
		return Balance{}, shared.ErrLedgerNotFound
	}
	if signed, ok := s.cache.Get(ctx, ledgerID, asOf); ok {
		return BalanceFromSigned(signed), nil
	}
	key := fmt.Sprintf("%d:%s", ledgerID, asOf.Format("2006-01-02"))
	v, err, _ := s.group.Do(key, func() (any, error) {
		signed, err := s.signedBalance(ctx, ledgerID, asOf, true)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, ledgerID, asOf, signed)
		return signed, nil
	})
	if err != nil {
		return Balance{}, err
	}
	return BalanceFromSigned(v.(decimal.Decimal)), nil
}

// GetStatement produces the running-balance report for [from, to]. The
// opening row carries the balance strictly before the range start plus the
// ledger's fiscal-year opening contribution.
func (s *Service) GetStatement(ctx context.Context, ledgerID int64, from, to time.Time) (Statement, error) {
	if ledgerID == 0 {
		return Statement{}, shared.ErrLedgerNotFound
	}
	if to.Before(from) {
		return Statement{}, errors.New("reports: statement range is inverted")
	}
	openingSigned, err := s.signedBalance(ctx, ledgerID, from, false)
	if err != nil {
		return Statement{}, err
	}
	lines, err := s.repo.ListLines(ctx, ledgerID, from, to)
	if err != nil {
		return Statement{}, err
	}
	return BuildStatement(openingSigned, lines), nil
}

// GetTrialBalance aggregates every active ledger over [from, to].
func (s *Service) GetTrialBalance(ctx context.Context, from, to time.Time) (TrialBalance, error) {
	if to.Before(from) {
		return TrialBalance{}, errors.New("reports: trial balance range is inverted")
	}
	var fiscalYearID int64
	year, err := s.fiscal.YearForDate(ctx, from)
	if err == nil {
		fiscalYearID = year.ID
	} else if !errors.Is(err, shared.ErrFiscalYearNotFound) {
		return TrialBalance{}, err
	}
	totals, err := s.repo.LedgerTotals(ctx, fiscalYearID, from, to)
	if err != nil {
		return TrialBalance{}, err
	}
	return BuildTrialBalance(totals), nil
}
