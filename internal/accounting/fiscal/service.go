package fiscal

import (
	"context"
	"time"
)

// Service exposes fiscal year and fund lookups to the rest of the system.
type Service struct {
	repo Repository
}

// NewService constructs the fiscal service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetActiveYear returns the single active fiscal year.
func (s *Service) GetActiveYear(ctx context.Context) (Year, error) {
	return s.repo.GetActiveYear(ctx)
}

// YearForDate returns the fiscal year containing the date.
func (s *Service) YearForDate(ctx context.Context, date time.Time) (Year, error) {
	return s.repo.YearForDate(ctx, date)
}

// PeriodForDate returns the entry-code period scope for a posting date.
func (s *Service) PeriodForDate(ctx context.Context, date time.Time) (string, error) {
	year, err := s.repo.YearForDate(ctx, date)
	if err != nil {
		return "", err
	}
	return year.Code, nil
}

// ListYears returns all fiscal years ordered by start date.
func (s *Service) ListYears(ctx context.Context) ([]Year, error) {
	return s.repo.ListYears(ctx)
}

// ActivateYear switches the active fiscal year.
func (s *Service) ActivateYear(ctx context.Context, yearID int64) error {
	return s.repo.ActivateYear(ctx, yearID)
}

// ListFunds returns funds, optionally only active ones.
func (s *Service) ListFunds(ctx context.Context, activeOnly bool) ([]Fund, error) {
	return s.repo.ListFunds(ctx, activeOnly)
}

// FirstActiveFund returns the default fund used for automatic postings.
func (s *Service) FirstActiveFund(ctx context.Context) (Fund, error) {
	return s.repo.FirstActiveFund(ctx)
}
