package ledgers

import (
	"context"
	"errors"
	"strings"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// Service coordinates chart of accounts maintenance.
type Service struct {
	repo Repository
}

// NewService constructs the ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(code, name string, side shared.Side) error {
	if strings.TrimSpace(code) == "" {
		return errors.New("ledger code is required")
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("ledger name is required")
	}
	if !side.Valid() {
		return shared.ErrInvalidSide
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CreateLedgerInput) (Ledger, error) {
	if err := s.validate(in.Code, in.Name, in.NormalSide); err != nil {
		return Ledger{}, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, in UpdateLedgerInput) (Ledger, error) {
	if in.ID == 0 {
		return Ledger{}, errors.New("ledger id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return Ledger{}, errors.New("ledger name is required")
	}
	return s.repo.Update(ctx, in)
}

func (s *Service) Get(ctx context.Context, id int64) (Ledger, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Ledger, error) {
	return s.repo.List(ctx, activeOnly)
}

// IsInventory reports whether the ledger carries inventory quantities.
func (s *Service) IsInventory(ctx context.Context, id int64) (bool, error) {
	ledger, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return ledger.IsInventory, nil
}

// Delete soft-deletes a ledger. It is rejected while any posted entry item
// or master reference still points at the ledger.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	postings, references, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if postings > 0 || references > 0 {
		return shared.ErrLedgerInUse
	}
	return s.repo.Deactivate(ctx, id)
}
