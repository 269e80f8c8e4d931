package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntryWithItems(ctx context.Context, entryID int64) (Entry, error)
	ListEntries(ctx context.Context, limit int) ([]Entry, error)
}

// FiscalPort resolves the posting period for an entry date.
type FiscalPort interface {
	PeriodForDate(ctx context.Context, date time.Time) (string, error)
}

// Service posts balanced journal entries.
type Service struct {
	repo   RepositoryPort
	fiscal FiscalPort
	now    func() time.Time
}

// NewService constructs the journal service.
func NewService(repo RepositoryPort, fiscal FiscalPort) *Service {
	return &Service{repo: repo, fiscal: fiscal, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// FormatEntryCode renders the sequential code for an entry scope.
func FormatEntryCode(entryType EntryType, period string, number int64) string {
	return fmt.Sprintf("%s/%s/%06d", entryType.Prefix(), period, number)
}

// PostEntry validates and persists a new journal entry. The entry code is
// reserved, the header and items written, and the source linked inside one
// transaction; a duplicate source aborts the whole posting.
func (s *Service) PostEntry(ctx context.Context, input PostingInput) (Entry, error) {
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	period, err := s.fiscal.PeriodForDate(ctx, input.Date)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextEntryCode(ctx, input.Type, period)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, code, input)
		if err != nil {
			return err
		}
		if err := tx.InsertEntryItems(ctx, inserted.ID, input.Lines); err != nil {
			return err
		}
		if err := tx.LinkSource(ctx, input.SourceModule, input.SourceID, inserted.ID); err != nil {
			if errors.Is(err, shared.ErrSourceConflict) {
				return shared.ErrSourceAlreadyLinked
			}
			return err
		}
		inserted.Items = toEntryItems(inserted.ID, input.Lines, s.now())
		entry = inserted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Get loads one entry with its items.
func (s *Service) Get(ctx context.Context, entryID int64) (Entry, error) {
	if entryID == 0 {
		return Entry{}, shared.ErrEntryNotFound
	}
	return s.repo.GetEntryWithItems(ctx, entryID)
}

// List returns recent entries.
func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	return s.repo.ListEntries(ctx, limit)
}

// NewSourceID derives a stable idempotency key for a source document.
func NewSourceID(module string, refID int64) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("%s:%d", module, refID)))
}

func toEntryItems(entryID int64, lines []PostingLineInput, ts time.Time) []EntryItem {
	out := make([]EntryItem, 0, len(lines))
	for _, line := range lines {
		out = append(out, EntryItem{
			EntryID:   entryID,
			LedgerID:  line.LedgerID,
			Side:      line.Side,
			Amount:    line.Amount,
			Narration: line.Narration,
			CreatedAt: ts,
		})
	}
	return out
}
