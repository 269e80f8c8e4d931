package journals

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
)

// PostingLineInput describes one entry item for a posting request.
type PostingLineInput struct {
	LedgerID  int64
	Side      shared.Side
	Amount    decimal.Decimal
	Narration string
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	Type         EntryType
	Date         time.Time
	FundID       int64
	Narration    string
	SourceModule string
	SourceID     uuid.UUID
	Lines        []PostingLineInput
}

// Totals sums the debit and credit sides of the posting lines.
func (in PostingInput) Totals() (dr, cr decimal.Decimal) {
	for _, line := range in.Lines {
		if line.Side == shared.SideCredit {
			cr = cr.Add(line.Amount)
		} else {
			dr = dr.Add(line.Amount)
		}
	}
	return dr, cr
}

// Validate ensures posting input meets minimum criteria.
func (in PostingInput) Validate() error {
	if !in.Type.Valid() {
		return errors.New("accounting: entry type required")
	}
	if in.Date.IsZero() {
		return errors.New("accounting: entry date required")
	}
	if in.FundID == 0 {
		return shared.ErrNoActiveFund
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	for idx, line := range in.Lines {
		if line.LedgerID == 0 {
			return fmt.Errorf("accounting: line %d missing ledger", idx)
		}
		if !line.Side.Valid() {
			return fmt.Errorf("accounting: line %d: %w", idx, shared.ErrInvalidSide)
		}
		if !line.Amount.IsPositive() {
			return fmt.Errorf("accounting: line %d amount must be positive", idx)
		}
	}
	dr, cr := in.Totals()
	if !dr.Equal(cr) {
		return &shared.ImbalanceError{Debit: dr, Credit: cr}
	}
	if in.SourceModule == "" {
		return errors.New("accounting: source module required")
	}
	if in.SourceID == uuid.Nil {
		return errors.New("accounting: source id required")
	}
	return nil
}
