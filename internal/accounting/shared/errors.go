package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: entry items must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: entry requires at least two items")
	// ErrSourceAlreadyLinked indicates idempotency conflict.
	ErrSourceAlreadyLinked = errors.New("accounting: source already linked")
	// ErrEntryNotFound indicates missing entry.
	ErrEntryNotFound = errors.New("accounting: entry not found")
	// ErrLedgerNotFound indicates missing ledger.
	ErrLedgerNotFound = errors.New("accounting: ledger not found")
	// ErrLedgerInUse indicates the ledger still has postings or references.
	ErrLedgerInUse = errors.New("accounting: ledger has transactions or references")
	// ErrMappingNotFound indicates a ledger mapping is missing.
	ErrMappingNotFound = errors.New("accounting: ledger mapping not found")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("accounting: source link conflict")
	// ErrNoActiveFiscalYear indicates no fiscal year is marked active.
	ErrNoActiveFiscalYear = errors.New("accounting: no active fiscal year")
	// ErrFiscalYearNotFound indicates no fiscal year covers the date.
	ErrFiscalYearNotFound = errors.New("accounting: fiscal year not found")
	// ErrNoActiveFund indicates no active fund exists for posting.
	ErrNoActiveFund = errors.New("accounting: no active fund")
	// ErrInvalidSide indicates an unrecognised debit/credit marker.
	ErrInvalidSide = errors.New("accounting: invalid side")
)

// MappingError reports which ledger mapping was missing during posting.
type MappingError struct {
	Kind string
	Ref  int64
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("accounting: no ledger mapped for %s %d", e.Kind, e.Ref)
}

// Unwrap lets callers match with errors.Is(err, ErrMappingNotFound).
func (e *MappingError) Unwrap() error {
	return ErrMappingNotFound
}

// ImbalanceError reports the debit and credit totals of a rejected entry.
type ImbalanceError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("accounting: entry out of balance: debit %s credit %s", e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

func (e *ImbalanceError) Unwrap() error {
	return ErrUnbalanced
}
