package shared

import "strings"

// Side marks an entry item or balance as debit or credit.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// ParseSide normalises external debit/credit markers case-insensitively.
func ParseSide(raw string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBIT", "DR", "D":
		return SideDebit, nil
	case "CREDIT", "CR", "C":
		return SideCredit, nil
	default:
		return "", ErrInvalidSide
	}
}

// Valid reports whether the side holds a recognised value.
func (s Side) Valid() bool {
	return s == SideDebit || s == SideCredit
}

// Label returns the conventional short display form.
func (s Side) Label() string {
	if s == SideCredit {
		return "Cr"
	}
	return "Dr"
}
