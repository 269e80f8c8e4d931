package settings

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Keys for system settings consumed by the posting engine.
const (
	KeyTaxInclusive       = "purchase.tax_inclusive"
	KeyOtherChargesLedger = "ledger.other_charges"
)

// ErrUnset indicates the setting has no value.
var ErrUnset = errors.New("settings: not set")

// Store reads and writes system settings.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type store struct {
	db *pgxpool.Pool
}

// NewStore constructs the pgx-backed settings store.
func NewStore(db *pgxpool.Pool) Store {
	return &store{db: db}
}

func (s *store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUnset
		}
		return "", err
	}
	return value, nil
}

func (s *store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO settings (key, value) VALUES ($1,$2)
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`, key, value)
	return err
}

// Service exposes typed accessors over the raw store.
type Service struct {
	store Store
}

// NewService constructs the settings service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// IsTaxInclusive reports whether stored prices already contain tax.
// Unset means tax exclusive.
func (s *Service) IsTaxInclusive(ctx context.Context) (bool, error) {
	raw, err := s.store.Get(ctx, KeyTaxInclusive)
	if err != nil {
		if errors.Is(err, ErrUnset) {
			return false, nil
		}
		return false, err
	}
	return raw == "1" || raw == "true", nil
}

// SetTaxInclusive stores the tax mode.
func (s *Service) SetTaxInclusive(ctx context.Context, inclusive bool) error {
	value := "0"
	if inclusive {
		value = "1"
	}
	return s.store.Set(ctx, KeyTaxInclusive, value)
}

// OtherChargesLedgerID returns the configured other-charges ledger, or
// ErrUnset when none is configured.
func (s *Service) OtherChargesLedgerID(ctx context.Context) (int64, error) {
	raw, err := s.store.Get(ctx, KeyOtherChargesLedger)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrUnset
	}
	return id, nil
}

// SetOtherChargesLedgerID stores the other-charges ledger.
func (s *Service) SetOtherChargesLedgerID(ctx context.Context, ledgerID int64) error {
	return s.store.Set(ctx, KeyOtherChargesLedger, strconv.FormatInt(ledgerID, 10))
}
