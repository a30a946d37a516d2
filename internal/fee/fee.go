// Package fee computes and owns the platform P2P fee configuration.
package fee

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/models"
)

// ErrInvalidConfig is returned when a fee configuration is rejected.
var ErrInvalidConfig = errors.New("invalid fee configuration")

const feeScale = 2

var hundred = decimal.NewFromInt(100)

// Calculate returns the fee charged on a fiat amount. A disabled config or a
// non-positive amount yields zero. The percentage fee is clamped to the
// configured bounds and is never negative.
func Calculate(amount decimal.Decimal, cfg models.FeeConfig) decimal.Decimal {
	if !cfg.Enabled || !amount.IsPositive() {
		return decimal.Zero
	}

	fee := amount.Mul(cfg.Percentage).Div(hundred)
	if cfg.MinFee.Valid && fee.LessThan(cfg.MinFee.Decimal) {
		fee = cfg.MinFee.Decimal
	}
	if cfg.MaxFee.Valid && fee.GreaterThan(cfg.MaxFee.Decimal) {
		fee = cfg.MaxFee.Decimal
	}
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee.Round(feeScale)
}

// Validate checks percentage and bounds.
func Validate(cfg models.FeeConfig) error {
	if cfg.Percentage.IsNegative() || cfg.Percentage.GreaterThan(hundred) {
		return fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalidConfig)
	}
	if cfg.MinFee.Valid && cfg.MinFee.Decimal.IsNegative() {
		return fmt.Errorf("%w: min_fee must not be negative", ErrInvalidConfig)
	}
	if cfg.MaxFee.Valid && cfg.MaxFee.Decimal.IsNegative() {
		return fmt.Errorf("%w: max_fee must not be negative", ErrInvalidConfig)
	}
	if cfg.MinFee.Valid && cfg.MaxFee.Valid && cfg.MinFee.Decimal.GreaterThan(cfg.MaxFee.Decimal) {
		return fmt.Errorf("%w: min_fee exceeds max_fee", ErrInvalidConfig)
	}
	return nil
}

// Store owns the process-wide fee configuration.
type Store struct {
	mu  sync.RWMutex
	cfg models.FeeConfig
	pub events.Publisher
}

// NewStore creates a store seeded with initial.
func NewStore(initial models.FeeConfig, pub events.Publisher) (*Store, error) {
	if err := Validate(initial); err != nil {
		return nil, err
	}
	return &Store{cfg: initial, pub: pub}, nil
}

// Get returns the current configuration.
func (s *Store) Get() models.FeeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Set replaces the configuration and publishes the change.
func (s *Store) Set(cfg models.FeeConfig) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.pub.Publish(events.FeeUpdated, cfg)
	return nil
}

// Quote returns the fee for amount under the current configuration.
func (s *Store) Quote(amount decimal.Decimal) decimal.Decimal {
	return Calculate(amount, s.Get())
}
