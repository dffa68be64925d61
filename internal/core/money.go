// Package core provides the ledger domain types.
//
// This file contains the integer money type and its grouped-thousands rendering.
// The currency has no fractional unit, so amounts are whole so'm.
package core

import "github.com/dustin/go-humanize"

// MaxAmount bounds the magnitude of one record so ledger totals stay far
// from int64 overflow.
const MaxAmount int64 = 1_000_000_000_000_000

// Money is a signed whole-currency amount.
type Money struct {
	Units int64
}

// Validate rejects zero amounts and magnitudes above MaxAmount.
func (m Money) Validate() error {
	if m.Units == 0 {
		return ErrZeroAmount
	}
	if m.Units > MaxAmount || m.Units < -MaxAmount {
		return ErrAmountTooLarge
	}
	return nil
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() int64 {
	if m.Units < 0 {
		return -m.Units
	}
	return m.Units
}

// String renders the amount with comma-grouped thousands.
//
// Examples:
//
//	Money{5000000}.String() -> "5,000,000"
//	Money{-20000}.String()  -> "-20,000"
func (m Money) String() string {
	return FormatGrouped(m.Units)
}

// FormatGrouped renders n with a comma between every group of three digits.
func FormatGrouped(n int64) string {
	return humanize.Comma(n)
}
