package core

import (
	"errors"
	"math"
	"testing"
)

func TestFormatGrouped(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{20000, "20,000"},
		{123456, "123,456"},
		{5000000, "5,000,000"},
		{-28000, "-28,000"},
		{-100000, "-100,000"},
		{4972000, "4,972,000"},
	}
	for _, tc := range cases {
		if got := FormatGrouped(tc.in); got != tc.out {
			t.Fatalf("%d expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Units: -1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Units: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	for _, units := range []int64{MaxAmount + 1, -MaxAmount - 1, math.MinInt64, math.MaxInt64} {
		if err := (Money{Units: units}).Validate(); !errors.Is(err, ErrAmountTooLarge) {
			t.Fatalf("Validate(%d) = %v, want ErrAmountTooLarge", units, err)
		}
	}
	if err := (Money{Units: -MaxAmount}).Validate(); err != nil {
		t.Fatalf("Validate(-MaxAmount) = %v", err)
	}
	if (Money{Units: -42}).Abs() != 42 {
		t.Fatalf("Abs mismatch")
	}
}
