package core

import (
	"strings"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		Amount:    Money{Units: -20000},
		Note:      "kofe",
		Category:  CategoryFood,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Amount: Money{Units: 1}, Category: CategoryOther}, // zero timestamp
		{Timestamp: good.Timestamp, Amount: Money{Units: 0}, Category: CategoryOther},
		{Timestamp: good.Timestamp, Amount: Money{Units: 1}, Category: "groceries"},
		{Timestamp: good.Timestamp, Amount: Money{Units: -MaxAmount - 1}, Category: CategoryOther},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	long := good
	long.Note = strings.Repeat("a", 4000)
	if err := long.Validate(); err != nil {
		t.Fatalf("long note rejected: %v", err)
	}
}

func TestTransactionKind(t *testing.T) {
	if k := (Transaction{Amount: Money{Units: 5}}).Kind(); k != KindIncome {
		t.Fatalf("positive amount kind = %s", k)
	}
	if k := (Transaction{Amount: Money{Units: -5}}).Kind(); k != KindExpense {
		t.Fatalf("negative amount kind = %s", k)
	}
	if m := (Transaction{Amount: Money{Units: -5}}).Magnitude(); m != 5 {
		t.Fatalf("magnitude = %d", m)
	}
}

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"food", CategoryFood, true},
		{" Aloqa ", CategoryCommunications, true},
		{"DAROMAD", CategoryIncome, true},
		{"misc", "", false},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestWindowContains(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	cases := []struct {
		name string
		w    Window
		ts   time.Time
		want bool
	}{
		{"all time keeps old records", AllTime(), now.Add(-1000 * day), true},
		{"inside days window", LastDays(3), now.Add(-2 * day), true},
		{"on the boundary", LastDays(3), now.Add(-3 * day), true},
		{"outside days window", LastDays(3), now.Add(-5 * day), false},
		{"month is thirty days", LastMonths(1), now.Add(-30 * day), true},
		{"day thirty one is outside", LastMonths(1), now.Add(-31 * day), false},
		{"three months", LastMonths(3), now.Add(-89 * day), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.w.Contains(tc.ts, now); got != tc.want {
				t.Errorf("Contains() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSortCategoryAmounts(t *testing.T) {
	got := SortCategoryAmounts(map[Category]int64{
		CategoryOther:     100,
		CategoryFood:      100,
		CategoryTransport: 500,
	})
	want := []Category{CategoryTransport, CategoryFood, CategoryOther}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, c := range want {
		if got[i].Category != c {
			t.Fatalf("position %d = %s, want %s", i, got[i].Category, c)
		}
	}
}
