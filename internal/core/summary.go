package core

import (
	"fmt"
	"sort"
	"time"
)

// MonthDays is the fixed length of a "month" window. Summaries rely on the
// approximation staying constant between releases.
const MonthDays = 30

const (
	WindowAll    WindowUnit = "all"
	WindowDays   WindowUnit = "days"
	WindowMonths WindowUnit = "months"
)

// WindowUnit selects how N is interpreted in a Window.
type WindowUnit string

// Window is the time range used to filter transactions before aggregation.
type Window struct {
	Unit WindowUnit
	N    int
}

func AllTime() Window { return Window{Unit: WindowAll} }

func LastDays(n int) Window { return Window{Unit: WindowDays, N: n} }

// LastMonths counts each month as MonthDays days.
func LastMonths(n int) Window { return Window{Unit: WindowMonths, N: n} }

func (w Window) IsAllTime() bool { return w.Unit == WindowAll || w.Unit == "" }

// Start returns the inclusive lower bound of the window. ok is false for all-time.
func (w Window) Start(now time.Time) (start time.Time, ok bool) {
	switch w.Unit {
	case WindowDays:
		return now.Add(-time.Duration(w.N) * 24 * time.Hour), true
	case WindowMonths:
		return now.Add(-time.Duration(w.N*MonthDays) * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// Contains reports whether ts falls inside the window evaluated at now.
func (w Window) Contains(ts, now time.Time) bool {
	start, ok := w.Start(now)
	if !ok {
		return true
	}
	return !ts.Before(start)
}

// Label is the Uzbek heading used in summary replies.
func (w Window) Label() string {
	switch w.Unit {
	case WindowDays:
		return fmt.Sprintf("Oxirgi %d kun", w.N)
	case WindowMonths:
		return fmt.Sprintf("Oxirgi %d oy", w.N)
	default:
		return "Butun davr"
	}
}

// Summary holds income and expense totals. Expense is a magnitude.
type Summary struct {
	Income  int64
	Expense int64
	Balance int64
}

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// SortCategoryAmounts orders a category mapping by amount descending, then by
// classification priority so equal totals render in a stable order.
func SortCategoryAmounts(m map[Category]int64) []CategoryAmount {
	rank := map[Category]int{}
	for i, c := range Categories() {
		rank[c] = i
	}
	out := make([]CategoryAmount, 0, len(m))
	for c, v := range m {
		out = append(out, CategoryAmount{Category: c, Amount: Money{Units: v}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Units != out[j].Amount.Units {
			return out[i].Amount.Units > out[j].Amount.Units
		}
		return rank[out[i].Category] < rank[out[j].Category]
	})
	return out
}
