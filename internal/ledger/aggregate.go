package ledger

import (
	"sort"
	"time"

	"hisob/internal/core"
)

// Summarize totals income and expense magnitudes inside w.
func Summarize(txs []core.Transaction, w core.Window, now time.Time) core.Summary {
	var s core.Summary
	for _, tx := range txs {
		if !w.Contains(tx.Timestamp, now) {
			continue
		}
		if tx.Amount.Units > 0 {
			s.Income += tx.Amount.Units
		} else {
			s.Expense += -tx.Amount.Units
		}
	}
	s.Balance = s.Income - s.Expense
	return s
}

// GroupByCategory sums expense magnitudes per category inside w. Income is
// left out, so the values add up to Summarize(...).Expense.
func GroupByCategory(txs []core.Transaction, w core.Window, now time.Time) map[core.Category]int64 {
	out := map[core.Category]int64{}
	for _, tx := range txs {
		if tx.Amount.Units >= 0 || !w.Contains(tx.Timestamp, now) {
			continue
		}
		out[tx.Category] += -tx.Amount.Units
	}
	return out
}

// TopExpenses returns up to n expenses by descending magnitude. Equal
// magnitudes keep the earlier timestamp first, then the earlier insertion.
func TopExpenses(txs []core.Transaction, n int) []core.Transaction {
	if n <= 0 {
		return nil
	}
	expenses := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Amount.Units < 0 {
			expenses = append(expenses, tx)
		}
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		mi, mj := expenses[i].Magnitude(), expenses[j].Magnitude()
		if mi != mj {
			return mi > mj
		}
		return expenses[i].Timestamp.Before(expenses[j].Timestamp)
	})
	if len(expenses) > n {
		expenses = expenses[:n]
	}
	return expenses
}
