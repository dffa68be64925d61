package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hisob/internal/core"
	"hisob/internal/sheets/memory"
)

var base = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// failingStore fails whichever operations are switched on.
type failingStore struct {
	*memory.Store
	failLoad, failAppend, failOverwrite bool
}

var errBoom = errors.New("boom")

func (f *failingStore) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	if f.failLoad {
		return nil, errBoom
	}
	return f.Store.LoadAll(ctx)
}

func (f *failingStore) Append(ctx context.Context, t core.Transaction) (string, error) {
	if f.failAppend {
		return "", errBoom
	}
	return f.Store.Append(ctx, t)
}

func (f *failingStore) OverwriteAll(ctx context.Context, txs []core.Transaction) error {
	if f.failOverwrite {
		return errBoom
	}
	return f.Store.OverwriteAll(ctx, txs)
}

func at(days int, units int64, note string, cat core.Category) core.Transaction {
	return core.Transaction{
		Timestamp: base.AddDate(0, 0, days),
		Amount:    core.Money{Units: units},
		Note:      note,
		Category:  cat,
	}
}

func TestAppendPersistsBeforeAcknowledging(t *testing.T) {
	store := memory.New()
	clock := &fakeClock{now: base}
	l := New(store, WithClock(clock.Now))

	tx, err := l.Append(context.Background(), Entry{Amount: -20000, Note: "kofe", Category: core.CategoryFood})
	if err != nil {
		t.Fatalf("Append error = %v", err)
	}
	if !tx.Timestamp.Equal(base) || tx.Amount.Units != -20000 {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if store.Len() != 1 || l.Count() != 1 {
		t.Fatalf("store=%d ledger=%d, want 1/1", store.Len(), l.Count())
	}
}

func TestAppendWriteFailureLeavesLedgerUnchanged(t *testing.T) {
	store := &failingStore{Store: memory.New(), failAppend: true}
	l := New(store)

	_, err := l.Append(context.Background(), Entry{Amount: 100, Note: "x", Category: core.CategoryIncome})
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("error = %v, want ErrWriteFailed", err)
	}
	if l.Count() != 0 {
		t.Fatalf("failed write was applied in memory")
	}
}

func TestAppendRejectsZeroAmount(t *testing.T) {
	l := New(memory.New())
	if _, err := l.Append(context.Background(), Entry{Amount: 0}); !errors.Is(err, core.ErrZeroAmount) {
		t.Fatalf("error = %v, want ErrZeroAmount", err)
	}
}

func TestAppendUnknownCategoryFallsBackToOther(t *testing.T) {
	l := New(memory.New())
	tx, err := l.Append(context.Background(), Entry{Amount: -5, Category: "weird"})
	if err != nil || tx.Category != core.CategoryOther {
		t.Fatalf("Append = %+v, %v", tx, err)
	}
}

func TestAppendTimestampsNeverDecrease(t *testing.T) {
	clock := &fakeClock{now: base}
	l := New(memory.New(), WithClock(clock.Now))

	if _, err := l.Append(context.Background(), Entry{Amount: -1}); err != nil {
		t.Fatal(err)
	}
	clock.Set(base.Add(-time.Hour))
	tx, err := l.Append(context.Background(), Entry{Amount: -2})
	if err != nil {
		t.Fatal(err)
	}
	if tx.Timestamp.Before(base) {
		t.Fatalf("timestamp went backwards: %v", tx.Timestamp)
	}
}

func TestLoadFailureKeepsLedgerEmpty(t *testing.T) {
	store := &failingStore{Store: memory.New(at(0, 10, "a", core.CategoryIncome)), failLoad: true}
	l := New(store)

	if err := l.Load(context.Background()); !errors.Is(err, ErrPersistenceUnavailable) {
		t.Fatalf("Load error = %v, want ErrPersistenceUnavailable", err)
	}
	if l.Loaded() || l.Count() != 0 {
		t.Fatalf("ledger should stay empty and unloaded")
	}

	store.failLoad = false
	if err := l.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("EnsureLoaded error = %v", err)
	}
	if !l.Loaded() || l.Count() != 1 {
		t.Fatalf("retry did not load the store")
	}
}

func TestLoadOrdersByTimestamp(t *testing.T) {
	store := memory.New(
		at(-1, -3, "second", core.CategoryOther),
		at(-5, -1, "first", core.CategoryOther),
		at(-1, -4, "third", core.CategoryOther),
	)
	l := New(store)
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := l.Snapshot()
	want := []string{"first", "second", "third"}
	for i, n := range want {
		if got[i].Note != n {
			t.Fatalf("position %d = %q, want %q", i, got[i].Note, n)
		}
	}
}

func TestSummarizeWindows(t *testing.T) {
	store := memory.New(
		at(0, -1000, "today", core.CategoryFood),
		at(-2, 5000, "two days", core.CategoryIncome),
		at(-5, -300, "five days", core.CategoryTransport),
		at(-15, -70, "fifteen days", core.CategoryOther),
	)
	l := New(store, WithClock(func() time.Time { return base }))
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		w       core.Window
		income  int64
		expense int64
	}{
		{core.LastDays(3), 5000, 1000},
		{core.LastDays(7), 5000, 1300},
		{core.LastDays(10), 5000, 1300},
		{core.LastMonths(1), 5000, 1370},
		{core.LastMonths(3), 5000, 1370},
		{core.AllTime(), 5000, 1370},
	}
	for _, tc := range cases {
		t.Run(tc.w.Label(), func(t *testing.T) {
			s := l.Summarize(tc.w)
			if s.Income != tc.income || s.Expense != tc.expense {
				t.Fatalf("Summarize = %+v, want income=%d expense=%d", s, tc.income, tc.expense)
			}
			if s.Balance != s.Income-s.Expense {
				t.Fatalf("balance identity broken: %+v", s)
			}
			// queries are read-only
			if again := l.Summarize(tc.w); again != s {
				t.Fatalf("second call = %+v, want %+v", again, s)
			}
		})
	}
}

func TestWindowBoundaryIsInclusive(t *testing.T) {
	txs := []core.Transaction{
		{Timestamp: base.Add(-3 * 24 * time.Hour), Amount: core.Money{Units: -7}, Category: core.CategoryOther},
		{Timestamp: base.Add(-3*24*time.Hour - time.Second), Amount: core.Money{Units: -9}, Category: core.CategoryOther},
	}
	if s := Summarize(txs, core.LastDays(3), base); s.Expense != 7 {
		t.Fatalf("Expense = %d, want 7", s.Expense)
	}
}

func TestGroupByCategorySumsToExpense(t *testing.T) {
	txs := []core.Transaction{
		at(0, -20000, "kofe", core.CategoryFood),
		at(0, -8000, "salfetka", core.CategoryOther),
		at(0, -5000, "non", core.CategoryFood),
		at(0, 5000000, "oylik", core.CategoryIncome),
	}
	got := GroupByCategory(txs, core.AllTime(), base)
	if got[core.CategoryFood] != 25000 || got[core.CategoryOther] != 8000 {
		t.Fatalf("GroupByCategory = %v", got)
	}
	if _, ok := got[core.CategoryIncome]; ok {
		t.Fatalf("income must not be grouped: %v", got)
	}
	var sum int64
	for _, v := range got {
		sum += v
	}
	if s := Summarize(txs, core.AllTime(), base); sum != s.Expense {
		t.Fatalf("group sum %d != expense %d", sum, s.Expense)
	}
}

func TestGroupByCategoryEmpty(t *testing.T) {
	if got := GroupByCategory(nil, core.AllTime(), base); len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestTopExpenses(t *testing.T) {
	txs := []core.Transaction{
		at(-3, -500, "first 500", core.CategoryOther),
		at(-2, 100000, "income", core.CategoryIncome),
		at(-1, -500, "second 500", core.CategoryOther),
		at(0, -1000, "thousand", core.CategoryOther),
		at(0, -10, "small", core.CategoryOther),
	}
	got := TopExpenses(txs, 3)
	want := []string{"thousand", "first 500", "second 500"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, n := range want {
		if got[i].Note != n {
			t.Fatalf("position %d = %q, want %q", i, got[i].Note, n)
		}
	}

	if got := TopExpenses(txs[:2], 3); len(got) != 1 {
		t.Fatalf("fewer expenses than n should return all of them, got %d", len(got))
	}
	if got := TopExpenses(txs, 0); got != nil {
		t.Fatalf("n=0 should return nil")
	}
}

func TestTopExpensesSameTimestampKeepsInsertionOrder(t *testing.T) {
	txs := []core.Transaction{
		at(0, -500, "a", core.CategoryOther),
		at(0, -500, "b", core.CategoryOther),
	}
	got := TopExpenses(txs, 3)
	if got[0].Note != "a" || got[1].Note != "b" {
		t.Fatalf("order = %q,%q", got[0].Note, got[1].Note)
	}
}

func TestEndToEndTotals(t *testing.T) {
	clock := &fakeClock{now: base}
	l := New(memory.New(), WithClock(clock.Now))
	ctx := context.Background()

	entries := []Entry{
		{Amount: 5000000, Note: "oylik tushdi", Category: core.CategoryIncome},
		{Amount: -20000, Note: "kofe", Category: core.CategoryFood},
		{Amount: -8000, Note: "salfetka oldim", Category: core.CategoryOther},
	}
	for _, e := range entries {
		if _, err := l.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
		clock.Set(clock.Now().Add(time.Minute))
	}

	s := l.Summarize(core.AllTime())
	if s.Income != 5000000 || s.Expense != 28000 || s.Balance != 4972000 {
		t.Fatalf("Summarize = %+v", s)
	}
	breakdown := l.CategoryBreakdown(core.AllTime())
	if len(breakdown) != 2 || breakdown[0].Category != core.CategoryFood || breakdown[1].Category != core.CategoryOther {
		t.Fatalf("CategoryBreakdown = %+v", breakdown)
	}
	if top := l.TopExpenses(3); len(top) != 2 || top[0].Note != "kofe" {
		t.Fatalf("TopExpenses = %+v", top)
	}
}

func TestReplace(t *testing.T) {
	store := memory.New(at(0, -1, "old", core.CategoryOther))
	l := New(store)
	ctx := context.Background()
	if err := l.Load(ctx); err != nil {
		t.Fatal(err)
	}

	next := []core.Transaction{
		at(0, -2, "later", core.CategoryOther),
		at(-1, 3, "earlier", core.CategoryIncome),
	}
	if err := l.Replace(ctx, next); err != nil {
		t.Fatalf("Replace error = %v", err)
	}
	got := l.Snapshot()
	if len(got) != 2 || got[0].Note != "earlier" || got[1].Note != "later" {
		t.Fatalf("Snapshot = %+v", got)
	}
	if stored, _ := store.LoadAll(ctx); len(stored) != 2 || stored[0].Note != "earlier" {
		t.Fatalf("store = %+v", stored)
	}
}

func TestReplaceRejectsInvalidAndFailedWrites(t *testing.T) {
	store := &failingStore{Store: memory.New(at(0, -1, "keep", core.CategoryOther))}
	l := New(store)
	ctx := context.Background()
	if err := l.Load(ctx); err != nil {
		t.Fatal(err)
	}

	bad := []core.Transaction{at(0, 0, "zero", core.CategoryOther)}
	if err := l.Replace(ctx, bad); !errors.Is(err, core.ErrZeroAmount) {
		t.Fatalf("error = %v, want ErrZeroAmount", err)
	}

	store.failOverwrite = true
	if err := l.Replace(ctx, []core.Transaction{at(0, 9, "new", core.CategoryIncome)}); !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("error = %v, want ErrWriteFailed", err)
	}
	if got := l.Snapshot(); len(got) != 1 || got[0].Note != "keep" {
		t.Fatalf("ledger changed after failed replace: %+v", got)
	}
}

func TestConcurrentAppends(t *testing.T) {
	store := memory.New()
	l := New(store)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Append(ctx, Entry{Amount: int64(-(i + 1))}); err != nil {
				t.Errorf("Append error = %v", err)
			}
			_ = l.Summarize(core.AllTime())
		}(i)
	}
	wg.Wait()

	if l.Count() != n || store.Len() != n {
		t.Fatalf("ledger=%d store=%d, want %d", l.Count(), store.Len(), n)
	}
	if s := l.Summarize(core.AllTime()); s.Expense != n*(n+1)/2 {
		t.Fatalf("Expense = %d, want %d", s.Expense, n*(n+1)/2)
	}
	snap := l.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i].Timestamp.Before(snap[i-1].Timestamp) {
			t.Fatalf("timestamps out of order at %d", i)
		}
	}
}
