// Package ledger owns the ordered, append-only sequence of transactions.
//
// The in-memory sequence is the source for every query; the backing store is
// written first on each mutation so a record is only visible (and acknowledged)
// after it has been persisted. Mutations are serialised; queries run against a
// snapshot taken under a read lock.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"hisob/internal/core"
	"hisob/internal/sheets"
)

var (
	// ErrPersistenceUnavailable means the store could not be read.
	ErrPersistenceUnavailable = errors.New("ledger storage unavailable")
	// ErrWriteFailed means a mutation was not persisted and was not applied.
	ErrWriteFailed = errors.New("ledger write failed")
)

// Entry is the input for Append: everything but the timestamp, which the
// ledger assigns.
type Entry struct {
	Amount   int64
	Note     string
	Category core.Category
}

type Ledger struct {
	mu     sync.RWMutex
	store  sheets.Store
	txs    []core.Transaction
	loaded bool
	now    func() time.Time
}

type Option func(*Ledger)

// WithClock overrides the time source used for timestamps and windows.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(store sheets.Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory sequence with the store's contents. On failure
// the ledger keeps serving what it had (empty on first load) and reports
// ErrPersistenceUnavailable.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.store.LoadAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load ledger", "error", err)
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	sortByTimestamp(txs)
	l.txs = txs
	l.loaded = true
	slog.InfoContext(ctx, "Ledger loaded", "records", len(txs))
	return nil
}

// EnsureLoaded loads the ledger unless a previous load succeeded.
func (l *Ledger) EnsureLoaded(ctx context.Context) error {
	if l.Loaded() {
		return nil
	}
	return l.Load(ctx)
}

// Loaded reports whether the ledger holds the store's contents.
func (l *Ledger) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Append timestamps e, persists it and then adds it to the sequence.
func (l *Ledger) Append(ctx context.Context, e Entry) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	if n := len(l.txs); n > 0 && ts.Before(l.txs[n-1].Timestamp) {
		ts = l.txs[n-1].Timestamp
	}
	tx := core.Transaction{
		Timestamp: ts,
		Amount:    core.Money{Units: e.Amount},
		Note:      e.Note,
		Category:  e.Category,
	}
	if !tx.Category.Valid() {
		tx.Category = core.CategoryOther
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("invalid transaction: %w", err)
	}

	ref, err := l.store.Append(ctx, tx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to persist transaction", "error", err, "amount", tx.Amount.Units)
		return core.Transaction{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	l.txs = append(l.txs, tx)

	slog.InfoContext(ctx, "Transaction recorded",
		"ref", ref,
		"amount", tx.Amount.Units,
		"category", tx.Category,
		"records", len(l.txs))
	return tx, nil
}

// Replace overwrites the whole ledger, in store and memory, with txs.
// Records are ordered by timestamp (stable) before they are written.
func (l *Ledger) Replace(ctx context.Context, txs []core.Transaction) error {
	next := make([]core.Transaction, len(txs))
	copy(next, txs)
	for i, tx := range next {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	sortByTimestamp(next)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.OverwriteAll(ctx, next); err != nil {
		slog.ErrorContext(ctx, "Failed to overwrite ledger", "error", err, "records", len(next))
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	l.txs = next
	l.loaded = true
	slog.InfoContext(ctx, "Ledger replaced", "records", len(next))
	return nil
}

// Snapshot returns a copy of the ordered sequence.
func (l *Ledger) Snapshot() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

// Count returns the number of stored transactions.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

func (l *Ledger) Summarize(w core.Window) core.Summary {
	return Summarize(l.Snapshot(), w, l.now())
}

func (l *Ledger) GroupByCategory(w core.Window) map[core.Category]int64 {
	return GroupByCategory(l.Snapshot(), w, l.now())
}

// CategoryBreakdown is GroupByCategory ordered for display.
func (l *Ledger) CategoryBreakdown(w core.Window) []core.CategoryAmount {
	return core.SortCategoryAmounts(l.GroupByCategory(w))
}

func (l *Ledger) TopExpenses(n int) []core.Transaction {
	return TopExpenses(l.Snapshot(), n)
}

func sortByTimestamp(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp.Before(txs[j].Timestamp)
	})
}
