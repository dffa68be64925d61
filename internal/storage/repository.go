package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"hisob/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row id does not exist, for example after
// the ledger was overwritten.
var ErrNotFound = errors.New("transaction not found")

// timeLayout keeps recorded_at sortable as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements sheets.TransactionWriter. The row id is the reference.
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		RecordedAt: formatTime(t.Timestamp),
		Amount:     t.Amount.Units,
		Note:       t.Note,
		Category:   string(t.Category),
	})
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"amount", row.Amount,
		"category", row.Category)

	return strconv.FormatInt(row.ID, 10), nil
}

// LoadAll implements sheets.TransactionLoader.
func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toCore()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", row.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// OverwriteAll implements sheets.TransactionOverwriter inside a single
// database transaction; on error the previous rows stay in place.
func (r *SQLiteRepository) OverwriteAll(ctx context.Context, txs []core.Transaction) error {
	for i, t := range txs {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	q := r.queries.WithTx(dbtx)
	if err := q.DeleteAllTransactions(ctx); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	for _, t := range txs {
		if _, err := q.CreateTransaction(ctx, CreateTransactionParams{
			RecordedAt: formatTime(t.Timestamp),
			Amount:     t.Amount.Units,
			Note:       t.Note,
			Category:   string(t.Category),
		}); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transactions overwritten in SQLite", "count", len(txs))
	return nil
}

// Count returns the number of stored rows.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// StoredTransaction is a row together with its id.
type StoredTransaction struct {
	ID          int64
	Transaction core.Transaction
}

// GetPendingSyncTransactions returns rows that still need to be mirrored.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]StoredTransaction, error) {
	rows, err := r.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	return toStored(rows)
}

// ListStored returns every row with its id, in insertion order.
func (r *SQLiteRepository) ListStored(ctx context.Context) ([]StoredTransaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toStored(rows)
}

// GetTransaction retrieves a single transaction by row id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.getRow(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return row.toCore()
}

// IsSynced reports whether the row has already been mirrored.
func (r *SQLiteRepository) IsSynced(ctx context.Context, id int64) (bool, error) {
	row, err := r.getRow(ctx, id)
	if err != nil {
		return false, err
	}
	return row.SyncStatus == SyncStatusSynced, nil
}

func (r *SQLiteRepository) getRow(ctx context.Context, id int64) (Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return row, nil
}

// MarkSynced marks a row as mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSynced(ctx, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncedThrough marks every row with id <= maxID as mirrored, after a
// full overwrite built from those rows. Later rows stay pending.
func (r *SQLiteRepository) MarkSyncedThrough(ctx context.Context, maxID int64) error {
	if err := r.queries.MarkTransactionsSyncedThrough(ctx, maxID); err != nil {
		return fmt.Errorf("mark transactions synced through %d: %w", maxID, err)
	}
	return nil
}

// MarkSyncError flags a row so it is retried on the next pending sweep.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func toStored(rows []Transaction) ([]StoredTransaction, error) {
	out := make([]StoredTransaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toCore()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", row.ID, err)
		}
		out = append(out, StoredTransaction{ID: row.ID, Transaction: t})
	}
	return out, nil
}

func (t Transaction) toCore() (core.Transaction, error) {
	ts, err := time.Parse(time.RFC3339Nano, t.RecordedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse recorded_at %q: %w", t.RecordedAt, err)
	}
	return core.Transaction{
		Timestamp: ts,
		Amount:    core.Money{Units: t.Amount},
		Note:      t.Note,
		Category:  core.Category(t.Category),
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
