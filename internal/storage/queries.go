package storage

import (
	"context"
)

const transactionColumns = `id, recorded_at, amount, note, category, sync_status, synced_at, created_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.RecordedAt,
		&i.Amount,
		&i.Note,
		&i.Category,
		&i.SyncStatus,
		&i.SyncedAt,
		&i.CreatedAt,
	)
	return i, err
}

const createTransaction = `
INSERT INTO transactions (recorded_at, amount, note, category)
VALUES (?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	RecordedAt string
	Amount     int64
	Note       string
	Category   string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.RecordedAt,
		arg.Amount,
		arg.Note,
		arg.Category,
	)
	return scanTransaction(row)
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	return scanTransaction(row)
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY id`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	return q.query(ctx, listTransactions)
}

const getPendingSyncTransactions = `
SELECT ` + transactionColumns + ` FROM transactions
WHERE sync_status IN ('pending', 'error')
ORDER BY id
LIMIT ?`

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]Transaction, error) {
	return q.query(ctx, getPendingSyncTransactions, limit)
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}

const deleteAllTransactions = `DELETE FROM transactions`

func (q *Queries) DeleteAllTransactions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllTransactions)
	return err
}

const markTransactionSynced = `
UPDATE transactions
SET sync_status = 'synced', synced_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
WHERE id = ?`

func (q *Queries) MarkTransactionSynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, id)
	return err
}

const markTransactionsSyncedThrough = `
UPDATE transactions
SET sync_status = 'synced', synced_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
WHERE id <= ? AND sync_status <> 'synced'`

func (q *Queries) MarkTransactionsSyncedThrough(ctx context.Context, maxID int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionsSyncedThrough, maxID)
	return err
}

const markTransactionSyncError = `UPDATE transactions SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}

func (q *Queries) query(ctx context.Context, stmt string, args ...interface{}) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
