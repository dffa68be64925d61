package storage

import "database/sql"

// Transaction is a row of the transactions table.
type Transaction struct {
	ID         int64
	RecordedAt string
	Amount     int64
	Note       string
	Category   string
	SyncStatus string
	SyncedAt   sql.NullString
	CreatedAt  string
}

const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
	SyncStatusError   = "error"
)
