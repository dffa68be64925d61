package backend

import (
	"context"

	"hisob/internal/cache"
	"hisob/internal/sheets"
)

// Backend is the store the ledger runs on.
type Backend interface {
	sheets.Store
}

type CleanupFunc func() error

// BackendResult carries the store, its name for diagnostics and an optional cleanup.
type BackendResult struct {
	Backend Backend
	Type    BackendType
	Cleanup CleanupFunc
	// Cleaner is set when the backend keeps an expiring cache.
	Cleaner cache.Cleaner
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
