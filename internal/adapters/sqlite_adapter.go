package adapters

import (
	"context"

	"hisob/internal/core"
	"hisob/internal/services"
	"hisob/internal/sheets"
	"hisob/internal/storage"
)

// SQLiteAdapter presents the SQLite repository plus LedgerService as a
// sheets.Store: reads go straight to SQLite, writes go through the service
// so every change is announced to the mirror worker.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.LedgerService
}

var _ sheets.Store = (*SQLiteAdapter)(nil)

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.LedgerService) *SQLiteAdapter {
	return &SQLiteAdapter{storage: storage, service: service}
}

// Append implements sheets.TransactionWriter.
func (a *SQLiteAdapter) Append(ctx context.Context, t core.Transaction) (string, error) {
	return a.service.RecordTransaction(ctx, t)
}

// LoadAll implements sheets.TransactionLoader.
func (a *SQLiteAdapter) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	return a.storage.LoadAll(ctx)
}

// OverwriteAll implements sheets.TransactionOverwriter.
func (a *SQLiteAdapter) OverwriteAll(ctx context.Context, txs []core.Transaction) error {
	return a.service.ReplaceLedger(ctx, txs)
}
