// Package worker mirrors the SQLite ledger into Google Sheets.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hisob/internal/amqp"
	"hisob/internal/core"
	"hisob/internal/sheets"
	"hisob/internal/storage"
)

// Source is the SQLite side of the mirror.
type Source interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	IsSynced(ctx context.Context, id int64) (bool, error)
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]storage.StoredTransaction, error)
	ListStored(ctx context.Context) ([]storage.StoredTransaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncedThrough(ctx context.Context, maxID int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// Mirror is the spreadsheet side.
type Mirror interface {
	sheets.TransactionWriter
	sheets.TransactionOverwriter
}

type SyncWorker struct {
	source    Source
	mirror    Mirror
	batchSize int
}

func NewSyncWorker(source Source, mirror Mirror, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{source: source, mirror: mirror, batchSize: batchSize}
}

// HandleMessage is the amqp.Handler for ledger change events.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.Message) error {
	switch msg.Type {
	case amqp.TypeTransactionRecorded:
		return w.handleRecorded(ctx, msg.TransactionID)
	case amqp.TypeLedgerReplaced:
		return w.MirrorAll(ctx)
	default:
		return fmt.Errorf("unsupported message type %q", msg.Type)
	}
}

// handleRecorded mirrors one row. A row that no longer exists was removed by
// an overwrite, whose own event rewrites the sheet, so the message is dropped.
func (w *SyncWorker) handleRecorded(ctx context.Context, id int64) error {
	synced, err := w.source.IsSynced(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Recorded transaction no longer stored, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("check sync status: %w", err)
	}
	if synced {
		slog.DebugContext(ctx, "Transaction already mirrored", "id", id)
		return nil
	}
	t, err := w.source.GetTransaction(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Recorded transaction no longer stored, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	return w.syncTransaction(ctx, id, t)
}

// MirrorAll overwrites the sheet with the full SQLite ledger. Only the rows
// that were written are marked synced; rows stored meanwhile stay pending.
func (w *SyncWorker) MirrorAll(ctx context.Context) error {
	stored, err := w.source.ListStored(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	txs := make([]core.Transaction, len(stored))
	var maxID int64
	for i, st := range stored {
		txs[i] = st.Transaction
		if st.ID > maxID {
			maxID = st.ID
		}
	}
	if err := w.mirror.OverwriteAll(ctx, txs); err != nil {
		return fmt.Errorf("overwrite sheet: %w", err)
	}
	if maxID > 0 {
		if err := w.source.MarkSyncedThrough(ctx, maxID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark ledger as synced", "error", err, "max_id", maxID)
		}
	}
	slog.InfoContext(ctx, "Ledger mirrored", "records", len(txs))
	return nil
}

// ProcessPending mirrors up to one batch of rows whose event was lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck catches up after downtime with a larger batch.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced, "errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.source.GetPendingSyncTransactions(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}
	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, failed, err
		}
		if err := w.syncTransaction(ctx, p.ID, p.Transaction); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// Run sweeps pending rows every interval until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sync sweep failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) syncTransaction(ctx context.Context, id int64, t core.Transaction) error {
	ref, err := w.mirror.Append(ctx, t)
	if err != nil {
		if markErr := w.source.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}
	if err := w.source.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}
	slog.InfoContext(ctx, "Transaction mirrored", "id", id, "sheets_ref", ref, "amount", t.Amount.Units)
	return nil
}
