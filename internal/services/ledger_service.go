package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"hisob/internal/core"
)

// Repository is the SQLite side of the service.
type Repository interface {
	Append(ctx context.Context, t core.Transaction) (string, error)
	LoadAll(ctx context.Context) ([]core.Transaction, error)
	OverwriteAll(ctx context.Context, txs []core.Transaction) error
	Close() error
}

// Publisher announces ledger changes to the mirror worker.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, transactionID int64) error
	PublishLedgerReplaced(ctx context.Context, records int) error
	Close() error
}

// LedgerService writes to SQLite and then publishes a change event. The
// local write decides success; publishing is best effort.
type LedgerService struct {
	storage   Repository
	publisher Publisher
}

// NewLedgerService accepts a nil publisher when AMQP is not configured.
func NewLedgerService(storage Repository, publisher Publisher) *LedgerService {
	return &LedgerService{storage: storage, publisher: publisher}
}

// RecordTransaction saves t locally and announces the new row id.
func (s *LedgerService) RecordTransaction(ctx context.Context, t core.Transaction) (string, error) {
	ref, err := s.storage.Append(ctx, t)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to parse transaction ID", "ref", ref, "error", err)
		return ref, nil
	}
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping sync message", "id", id)
		return ref, nil
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
	return ref, nil
}

// ReplaceLedger overwrites the local ledger and announces the replacement.
func (s *LedgerService) ReplaceLedger(ctx context.Context, txs []core.Transaction) error {
	if err := s.storage.OverwriteAll(ctx, txs); err != nil {
		return fmt.Errorf("overwrite ledger: %w", err)
	}
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishLedgerReplaced(ctx, len(txs)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish replace message", "records", len(txs), "error", err)
	}
	return nil
}

// Close closes both storage and publisher.
func (s *LedgerService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
