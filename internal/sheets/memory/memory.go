package memory

import (
	"context"
	"fmt"
	"sync"

	"hisob/internal/core"
)

// Store keeps transactions in process memory. Nothing survives a restart.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New(seed ...core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), seed...)}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// LoadAll returns a copy of every stored transaction.
func (s *Store) LoadAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...), nil
}

// OverwriteAll swaps the stored sequence. Nothing is written if any record is invalid.
func (s *Store) OverwriteAll(_ context.Context, txs []core.Transaction) error {
	for i, t := range txs {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.Transaction(nil), txs...)
	return nil
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
