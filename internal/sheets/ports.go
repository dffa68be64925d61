package sheets

import (
	"context"

	"hisob/internal/core"
)

// Ports for outbound persistence adapters.
type (
	TransactionWriter interface {
		// Append persists one record and returns a backend-specific row reference.
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionLoader returns every stored record in insertion order.
	TransactionLoader interface {
		LoadAll(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionOverwriter replaces the whole stored sequence.
	TransactionOverwriter interface {
		OverwriteAll(ctx context.Context, txs []core.Transaction) error
	}

	// Store is everything the ledger needs from a backend.
	Store interface {
		TransactionWriter
		TransactionLoader
		TransactionOverwriter
	}
)
