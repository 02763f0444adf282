// Package store defines the outbound port to the remote transaction store.
package store

import (
	"context"

	"fintrack/internal/core"
)

// TransactionStore is the contract the engine consumes. The remote store is
// the sole arbiter of consistency; the engine never assumes concurrent edits
// of the same transaction.
type TransactionStore interface {
	// UpdateTransaction performs a full-replace update by id and returns the
	// stored record.
	UpdateTransaction(ctx context.Context, txn core.Transaction) (core.Transaction, error)

	// CreateTransactions creates a batch of new transactions and returns them
	// with their assigned ids, in input order.
	CreateTransactions(ctx context.Context, txns []core.Transaction) ([]core.Transaction, error)
}
