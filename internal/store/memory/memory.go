// Package memory is an in-memory transaction store used as the default
// backend and as the test double for the commit path. It records every call
// and supports failure injection.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu   sync.Mutex
	next int

	transactions map[string]core.Transaction

	// Calls in arrival order, for assertions.
	Updates []core.Transaction
	Creates [][]core.Transaction

	// When set, the corresponding call fails with this error.
	FailUpdate error
	FailCreate error
}

var _ store.TransactionStore = (*Store)(nil)

func New() *Store {
	return &Store{transactions: make(map[string]core.Transaction)}
}

// Seed inserts a transaction as-is, assigning an id when absent.
func (s *Store) Seed(txn core.Transaction) core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txn.ID == "" {
		txn.ID = s.nextID()
	}
	s.transactions[txn.ID] = txn
	return txn
}

// Get returns a stored transaction by id.
func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[id]
	return txn, ok
}

func (s *Store) UpdateTransaction(_ context.Context, txn core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdate != nil {
		return core.Transaction{}, s.FailUpdate
	}
	if _, ok := s.transactions[txn.ID]; !ok {
		return core.Transaction{}, fmt.Errorf("transaction %q not found", txn.ID)
	}
	s.transactions[txn.ID] = txn
	s.Updates = append(s.Updates, txn)
	return txn, nil
}

func (s *Store) CreateTransactions(_ context.Context, txns []core.Transaction) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return nil, s.FailCreate
	}
	created := make([]core.Transaction, len(txns))
	for i, txn := range txns {
		txn.ID = s.nextID()
		s.transactions[txn.ID] = txn
		created[i] = txn
	}
	s.Creates = append(s.Creates, created)
	return created, nil
}

func (s *Store) nextID() string {
	s.next++
	return fmt.Sprintf("mem:%d", s.next)
}
