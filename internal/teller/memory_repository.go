package teller

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	journal map[string][]Transaction
}

// NewMemoryRepository constructs an in-memory journal for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{journal: make(map[string][]Transaction)}
}

func (r *memoryRepository) Append(_ context.Context, tx Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal[tx.AccountID] = append(r.journal[tx.AccountID], tx)
	return nil
}

func (r *memoryRepository) Recent(_ context.Context, accountID string, limit int) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.journal[accountID]
	out := make([]Transaction, 0, min(limit, len(entries)))
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}
