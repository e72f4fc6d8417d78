package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/originstamp-tools/verify-go/pkg/persistence"
)

// MemoryStore is an in-memory implementation of persistence.Store.
// All entries are lost when the process exits; useful for tests and for
// deduplicating lookups within a single run.
//
// Thread-safe using sync.RWMutex. Copies entries to prevent external mutation.
type MemoryStore struct {
	mu sync.RWMutex

	// Commitment storage: txid -> CachedCommitment
	commitments map[string]*persistence.CachedCommitment

	closed bool
}

var _ persistence.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory commitment cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		commitments: make(map[string]*persistence.CachedCommitment),
	}
}

// SaveCommitment stores a commitment under its transaction id.
func (m *MemoryStore) SaveCommitment(txid string, commitment *persistence.CachedCommitment) error {
	if commitment == nil {
		return fmt.Errorf("cannot save nil CachedCommitment")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("commitment store is closed")
	}

	// Copy to prevent external mutation
	cc := *commitment
	m.commitments[txid] = &cc

	return nil
}

// LoadCommitment retrieves a commitment by transaction id.
func (m *MemoryStore) LoadCommitment(txid string) (*persistence.CachedCommitment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("commitment store is closed")
	}

	commitment, exists := m.commitments[txid]
	if !exists {
		return nil, nil // Not found is not an error
	}

	cc := *commitment
	return &cc, nil
}

// DeleteCommitment removes a commitment. Idempotent.
func (m *MemoryStore) DeleteCommitment(txid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("commitment store is closed")
	}

	delete(m.commitments, txid)
	return nil
}

// ListTxids returns all cached transaction ids sorted ascending.
func (m *MemoryStore) ListTxids() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("commitment store is closed")
	}

	txids := make([]string, 0, len(m.commitments))
	for txid := range m.commitments {
		txids = append(txids, txid)
	}
	sort.Strings(txids)

	return txids, nil
}

// Close shuts down the store. Idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.commitments = nil
	return nil
}

// HealthCheck reports whether the store is usable.
func (m *MemoryStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("commitment store is closed")
	}
	return nil
}
