package persistence

// Store defines the interface for caching fetched on-chain commitments, so
// repeated verifications of the same proof do not hammer the public ledger
// API. Implementations must be thread-safe.
//
// Stores hold commitments only: verification verdicts are never persisted.
type Store interface {
	// SaveCommitment persists a fetched commitment under its transaction id.
	// Overwrites any existing entry (idempotent).
	SaveCommitment(txid string, commitment *CachedCommitment) error

	// LoadCommitment retrieves a cached commitment by transaction id.
	// Returns nil if no entry exists; error only on storage failure.
	LoadCommitment(txid string) (*CachedCommitment, error)

	// DeleteCommitment removes a cached commitment.
	// Idempotent - returns nil if no entry exists.
	DeleteCommitment(txid string) error

	// ListTxids returns all cached transaction ids sorted ascending.
	// Returns an empty slice if the cache is empty.
	ListTxids() ([]string, error)

	// Close cleanly shuts down the store. Idempotent; all other operations
	// return errors afterwards.
	Close() error

	// HealthCheck verifies the store is operational. Returns nil if healthy.
	HealthCheck() error
}
