package persistence

import "time"

// CachedCommitment is the stored form of an on-chain commitment observed for
// a transaction. Times are unix seconds for stable JSON serialization.
type CachedCommitment struct {
	// Txid is the transaction this commitment was observed in.
	Txid string `json:"txid"`

	// RootHash is the committed merkle root, lowercase hexadecimal.
	RootHash string `json:"rootHash"`

	// Confirmations is informational; for esplora lookups this is the
	// confirming block height.
	Confirmations int64 `json:"confirmations"`

	// CommittedAt is the confirming block's timestamp, unix seconds.
	CommittedAt int64 `json:"committedAt"`

	// FetchedAt is when this entry was retrieved from the ledger API,
	// unix seconds. Used for staleness checks.
	FetchedAt int64 `json:"fetchedAt"`
}

// IsStale reports whether the entry is older than maxAge. A zero or negative
// maxAge means entries never go stale; an anchored commitment is immutable,
// so staleness only matters for callers that want fresh confirmation data.
func (cc *CachedCommitment) IsStale(maxAge time.Duration) bool {
	if cc == nil {
		return true
	}
	if maxAge <= 0 {
		return false
	}
	return time.Since(time.Unix(cc.FetchedAt, 0)) > maxAge
}
