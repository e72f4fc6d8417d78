package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Commitment is the independently observed on-chain anchor for a proof tree.
// It is an opaque external fact: the verifier compares against it and never
// derives it.
type Commitment struct {
	// RootHash is the lowercase hexadecimal digest the proof tree's root is
	// expected to match.
	RootHash string

	// Confirmations is informational only. For esplora-backed lookups this is
	// the height of the confirming block.
	Confirmations int64

	// CommittedAt is the confirming block's timestamp, informational only.
	CommittedAt time.Time
}

// Client looks up the on-chain commitment referenced by a proof.
// Implementations must normalize RootHash to the canonical lowercase
// hexadecimal form; the verifier's commitment comparison is case-sensitive.
type Client interface {
	Lookup(ctx context.Context, txid string) (*Commitment, error)
}

// ErrReferenceNotFound indicates the ledger has no record of the referenced
// transaction. It is a definitive negative answer, distinct from transient
// lookup failures.
var ErrReferenceNotFound = errors.New("transaction not found on blockchain")

// UnavailableError indicates the ledger could not be consulted at all:
// network failure, service error or an unintelligible response. Unlike
// proof-verification failures it may be worth retrying.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("ledger lookup unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
