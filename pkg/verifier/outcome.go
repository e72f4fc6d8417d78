package verifier

// FailureReason classifies why a verification run failed.
type FailureReason string

const (
	// FailureNone means the run succeeded.
	FailureNone FailureReason = ""

	// FailureMalformedProof means the proof tree violates structural
	// invariants (empty tree, node with a single child).
	FailureMalformedProof FailureReason = "malformed_proof"

	// FailureHashNotInProof means the target document hash appears nowhere
	// in the tree: the wrong document, rather than a tampered proof.
	FailureHashNotInProof FailureReason = "hash_not_in_proof"

	// FailureTreeIntegrityViolation means some internal node's declared
	// value does not match the hash derived from its children.
	FailureTreeIntegrityViolation FailureReason = "tree_integrity_violation"

	// FailureCommitmentMismatch means the tree is internally consistent but
	// its root disagrees with the on-chain value: stale data or a forged but
	// internally consistent proof.
	FailureCommitmentMismatch FailureReason = "commitment_mismatch"
)

// Outcome is the result of a full verification run. A run either verifies or
// fails with exactly one reason; there are no partial results.
type Outcome struct {
	Verified bool
	Reason   FailureReason

	// Detail carries context for failures, e.g. the path of the node that
	// broke the integrity check. Empty on success.
	Detail string
}

var failureMessages = map[FailureReason]string{
	FailureMalformedProof:         "the proof tree is malformed",
	FailureHashNotInProof:         "the document hash was not found in the proof tree",
	FailureTreeIntegrityViolation: "the merkle tree integrity check failed",
	FailureCommitmentMismatch:     "the merkle root does not match the on-chain commitment",
}

// Message returns a human-readable description of the outcome.
func (o Outcome) Message() string {
	if o.Verified {
		return "verification successful"
	}
	if msg, ok := failureMessages[o.Reason]; ok {
		return msg
	}
	return "verification failed"
}

func success() Outcome {
	return Outcome{Verified: true}
}

func failure(reason FailureReason, detail string) Outcome {
	return Outcome{Reason: reason, Detail: detail}
}
