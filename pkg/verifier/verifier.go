// Package verifier implements the proof-verification core: it checks that a
// document hash is present in an inclusion-proof tree, that every internal
// node of the tree derives from its children, and that the tree's root
// matches an independently observed on-chain commitment.
package verifier

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/originstamp-tools/verify-go/pkg/ledger"
	"github.com/originstamp-tools/verify-go/pkg/prooftree"
)

// IntegrityError reports the first internal node whose declared hash does not
// match the hash derived from its children. Any single broken link fails the
// entire proof.
type IntegrityError struct {
	// Path locates the failing node from the root, e.g. "root/left/right".
	Path     string
	Declared string
	Computed string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity failure at %s: declared %s, computed %s", e.Path, e.Declared, e.Computed)
}

// hashPair derives a parent value from its children: sha256 over the
// concatenated hexadecimal text of left then right, rendered as lowercase
// hex. This is the one bit-exact contract of the protocol; the inputs are
// the textual representations, not decoded bytes.
func hashPair(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}

// VerifyIntegrity validates every internal node's hash derivation, children
// before parent. Leaves pass trivially: leaf values are trusted as given and
// checked for membership separately. Uses an explicit stack so a crafted
// proof cannot grow the goroutine stack.
//
// Returns nil on success, *prooftree.MalformedProofError for a nil tree and
// *IntegrityError for the first mismatch encountered.
func VerifyIntegrity(root *prooftree.Node) error {
	if root == nil {
		return &prooftree.MalformedProofError{Reason: "empty proof tree"}
	}

	type frame struct {
		node     *prooftree.Node
		path     string
		expanded bool
	}

	stack := []frame{{node: root, path: "root"}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.node.IsLeaf() {
			stack = stack[:len(stack)-1]
			continue
		}

		if !top.expanded {
			top.expanded = true
			// Right pushed first so the left subtree is checked first.
			stack = append(stack,
				frame{node: top.node.Right(), path: top.path + "/right"},
				frame{node: top.node.Left(), path: top.path + "/left"},
			)
			continue
		}

		node, path := top.node, top.path
		stack = stack[:len(stack)-1]

		computed := hashPair(node.Left().Value(), node.Right().Value())
		if computed != node.Value() {
			return &IntegrityError{Path: path, Declared: node.Value(), Computed: computed}
		}
	}

	return nil
}

// ContainsHash reports whether the whitespace-trimmed target equals the
// trimmed value of any node in the tree, leaves and internal nodes alike.
// The protocol does not restrict the match to leaf positions; see
// Options.LeavesOnly for the stricter opt-in mode. A negative result is not
// an error, merely "wrong document".
func ContainsHash(root *prooftree.Node, target string) bool {
	return containsHash(root, target, false)
}

func containsHash(root *prooftree.Node, target string, leavesOnly bool) bool {
	if root == nil {
		return false
	}

	target = strings.TrimSpace(target)

	stack := []*prooftree.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !leavesOnly || node.IsLeaf() {
			if strings.TrimSpace(node.Value()) == target {
				return true
			}
		}
		if !node.IsLeaf() {
			stack = append(stack, node.Left(), node.Right())
		}
	}

	return false
}

// MatchesCommitment compares the root's declared value against the on-chain
// commitment. The comparison is an exact, case-sensitive text match on the
// canonical lowercase hex encoding; commitment sources that return
// differently cased hex must normalize before calling.
func MatchesCommitment(root *prooftree.Node, commitment *ledger.Commitment) bool {
	if root == nil || commitment == nil {
		return false
	}
	return root.Value() == commitment.RootHash
}

// Options configures a Verifier.
type Options struct {
	// LeavesOnly restricts the membership check to leaf nodes. The reference
	// protocol matches any node; this stricter mode is opt-in.
	LeavesOnly bool

	// Reporter observes step results. Optional.
	Reporter Reporter

	// Logger is optional; a no-op logger is used when nil.
	Logger *zap.Logger
}

// Verifier sequences the membership, integrity and commitment checks into the
// verification protocol. It is stateless and safe for reuse; every Verify
// call is independent and idempotent.
type Verifier struct {
	leavesOnly bool
	reporter   Reporter
	logger     *zap.Logger
}

// New creates a Verifier.
func New(opts Options) *Verifier {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{
		leavesOnly: opts.LeavesOnly,
		reporter:   reporter,
		logger:     log,
	}
}

// Verify runs the full protocol: membership, then integrity, then commitment
// comparison, stopping at the first failure.
//
// Membership runs first so that the wrong document is rejected with a
// specific reason before any structural work; integrity runs before the
// commitment comparison so a broken tree is never reported as a mere root
// mismatch.
func (v *Verifier) Verify(root *prooftree.Node, targetHash string, commitment *ledger.Commitment) Outcome {
	if root == nil {
		return failure(FailureMalformedProof, "empty proof tree")
	}

	ok := containsHash(root, targetHash, v.leavesOnly)
	v.reporter.StepResult(StepMembership, ok)
	if !ok {
		v.logger.Sugar().Debugw("Target hash absent from proof tree", "target", targetHash)
		return failure(FailureHashNotInProof, fmt.Sprintf("hash %s not present in any tree node", strings.TrimSpace(targetHash)))
	}

	if err := VerifyIntegrity(root); err != nil {
		v.reporter.StepResult(StepIntegrity, false)
		if ie, isIntegrity := err.(*IntegrityError); isIntegrity {
			v.logger.Sugar().Debugw("Tree integrity violation", "path", ie.Path)
			return failure(FailureTreeIntegrityViolation, ie.Error())
		}
		return failure(FailureMalformedProof, err.Error())
	}
	v.reporter.StepResult(StepIntegrity, true)

	ok = MatchesCommitment(root, commitment)
	v.reporter.StepResult(StepCommitment, ok)
	if !ok {
		return failure(FailureCommitmentMismatch, fmt.Sprintf("root %s does not equal committed value", root.Value()))
	}

	return success()
}
