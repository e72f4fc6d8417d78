package verifier

// Step identifies one stage of the verification protocol.
type Step string

const (
	// StepMembership checks that the document hash appears in the tree.
	StepMembership Step = "membership"
	// StepIntegrity checks every internal node's hash derivation.
	StepIntegrity Step = "integrity"
	// StepCommitment compares the root against the on-chain value.
	StepCommitment Step = "commitment"
)

// Reporter observes step results as the orchestrator runs them, in protocol
// order. It is display-only: nothing a reporter does affects verification.
type Reporter interface {
	StepResult(step Step, ok bool)
}

type nopReporter struct{}

func (nopReporter) StepResult(Step, bool) {}
