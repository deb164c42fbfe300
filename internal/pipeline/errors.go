package pipeline

import "fmt"

// FailureKind categorizes why a stage or run failed, so callers can tell
// "your input was rejected" apart from "the system is unhealthy".
type FailureKind string

const (
	// FailureGuardrail means a guardrail check vetoed the stage's input or
	// output. Recoverable by resubmitting different input.
	FailureGuardrail FailureKind = "guardrail_violation"
	// FailureCollaborator means an external dependency failed or timed out.
	FailureCollaborator FailureKind = "collaborator_error"
	// FailureInfrastructure means the persistence layer or another system
	// component was unreachable. Not caller-fixable.
	FailureInfrastructure FailureKind = "infrastructure_error"
	// FailureCancelled means the caller cancelled the run.
	FailureCancelled FailureKind = "cancelled"
)

// InfrastructureError wraps a system-level failure (e.g. the session store
// being unreachable while recording a transition). It is a distinct category
// from guardrail and collaborator failures so operators can alert on it
// separately.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("infrastructure error during %s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}
