package guardrail

import "context"

// ContextReader is the read-only view of the pipeline's shared context that
// checks may consult. Checks must not mutate shared state.
type ContextReader interface {
	// Lookup returns the value stored under key, if any.
	Lookup(key string) (any, bool)
}

// Check is a single independently-executable validator. Evaluate must be a
// pure function of the payload plus read-only context lookups.
type Check interface {
	// Name identifies the check in logs and decision output.
	Name() string
	// Priority orders verdicts in a gate decision; lower values report first.
	Priority() int
	// Policy declares whether a tripped verdict blocks execution.
	Policy() Policy
	// Evaluate inspects the payload and returns a verdict. Internal failures
	// should be reported via the verdict, never by panicking; the gate treats
	// a panic as a blocking GuardrailError.
	Evaluate(ctx context.Context, dir Direction, payload any, rc ContextReader) Verdict
}
