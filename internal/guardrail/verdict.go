// Package guardrail provides independent safety and quality checks for pipeline
// stages, plus the gate that runs a registered set of checks concurrently and
// reduces their verdicts to a single decision.
package guardrail

// Direction identifies whether a check inspects a stage's proposed input or
// its produced output.
type Direction string

const (
	PreStage  Direction = "pre"
	PostStage Direction = "post"
)

// Policy declares how a check's tripwire affects control flow.
// Blocking checks veto stage execution; Advisory checks only log their finding.
type Policy string

const (
	Blocking Policy = "blocking"
	Advisory Policy = "advisory"
)

// Violation types shared across checks.
const (
	ViolationGuardrailError = "GuardrailError"
)

// Verdict is the result of evaluating one check against one payload.
//
// AllowExecution is authoritative for control flow. TripwireTriggered records
// that the check's condition matched regardless of policy, so advisory hits
// are still visible in logs and diagnostics.
type Verdict struct {
	Check             string         `json:"check"`
	TripwireTriggered bool           `json:"tripwire_triggered"`
	AllowExecution    bool           `json:"allow_execution"`
	ViolationType     string         `json:"violation_type,omitempty"`
	Message           string         `json:"message,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
	Recommendations   []string       `json:"recommendations,omitempty"`
}

// Pass builds a passing verdict for the named check.
func Pass(check string) Verdict {
	return Verdict{Check: check, AllowExecution: true}
}

// Trip builds a tripped verdict for the named check. The policy decides
// whether execution is still allowed.
func Trip(check string, policy Policy, violationType, message string) Verdict {
	return Verdict{
		Check:             check,
		TripwireTriggered: true,
		AllowExecution:    policy == Advisory,
		ViolationType:     violationType,
		Message:           message,
	}
}
