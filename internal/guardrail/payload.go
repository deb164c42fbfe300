package guardrail

import "github.com/devjibs/cvagent/internal/types"

// textOf extracts the inspectable text from the payload shapes checks accept.
func textOf(payload any) (string, bool) {
	switch p := payload.(type) {
	case string:
		return p, true
	case *types.DraftDocument:
		return p.Body, true
	case types.DraftDocument:
		return p.Body, true
	}
	return "", false
}

// unsupportedPayload builds the blocking verdict used when a check receives a
// payload shape it cannot inspect. This indicates a wiring defect, so it is
// reported as a guardrail-internal error rather than a business violation.
func unsupportedPayload(check string) Verdict {
	return Verdict{
		Check:             check,
		TripwireTriggered: true,
		AllowExecution:    false,
		ViolationType:     ViolationGuardrailError,
		Message:           "unsupported payload type for check " + check,
	}
}
