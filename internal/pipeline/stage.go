package pipeline

import (
	"context"
	"time"

	"github.com/devjibs/cvagent/internal/guardrail"
)

// StageStatus tracks a stage through its execution state machine. All failure
// states are terminal for the stage; retries are an orchestrator-level policy.
type StageStatus string

const (
	StageNotStarted      StageStatus = "not_started"
	StagePreGateRunning  StageStatus = "pre_gate_running"
	StagePreGateFailed   StageStatus = "pre_gate_failed"
	StageBodyRunning     StageStatus = "body_running"
	StageBodyFailed      StageStatus = "body_failed"
	StagePostGateRunning StageStatus = "post_gate_running"
	StagePostGateFailed  StageStatus = "post_gate_failed"
	StageSucceeded       StageStatus = "succeeded"
)

// Stage is a named unit of pipeline work wrapped by a pre-gate and post-gate.
type Stage struct {
	// Name identifies the stage in logs and outcome lists.
	Name string
	// Timeout bounds the body's collaborator call. Zero means no bound.
	Timeout time.Duration
	// PreGate validates the proposed input before the body runs. Optional.
	PreGate *guardrail.Gate
	// PostGate validates the produced output after the body runs. Optional.
	PostGate *guardrail.Gate
	// Input builds the stage's proposed input from the shared context.
	// Missing prerequisite keys are programming defects and panic.
	Input func(rc *Context) any
	// Body performs the stage's work, usually one bounded collaborator call.
	Body func(ctx context.Context, rc *Context, input any) (any, error)
	// Commit writes the stage's named outputs into the shared context.
	// Optional; runs only after both gates and the body pass.
	Commit func(rc *Context, output any)
}

// StageResult is the outcome of one stage execution.
type StageResult struct {
	Stage       string              `json:"stage"`
	Status      StageStatus         `json:"status"`
	Duration    time.Duration       `json:"duration"`
	PreGate     *guardrail.Decision `json:"pre_gate,omitempty"`
	PostGate    *guardrail.Decision `json:"post_gate,omitempty"`
	FailureKind FailureKind         `json:"failure_kind,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Err         error               `json:"-"`
}

// Failed reports whether the stage ended in any failure state.
func (r *StageResult) Failed() bool {
	return r.Status == StagePreGateFailed || r.Status == StageBodyFailed || r.Status == StagePostGateFailed
}

// Execute runs the stage: pre-gate, body, post-gate, commit. A stage succeeds
// only if both gates and the body all pass. There is no retry here.
func (s *Stage) Execute(ctx context.Context, rc *Context) StageResult {
	start := time.Now()
	result := StageResult{Stage: s.Name, Status: StagePreGateRunning}
	defer func() {
		result.Duration = time.Since(start)
	}()

	var input any
	if s.Input != nil {
		input = s.Input(rc)
	}

	if s.PreGate != nil {
		result.PreGate = s.PreGate.Run(ctx, input, rc)
		if !result.PreGate.AllowExecution {
			result.Status = StagePreGateFailed
			result.FailureKind = FailureGuardrail
			result.Summary = result.PreGate.ViolationSummary
			return result
		}
	}

	result.Status = StageBodyRunning
	bodyCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		bodyCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	output, err := s.Body(bodyCtx, rc, input)
	if err != nil {
		// A timeout is treated identically to any collaborator error.
		result.Status = StageBodyFailed
		result.FailureKind = FailureCollaborator
		result.Summary = err.Error()
		result.Err = err
		return result
	}

	if s.PostGate != nil {
		result.Status = StagePostGateRunning
		result.PostGate = s.PostGate.Run(ctx, output, rc)
		if !result.PostGate.AllowExecution {
			result.Status = StagePostGateFailed
			result.FailureKind = FailureGuardrail
			result.Summary = result.PostGate.ViolationSummary
			return result
		}
	}

	if s.Commit != nil {
		s.Commit(rc, output)
	}

	result.Status = StageSucceeded
	return result
}
