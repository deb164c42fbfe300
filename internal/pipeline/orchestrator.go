package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devjibs/cvagent/internal/session"
	"github.com/devjibs/cvagent/internal/types"
)

// cancelReason is the terminal log entry for caller-initiated cancellation.
const cancelReason = "cancelled by caller"

// RunResult is the outcome of one pipeline run. Business failures (guardrail
// rejections, collaborator errors) are reported here with Success=false;
// infrastructure failures surface as a separate error from Run.
type RunResult struct {
	Success   bool                      `json:"success"`
	SessionID uuid.UUID                 `json:"session_id"`
	Token     string                    `json:"token"`
	Outcomes  []StageResult             `json:"outcomes"`
	Documents []types.GeneratedDocument `json:"documents,omitempty"`

	FailureKind    FailureKind `json:"failure_kind,omitempty"`
	FailureSummary string      `json:"failure_summary,omitempty"`
}

// Orchestrator drives the ordered stage list against one shared context per
// run, persists status transitions to the session record, and produces the
// final result or the first fatal failure.
//
// Stages run strictly sequentially: each stage depends on context keys
// written by its predecessor. Only the orchestrator driving a session mutates
// its persisted record, so concurrent status polls never observe a torn
// transition.
type Orchestrator struct {
	stages []*Stage
	store  session.Store

	mu        sync.Mutex
	inFlight  map[uuid.UUID]bool
	cancelled map[uuid.UUID]bool
}

// NewOrchestrator creates an orchestrator over a fixed, ordered stage list.
func NewOrchestrator(store session.Store, stages ...*Stage) *Orchestrator {
	return &Orchestrator{
		stages:    stages,
		store:     store,
		inFlight:  make(map[uuid.UUID]bool),
		cancelled: make(map[uuid.UUID]bool),
	}
}

// Run executes the full pipeline for one request. It returns a RunResult for
// business outcomes (success or guardrail/collaborator failure) and a non-nil
// error only for infrastructure failures, so callers can distinguish
// "your input was rejected" from "the system is unhealthy".
func (o *Orchestrator) Run(ctx context.Context, req *Request) (*RunResult, error) {
	sess, err := o.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.execute(ctx, sess, req)
}

// StartAsync creates the session, kicks off the run in the background, and
// returns the session record immediately so callers can hand out its token
// for status polling and cancellation. The background run is detached from
// the caller's context.
func (o *Orchestrator) StartAsync(ctx context.Context, req *Request) (*session.Session, error) {
	sess, err := o.begin(ctx, req)
	if err != nil {
		return nil, err
	}

	go func() {
		result, err := o.execute(context.Background(), sess, req)
		switch {
		case err != nil:
			log.Printf("run %s aborted: %v", sess.ID, err)
		case !result.Success:
			log.Printf("run %s failed: %s", sess.ID, result.FailureSummary)
		}
	}()

	return sess, nil
}

func (o *Orchestrator) begin(ctx context.Context, req *Request) (*session.Session, error) {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	sess, err := o.store.Create(ctx, req.ResumeFileName, req.JobURL)
	if err != nil {
		return nil, &InfrastructureError{Op: "create session", Err: err}
	}

	o.setInFlight(sess.ID, true)
	return sess, nil
}

func (o *Orchestrator) execute(ctx context.Context, sess *session.Session, req *Request) (*RunResult, error) {
	defer o.clearRun(sess.ID)

	result := &RunResult{SessionID: sess.ID, Token: sess.Token}

	rc := NewContext(sess.ID, sess.Token)
	rc.Set(KeyRequest, req)

	if err := o.store.UpdateStatus(ctx, sess.ID, session.StatusProcessing, "pipeline started"); err != nil {
		return nil, &InfrastructureError{Op: "transition to processing", Err: err}
	}

	for i, stage := range o.stages {
		// Cancellation is observed at stage boundaries only; an in-flight
		// stage body always runs to completion.
		if o.isCancelled(sess.ID) || ctx.Err() != nil {
			if err := o.store.UpdateStatus(ctx, sess.ID, session.StatusFailed, cancelReason); err != nil {
				return nil, &InfrastructureError{Op: "record cancellation", Err: err}
			}
			result.FailureKind = FailureCancelled
			result.FailureSummary = cancelReason
			return result, nil
		}

		outcome := stage.Execute(ctx, rc)
		result.Outcomes = append(result.Outcomes, outcome)

		entry := fmt.Sprintf("stage %d/%d %s: %s (%s)", i+1, len(o.stages), stage.Name, outcome.Status, outcome.Duration.Round(time.Millisecond))
		if err := o.store.AppendLog(ctx, sess.ID, entry); err != nil {
			return nil, &InfrastructureError{Op: "append stage log", Err: err}
		}

		if outcome.Failed() {
			summary := fmt.Sprintf("stage %s failed: %s", stage.Name, outcome.Summary)
			if err := o.store.UpdateStatus(ctx, sess.ID, session.StatusFailed, summary); err != nil {
				return nil, &InfrastructureError{Op: "record stage failure", Err: err}
			}
			result.FailureKind = outcome.FailureKind
			result.FailureSummary = summary
			return result, nil
		}
	}

	docs, ok := rc.Documents()
	if !ok {
		// The terminal formatting stage is the only producer of documents;
		// reaching here without them is a wiring defect.
		panic(&KeyNotWrittenError{Key: KeyDocuments})
	}

	if err := o.store.MarkCompleted(ctx, sess.ID); err != nil {
		return nil, &InfrastructureError{Op: "mark session completed", Err: err}
	}

	result.Success = true
	result.Documents = docs
	return result, nil
}

// Status returns the latest committed view of a session, or nil when the
// token is unknown. Safe to call concurrently with an in-flight run.
func (o *Orchestrator) Status(ctx context.Context, token string) (*session.StatusView, error) {
	sess, err := o.store.Find(ctx, token)
	if err != nil {
		return nil, &InfrastructureError{Op: "find session", Err: err}
	}
	if sess == nil {
		return nil, nil
	}
	view := sess.View()
	return &view, nil
}

// Cancel requests cancellation of a run. For an in-flight run the request
// takes effect at the next stage boundary; for a non-terminal session with no
// active run the transition is applied immediately. Returns false when the
// session is unknown or already terminal.
func (o *Orchestrator) Cancel(ctx context.Context, token string) (bool, error) {
	sess, err := o.store.Find(ctx, token)
	if err != nil {
		return false, &InfrastructureError{Op: "find session", Err: err}
	}
	if sess == nil || sess.Status.Terminal() {
		return false, nil
	}

	o.mu.Lock()
	inFlight := o.inFlight[sess.ID]
	if inFlight {
		o.cancelled[sess.ID] = true
	}
	o.mu.Unlock()

	if !inFlight {
		if err := o.store.UpdateStatus(ctx, sess.ID, session.StatusFailed, cancelReason); err != nil {
			// The run may have reached a terminal state between Find and the
			// transition attempt; that is a plain "nothing to cancel".
			var invalid *session.InvalidTransitionError
			if errors.As(err, &invalid) {
				return false, nil
			}
			return false, &InfrastructureError{Op: "record cancellation", Err: err}
		}
	}
	return true, nil
}

func (o *Orchestrator) setInFlight(id uuid.UUID, v bool) {
	o.mu.Lock()
	o.inFlight[id] = v
	o.mu.Unlock()
}

func (o *Orchestrator) isCancelled(id uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelled[id]
}

func (o *Orchestrator) clearRun(id uuid.UUID) {
	o.mu.Lock()
	delete(o.inFlight, id)
	delete(o.cancelled, id)
	o.mu.Unlock()
}
