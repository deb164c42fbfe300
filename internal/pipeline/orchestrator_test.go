package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devjibs/cvagent/internal/guardrail"
	"github.com/devjibs/cvagent/internal/session"
	"github.com/devjibs/cvagent/internal/types"
)

func newSessionStore(t *testing.T) *session.MemoryStore {
	t.Helper()
	issuer, err := session.NewTokenIssuer([]byte("orchestrator-test"), time.Hour)
	require.NoError(t, err)
	return session.NewMemoryStore(issuer)
}

// noopStage builds a stage that records its execution and succeeds.
func noopStage(name string, ran *[]string) *Stage {
	return &Stage{
		Name:  name,
		Input: func(*Context) any { return nil },
		Body: func(_ context.Context, _ *Context, _ any) (any, error) {
			*ran = append(*ran, name)
			return name + "-output", nil
		},
	}
}

// finalStage commits generated document records, standing in for the
// terminal formatting stage.
func finalStage(name string, ran *[]string) *Stage {
	stage := noopStage(name, ran)
	stage.Commit = func(rc *Context, _ any) {
		rc.Set(KeyDocuments, []types.GeneratedDocument{
			{ID: uuid.New(), Kind: types.KindCV, FileName: "cv.pdf"},
			{ID: uuid.New(), Kind: types.KindCoverLetter, FileName: "cover-letter.pdf"},
		})
	}
	return stage
}

func testRequest() *Request {
	return &Request{
		ResumeFileName: "resume.txt",
		ResumeMIME:     "text/plain",
		ResumeData:     []byte("resume"),
		JobURL:         "https://jobs.example.com/1",
	}
}

func TestOrchestrator_AllStagesPass(t *testing.T) {
	store := newSessionStore(t)
	var ran []string
	o := NewOrchestrator(store,
		noopStage("parse", &ran),
		noopStage("extract_job", &ran),
		noopStage("match", &ran),
		finalStage("format", &ran),
	)

	result, err := o.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{"parse", "extract_job", "match", "format"}, ran)
	assert.Len(t, result.Outcomes, 4)
	require.Len(t, result.Documents, 2)
	assert.Equal(t, types.KindCV, result.Documents[0].Kind)
	assert.Equal(t, types.KindCoverLetter, result.Documents[1].Kind)

	view, err := o.Status(context.Background(), result.Token)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, session.StatusCompleted, view.Status)
	require.NotNil(t, view.CompletedAt)
	// "pipeline started" + one entry per stage.
	assert.Len(t, view.ProcessingLog, 5)
}

func TestOrchestrator_ShortCircuitsOnPreGateFailure(t *testing.T) {
	store := newSessionStore(t)
	var ran []string

	reject := &Stage{
		Name: "extract_job",
		PreGate: guardrail.NewGate(guardrail.PreStage, &gateCheck{
			name:    "url_format",
			verdict: guardrail.Trip("url_format", guardrail.Blocking, guardrail.ViolationInvalidURL, "malformed URL"),
		}),
		Input: func(*Context) any { return "not-a-url" },
		Body: func(context.Context, *Context, any) (any, error) {
			ran = append(ran, "extract_job")
			return nil, nil
		},
	}

	o := NewOrchestrator(store,
		noopStage("parse", &ran),
		reject,
		noopStage("match", &ran),
		noopStage("generate_cv", &ran),
		finalStage("format", &ran),
	)

	result, err := o.Run(context.Background(), testRequest())
	require.NoError(t, err, "guardrail rejections are business failures, not errors")

	assert.False(t, result.Success)
	assert.Equal(t, FailureGuardrail, result.FailureKind)
	assert.Contains(t, result.FailureSummary, guardrail.ViolationInvalidURL)

	// Stage list is cut at the failure: later stages never execute.
	assert.Equal(t, []string{"parse"}, ran)
	assert.Len(t, result.Outcomes, 2)
	assert.Equal(t, StagePreGateFailed, result.Outcomes[1].Status)

	view, err := o.Status(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, session.StatusFailed, view.Status)
	last := view.ProcessingLog[len(view.ProcessingLog)-1]
	assert.Contains(t, last.Message, guardrail.ViolationInvalidURL)
}

func TestOrchestrator_CollaboratorFailureFailsRun(t *testing.T) {
	store := newSessionStore(t)
	var ran []string

	broken := &Stage{
		Name:  "match",
		Input: func(*Context) any { return nil },
		Body: func(context.Context, *Context, any) (any, error) {
			return nil, errors.New("provider timeout")
		},
	}

	o := NewOrchestrator(store, noopStage("parse", &ran), broken, finalStage("format", &ran))

	result, err := o.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, FailureCollaborator, result.FailureKind)
	assert.Contains(t, result.FailureSummary, "provider timeout")
	assert.Empty(t, result.Documents, "no partial documents on failure")
}

func TestOrchestrator_CancelMidRun(t *testing.T) {
	store := newSessionStore(t)
	var ran []string

	tokenCh := make(chan string, 1)
	release := make(chan struct{})

	first := &Stage{
		Name:  "parse",
		Input: func(*Context) any { return nil },
		Body: func(_ context.Context, rc *Context, _ any) (any, error) {
			tokenCh <- rc.Token()
			<-release // hold the stage in-flight until cancel is requested
			ran = append(ran, "parse")
			return nil, nil
		},
	}

	o := NewOrchestrator(store, first, noopStage("extract_job", &ran), finalStage("format", &ran))

	type runOutcome struct {
		result *RunResult
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		result, err := o.Run(context.Background(), testRequest())
		done <- runOutcome{result, err}
	}()

	token := <-tokenCh
	ok, err := o.Cancel(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, ok)
	close(release)

	outcome := <-done
	require.NoError(t, outcome.err)
	result := outcome.result
	assert.False(t, result.Success)
	assert.Equal(t, FailureCancelled, result.FailureKind)

	// The in-flight stage ran to completion; the next stage never started.
	assert.Equal(t, []string{"parse"}, ran)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, StageSucceeded, result.Outcomes[0].Status)

	view, err := o.Status(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, session.StatusFailed, view.Status)
	last := view.ProcessingLog[len(view.ProcessingLog)-1]
	assert.Equal(t, "cancelled by caller", last.Message)
}

func TestOrchestrator_CancelTerminalSessionReturnsFalse(t *testing.T) {
	store := newSessionStore(t)
	var ran []string
	o := NewOrchestrator(store, finalStage("format", &ran))

	result, err := o.Run(context.Background(), testRequest())
	require.NoError(t, err)
	require.True(t, result.Success)

	ok, err := o.Cancel(context.Background(), result.Token)
	require.NoError(t, err)
	assert.False(t, ok)

	view, err := o.Status(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, view.Status, "status unchanged by rejected cancel")
}

// staleFindStore serves Find from a stale snapshot that still reads as
// in-progress, so cancellation races against a run that already finished.
type staleFindStore struct {
	session.Store
}

func (s *staleFindStore) Find(ctx context.Context, token string) (*session.Session, error) {
	sess, err := s.Store.Find(ctx, token)
	if sess != nil {
		sess.Status = session.StatusProcessing
	}
	return sess, err
}

func TestOrchestrator_CancelAfterTerminalRaceReturnsFalse(t *testing.T) {
	store := &staleFindStore{Store: newSessionStore(t)}
	var ran []string
	o := NewOrchestrator(store, finalStage("format", &ran))

	result, err := o.Run(context.Background(), testRequest())
	require.NoError(t, err)
	require.True(t, result.Success)

	// Cancel sees the stale non-terminal snapshot, but the transition attempt
	// lands on a completed session. That is "nothing to cancel", not an
	// infrastructure failure.
	ok, err := o.Cancel(context.Background(), result.Token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrchestrator_CancelUnknownTokenReturnsFalse(t *testing.T) {
	o := NewOrchestrator(newSessionStore(t))
	ok, err := o.Cancel(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrchestrator_StatusUnknownTokenReturnsNil(t *testing.T) {
	o := NewOrchestrator(newSessionStore(t))
	view, err := o.Status(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, view)
}

// flakyStore fails log appends after a threshold to simulate the persistence
// layer becoming unreachable mid-run.
type flakyStore struct {
	session.Store
	failAppend bool
}

func (f *flakyStore) AppendLog(ctx context.Context, id uuid.UUID, entry string) error {
	if f.failAppend {
		return fmt.Errorf("connection refused")
	}
	return f.Store.AppendLog(ctx, id, entry)
}

func TestOrchestrator_InfrastructureErrorIsDistinctCategory(t *testing.T) {
	store := &flakyStore{Store: newSessionStore(t), failAppend: true}
	var ran []string
	o := NewOrchestrator(store, finalStage("format", &ran))

	result, err := o.Run(context.Background(), testRequest())
	assert.Nil(t, result)
	require.Error(t, err)

	var infra *InfrastructureError
	require.ErrorAs(t, err, &infra)
	assert.Contains(t, infra.Error(), "connection refused")
}
