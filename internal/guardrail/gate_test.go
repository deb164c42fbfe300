package guardrail

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCheck is a configurable check for gate behavior tests.
type stubCheck struct {
	name     string
	priority int
	policy   Policy
	verdict  Verdict
	delay    time.Duration
	panics   bool
	ran      atomic.Bool
}

func (s *stubCheck) Name() string   { return s.name }
func (s *stubCheck) Priority() int  { return s.priority }
func (s *stubCheck) Policy() Policy { return s.policy }

func (s *stubCheck) Evaluate(_ context.Context, _ Direction, _ any, _ ContextReader) Verdict {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.ran.Store(true)
	if s.panics {
		panic("internal check failure")
	}
	return s.verdict
}

func passCheck(name string, priority int) *stubCheck {
	return &stubCheck{name: name, priority: priority, policy: Blocking, verdict: Pass(name)}
}

func failCheck(name string, priority int, violationType string) *stubCheck {
	return &stubCheck{
		name:     name,
		priority: priority,
		policy:   Blocking,
		verdict:  Trip(name, Blocking, violationType, name+" tripped"),
	}
}

type mapReader map[string]any

func (m mapReader) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func TestGate_ZeroChecksAlwaysPasses(t *testing.T) {
	gate := NewGate(PreStage)
	decision := gate.Run(context.Background(), "payload", mapReader{})

	assert.True(t, decision.AllowExecution)
	assert.Empty(t, decision.Verdicts)
	assert.Empty(t, decision.ViolationSummary)
}

func TestGate_AllowExecutionIsConjunction(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		want   bool
	}{
		{
			name:   "all pass",
			checks: []Check{passCheck("a", 1), passCheck("b", 2), passCheck("c", 3)},
			want:   true,
		},
		{
			name:   "one fails",
			checks: []Check{passCheck("a", 1), failCheck("b", 2, "Boom"), passCheck("c", 3)},
			want:   false,
		},
		{
			name:   "all fail",
			checks: []Check{failCheck("a", 1, "Boom"), failCheck("b", 2, "Boom")},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(PostStage, tt.checks...)
			decision := gate.Run(context.Background(), nil, mapReader{})
			assert.Equal(t, tt.want, decision.AllowExecution)
			assert.Len(t, decision.Verdicts, len(tt.checks))
		})
	}
}

func TestGate_WaitsForSlowCheckAfterFastFailure(t *testing.T) {
	fastFail := failCheck("fast", 1, "FastFailure")
	slow := passCheck("slow", 2)
	slow.delay = 150 * time.Millisecond

	gate := NewGate(PreStage, fastFail, slow)
	decision := gate.Run(context.Background(), nil, mapReader{})

	assert.False(t, decision.AllowExecution)
	assert.True(t, slow.ran.Load(), "slow check must still run to completion")
	require.Len(t, decision.Verdicts, 2)
}

func TestGate_VerdictOrderByPriorityThenRegistration(t *testing.T) {
	// Registered out of priority order, with a tie between b1 and b2.
	gate := NewGate(PostStage,
		failCheck("low", 30, "Low"),
		failCheck("b1", 10, "B1"),
		failCheck("b2", 10, "B2"),
		failCheck("mid", 20, "Mid"),
	)

	decision := gate.Run(context.Background(), nil, mapReader{})

	names := make([]string, 0, len(decision.Verdicts))
	for _, v := range decision.Verdicts {
		names = append(names, v.Check)
	}
	assert.Equal(t, []string{"b1", "b2", "mid", "low"}, names)
	assert.Equal(t, "B1: b1 tripped; B2: b2 tripped; Mid: mid tripped; Low: low tripped", decision.ViolationSummary)
}

func TestGate_PanickingCheckBecomesGuardrailError(t *testing.T) {
	panicky := passCheck("panicky", 1)
	panicky.panics = true

	gate := NewGate(PreStage, panicky, passCheck("ok", 2))
	decision := gate.Run(context.Background(), nil, mapReader{})

	assert.False(t, decision.AllowExecution)
	require.Len(t, decision.Verdicts, 2)
	assert.Equal(t, ViolationGuardrailError, decision.Verdicts[0].ViolationType)
	assert.Contains(t, decision.Verdicts[0].Message, "internal check failure")
	assert.True(t, decision.Verdicts[1].AllowExecution)
}

func TestGate_AdvisoryTripDoesNotBlock(t *testing.T) {
	advisory := &stubCheck{
		name:     "advisory",
		priority: 1,
		policy:   Advisory,
		verdict:  Trip("advisory", Advisory, "Warn", "advisory condition matched"),
	}

	gate := NewGate(PreStage, advisory)
	decision := gate.Run(context.Background(), nil, mapReader{})

	assert.True(t, decision.AllowExecution)
	require.Len(t, decision.Tripwires(), 1)
	assert.Empty(t, decision.Violations())
	assert.Empty(t, decision.ViolationSummary)
}

func TestDecision_Violations(t *testing.T) {
	gate := NewGate(PostStage, passCheck("a", 1), failCheck("b", 2, "Boom"))
	decision := gate.Run(context.Background(), nil, mapReader{})

	violations := decision.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, "b", violations[0].Check)
	assert.Equal(t, "Boom", violations[0].ViolationType)
}
