package guardrail

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Gate runs a registered set of checks for one direction and reduces their
// verdicts to a single decision.
type Gate struct {
	direction Direction
	checks    []Check
}

// NewGate creates a gate for the given direction. Registration order is
// preserved and used to break priority ties in decision output.
func NewGate(direction Direction, checks ...Check) *Gate {
	return &Gate{direction: direction, checks: checks}
}

// Direction returns the direction this gate evaluates.
func (g *Gate) Direction() Direction {
	return g.direction
}

// Decision is the reduction of all check verdicts for one gate run.
type Decision struct {
	Direction        Direction `json:"direction"`
	AllowExecution   bool      `json:"allow_execution"`
	Verdicts         []Verdict `json:"verdicts"`
	ViolationSummary string    `json:"violation_summary,omitempty"`
}

// Violations returns the verdicts that vetoed execution, in decision order.
func (d *Decision) Violations() []Verdict {
	var out []Verdict
	for _, v := range d.Verdicts {
		if !v.AllowExecution {
			out = append(out, v)
		}
	}
	return out
}

// Tripwires returns every tripped verdict, including advisory-only ones.
func (d *Decision) Tripwires() []Verdict {
	var out []Verdict
	for _, v := range d.Verdicts {
		if v.TripwireTriggered {
			out = append(out, v)
		}
	}
	return out
}

// Run evaluates every registered check concurrently, waits for all of them to
// complete, and reduces the verdicts via logical AND over AllowExecution.
// There is no short-circuit: a cheap failing check never hides the findings of
// an expensive one. Verdicts are ordered by ascending check priority, then by
// registration order for ties. A gate with zero checks always passes.
func (g *Gate) Run(ctx context.Context, payload any, rc ContextReader) *Decision {
	decision := &Decision{Direction: g.direction, AllowExecution: true}
	if len(g.checks) == 0 {
		return decision
	}

	verdicts := make([]Verdict, len(g.checks))
	var eg errgroup.Group
	for i, check := range g.checks {
		eg.Go(func() error {
			verdicts[i] = evaluate(ctx, check, g.direction, payload, rc)
			return nil
		})
	}
	// Checks report failures through verdicts, never through errors.
	_ = eg.Wait()

	order := make([]int, len(verdicts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return g.checks[order[a]].Priority() < g.checks[order[b]].Priority()
	})

	var summary []string
	for _, idx := range order {
		v := verdicts[idx]
		decision.Verdicts = append(decision.Verdicts, v)
		if !v.AllowExecution {
			decision.AllowExecution = false
			summary = append(summary, fmt.Sprintf("%s: %s", v.ViolationType, v.Message))
		}
	}
	decision.ViolationSummary = strings.Join(summary, "; ")

	return decision
}

// evaluate runs one check, converting a panic into a blocking GuardrailError
// verdict so that guardrail-internal failures are never silently ignored.
func evaluate(ctx context.Context, check Check, dir Direction, payload any, rc ContextReader) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = Verdict{
				Check:             check.Name(),
				TripwireTriggered: true,
				AllowExecution:    false,
				ViolationType:     ViolationGuardrailError,
				Message:           fmt.Sprintf("check %s failed internally: %v", check.Name(), r),
			}
		}
	}()
	verdict = check.Evaluate(ctx, dir, payload, rc)
	verdict.Check = check.Name()
	return verdict
}
