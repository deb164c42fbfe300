package guardrail

import (
	"context"
	"strings"

	"github.com/devjibs/cvagent/internal/types"
)

// ViolationFabricatedContent is reported when a generated document claims a
// skill the candidate never demonstrated.
const ViolationFabricatedContent = "FabricatedContent"

// FabricatedContentCheck compares a generated draft against the parsed
// candidate profile and blocks drafts that name job-posting skills absent from
// the candidate's actual background.
type FabricatedContentCheck struct {
	candidateKey string
	jobKey       string
}

// NewFabricatedContentCheck creates the fabrication post-check. The keys name
// the shared-context entries holding the parsed candidate profile and job
// posting.
func NewFabricatedContentCheck(candidateKey, jobKey string) *FabricatedContentCheck {
	return &FabricatedContentCheck{candidateKey: candidateKey, jobKey: jobKey}
}

func (c *FabricatedContentCheck) Name() string   { return "fabricated_content" }
func (c *FabricatedContentCheck) Priority() int  { return 20 }
func (c *FabricatedContentCheck) Policy() Policy { return Blocking }

func (c *FabricatedContentCheck) Evaluate(_ context.Context, _ Direction, payload any, rc ContextReader) Verdict {
	body, ok := textOf(payload)
	if !ok {
		return unsupportedPayload(c.Name())
	}

	candidate, ok := lookupAs[*types.CandidateProfile](rc, c.candidateKey)
	if !ok {
		return Verdict{
			Check:             c.Name(),
			TripwireTriggered: true,
			AllowExecution:    false,
			ViolationType:     ViolationGuardrailError,
			Message:           "candidate profile not available in shared context",
		}
	}

	// The job posting narrows the skill vocabulary we scan for; without it the
	// check degrades to a pass rather than guessing.
	job, ok := lookupAs[*types.JobPosting](rc, c.jobKey)
	if !ok || len(job.Skills) == 0 {
		return Pass(c.Name())
	}

	lowerBody := strings.ToLower(body)
	var fabricated []string
	for _, skill := range job.Skills {
		term := strings.ToLower(strings.TrimSpace(skill))
		if term == "" || !strings.Contains(lowerBody, term) {
			continue
		}
		if !candidate.HasSkill(skill) {
			fabricated = append(fabricated, skill)
		}
	}

	if len(fabricated) == 0 {
		return Pass(c.Name())
	}

	v := Trip(c.Name(), c.Policy(), ViolationFabricatedContent,
		"generated document claims skills absent from the resume: "+strings.Join(fabricated, ", "))
	v.Details = map[string]any{"fabricated_skills": fabricated}
	v.Recommendations = []string{"regenerate without the unsupported skills", "add the missing skills to the resume if they are real"}
	return v
}

// lookupAs fetches a context value and asserts its concrete type.
func lookupAs[T any](rc ContextReader, key string) (T, bool) {
	var zero T
	raw, ok := rc.Lookup(key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return value, true
}
