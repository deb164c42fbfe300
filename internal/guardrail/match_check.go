package guardrail

import (
	"context"
	"strings"

	"github.com/devjibs/cvagent/internal/types"
)

// ViolationMatchInconsistent is reported when a match result credits the
// candidate with skills their resume never demonstrates.
const ViolationMatchInconsistent = "MatchInconsistent"

// MatchConsistencyCheck cross-checks a match result against the parsed
// candidate profile: every matched skill must actually appear in the
// candidate's background. The score itself is the model's judgement and is
// not second-guessed here.
type MatchConsistencyCheck struct {
	candidateKey string
}

// NewMatchConsistencyCheck creates the match post-check. candidateKey names
// the shared-context entry holding the parsed candidate profile.
func NewMatchConsistencyCheck(candidateKey string) *MatchConsistencyCheck {
	return &MatchConsistencyCheck{candidateKey: candidateKey}
}

func (c *MatchConsistencyCheck) Name() string   { return "match_consistency" }
func (c *MatchConsistencyCheck) Priority() int  { return 20 }
func (c *MatchConsistencyCheck) Policy() Policy { return Blocking }

func (c *MatchConsistencyCheck) Evaluate(_ context.Context, _ Direction, payload any, rc ContextReader) Verdict {
	match, ok := payload.(*types.MatchResult)
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

	var unsupported []string
	for _, skill := range match.MatchedSkills {
		if strings.TrimSpace(skill) == "" {
			continue
		}
		if !candidate.HasSkill(skill) {
			unsupported = append(unsupported, skill)
		}
	}

	if len(unsupported) == 0 {
		return Pass(c.Name())
	}

	v := Trip(c.Name(), c.Policy(), ViolationMatchInconsistent,
		"match credits skills absent from the resume: "+strings.Join(unsupported, ", "))
	v.Details = map[string]any{"unsupported_skills": unsupported}
	return v
}
