package guardrail

import (
	"context"
	"strings"

	"github.com/devjibs/cvagent/internal/types"
)

// ViolationReviewRejected is reported when the review stage declines the
// generated documents.
const ViolationReviewRejected = "ReviewRejected"

// ReviewApprovedCheck blocks the pipeline when the reviewer did not approve
// the generated drafts.
type ReviewApprovedCheck struct{}

// NewReviewApprovedCheck creates the review post-check.
func NewReviewApprovedCheck() *ReviewApprovedCheck { return &ReviewApprovedCheck{} }

func (c *ReviewApprovedCheck) Name() string   { return "review_approved" }
func (c *ReviewApprovedCheck) Priority() int  { return 10 }
func (c *ReviewApprovedCheck) Policy() Policy { return Blocking }

func (c *ReviewApprovedCheck) Evaluate(_ context.Context, _ Direction, payload any, _ ContextReader) Verdict {
	var review *types.ReviewResult
	switch p := payload.(type) {
	case *types.ReviewResult:
		review = p
	case types.ReviewResult:
		review = &p
	default:
		return unsupportedPayload(c.Name())
	}

	if review.Approved {
		return Pass(c.Name())
	}

	message := "reviewer rejected the generated documents"
	if len(review.Issues) > 0 {
		parts := make([]string, 0, len(review.Issues))
		for _, issue := range review.Issues {
			parts = append(parts, issue.String())
		}
		message += ": " + strings.Join(parts, "; ")
	}
	v := Trip(c.Name(), c.Policy(), ViolationReviewRejected, message)
	if review.Notes != "" {
		v.Details = map[string]any{"notes": review.Notes}
	}
	return v
}
