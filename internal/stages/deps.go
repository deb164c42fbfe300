// Package stages builds the concrete pipeline stage list: parse resume,
// extract job, match, generate documents, review, and format-and-store, each
// wrapped by its guardrail gates.
package stages

import (
	"context"
	"time"

	"github.com/devjibs/cvagent/internal/blob"
	"github.com/devjibs/cvagent/internal/fetch"
	"github.com/devjibs/cvagent/internal/llm"
	"github.com/devjibs/cvagent/internal/render"
	"github.com/devjibs/cvagent/internal/session"
	"github.com/devjibs/cvagent/internal/types"
)

// DefaultStageTimeout bounds one collaborator call.
const DefaultStageTimeout = 2 * time.Minute

// JobFetcher retrieves a job posting page as plain text.
type JobFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Deps carries the collaborators the stages call. RenderHTML and RenderPDF
// default to the render package; tests substitute them to avoid a browser
// dependency.
type Deps struct {
	LLM      llm.Client
	Fetcher  JobFetcher
	Blobs    blob.Store
	Sessions session.Store

	StageTimeout time.Duration
	PDFTimeout   time.Duration

	RenderHTML func(draft *types.DraftDocument, title string) (string, error)
	RenderPDF  func(ctx context.Context, html string, timeout time.Duration) ([]byte, error)
}

func (d *Deps) withDefaults() *Deps {
	out := *d
	if out.StageTimeout == 0 {
		out.StageTimeout = DefaultStageTimeout
	}
	if out.PDFTimeout == 0 {
		out.PDFTimeout = render.DefaultPDFTimeout
	}
	if out.RenderHTML == nil {
		out.RenderHTML = render.HTML
	}
	if out.RenderPDF == nil {
		out.RenderPDF = render.PDF
	}
	return &out
}
