package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devjibs/cvagent/internal/extract"
	"github.com/devjibs/cvagent/internal/guardrail"
	"github.com/devjibs/cvagent/internal/llm"
	"github.com/devjibs/cvagent/internal/pipeline"
	"github.com/devjibs/cvagent/internal/prompts"
	"github.com/devjibs/cvagent/internal/schemas"
	"github.com/devjibs/cvagent/internal/types"
)

// Stage names in execution order.
const (
	StageParseResume         = "parse_resume"
	StageExtractJob          = "extract_job"
	StageMatch               = "match"
	StageGenerateCV          = "generate_cv"
	StageGenerateCoverLetter = "generate_cover_letter"
	StageReview              = "review"
	StageFormatAndStore      = "format_and_store"
)

// Resume length bounds for the parse pre-gate, in runes.
const (
	minResumeLength = 100
	maxResumeLength = 100_000
)

// Draft length bounds for the generation post-gates, in runes.
const (
	minDraftLength       = 200
	maxCVLength          = 20_000
	maxCoverLetterLength = 6_000
)

// Pipeline returns the full ordered stage list wired to deps.
func Pipeline(deps *Deps) []*pipeline.Stage {
	d := deps.withDefaults()
	return []*pipeline.Stage{
		ParseResume(d),
		ExtractJob(d),
		Match(d),
		GenerateCV(d),
		GenerateCoverLetter(d),
		Review(d),
		FormatAndStore(d),
	}
}

// ParseResume turns the uploaded résumé into a structured candidate profile.
// The pre-gate bounds the upload size and scans it for injection attempts;
// the post-gate validates the profile against its schema.
func ParseResume(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    StageParseResume,
		Timeout: d.StageTimeout,
		PreGate: guardrail.NewGate(guardrail.PreStage,
			guardrail.NewContentLengthCheck(minResumeLength, maxResumeLength),
			guardrail.NewInjectionHeuristicsCheck(),
		),
		PostGate: guardrail.NewGate(guardrail.PostStage,
			guardrail.NewSchemaConformanceCheck(schemas.CandidateProfile),
		),
		Input: func(rc *pipeline.Context) any {
			return string(rc.Request().ResumeData)
		},
		Body: func(ctx context.Context, rc *pipeline.Context, _ any) (any, error) {
			req := rc.Request()

			text, err := extract.Text(req.ResumeMIME, req.ResumeData)
			if err != nil {
				return nil, fmt.Errorf("failed to extract resume text: %w", err)
			}

			template := prompts.MustGet(prompts.FileParsing, "parse-resume")
			prompt := prompts.Format(template, map[string]string{
				"ResumeText": prompts.QuoteExternalContentWithLabel(text, "resume"),
			})

			raw, err := d.LLM.Analyze(ctx, prompt, llm.TierStandard)
			if err != nil {
				return nil, fmt.Errorf("failed to parse resume: %w", err)
			}

			var profile types.CandidateProfile
			if err := json.Unmarshal([]byte(raw), &profile); err != nil {
				return nil, fmt.Errorf("failed to unmarshal candidate profile: %w", err)
			}
			profile.RawText = text
			return &profile, nil
		},
		Commit: func(rc *pipeline.Context, output any) {
			rc.Set(pipeline.KeyCandidate, output.(*types.CandidateProfile))
		},
	}
}

// ExtractJob fetches the posting URL and distills it into a structured job
// posting. The pre-gate rejects malformed URLs before any network call.
func ExtractJob(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    StageExtractJob,
		Timeout: d.StageTimeout,
		PreGate: guardrail.NewGate(guardrail.PreStage,
			guardrail.NewURLFormatCheck(),
		),
		PostGate: guardrail.NewGate(guardrail.PostStage,
			guardrail.NewSchemaConformanceCheck(schemas.JobPosting),
		),
		Input: func(rc *pipeline.Context) any {
			return rc.Request().JobURL
		},
		Body: func(ctx context.Context, rc *pipeline.Context, input any) (any, error) {
			url := input.(string)

			page, err := d.Fetcher.Fetch(ctx, url)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch job posting: %w", err)
			}

			template := prompts.MustGet(prompts.FileIngestion, "extract-job-posting")
			prompt := prompts.Format(template, map[string]string{
				"JobText": prompts.QuoteExternalContentWithLabel(page.Text, "job posting"),
			})

			raw, err := d.LLM.Analyze(ctx, prompt, llm.TierLite)
			if err != nil {
				return nil, fmt.Errorf("failed to extract job posting: %w", err)
			}

			var job types.JobPosting
			if err := json.Unmarshal([]byte(raw), &job); err != nil {
				return nil, fmt.Errorf("failed to unmarshal job posting: %w", err)
			}
			job.URL = url
			return &job, nil
		},
		Commit: func(rc *pipeline.Context, output any) {
			rc.Set(pipeline.KeyJob, output.(*types.JobPosting))
		},
	}
}

// Match scores the candidate against the job posting.
func Match(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    StageMatch,
		Timeout: d.StageTimeout,
		PostGate: guardrail.NewGate(guardrail.PostStage,
			guardrail.NewSchemaConformanceCheck(schemas.MatchResult),
			guardrail.NewMatchConsistencyCheck(pipeline.KeyCandidate),
		),
		Body: func(ctx context.Context, rc *pipeline.Context, _ any) (any, error) {
			template := prompts.MustGet(prompts.FileMatching, "match-candidate")
			prompt := prompts.Format(template, map[string]string{
				"CandidateJSON": mustJSON(rc.MustCandidate()),
				"JobJSON":       mustJSON(rc.MustJob()),
			})

			raw, err := d.LLM.Analyze(ctx, prompt, llm.TierStandard)
			if err != nil {
				return nil, fmt.Errorf("failed to match candidate: %w", err)
			}

			var match types.MatchResult
			if err := json.Unmarshal([]byte(raw), &match); err != nil {
				return nil, fmt.Errorf("failed to unmarshal match result: %w", err)
			}
			return &match, nil
		},
		Commit: func(rc *pipeline.Context, output any) {
			rc.Set(pipeline.KeyMatch, output.(*types.MatchResult))
		},
	}
}

// GenerateCV drafts the tailored CV. The post-gate blocks drafts that claim
// job skills the candidate does not have, and bounds the draft length.
func GenerateCV(d *Deps) *pipeline.Stage {
	return generationStage(d, StageGenerateCV, types.KindCV, "generate-cv", maxCVLength)
}

// GenerateCoverLetter drafts the tailored cover letter with the same
// post-gate checks as the CV.
func GenerateCoverLetter(d *Deps) *pipeline.Stage {
	return generationStage(d, StageGenerateCoverLetter, types.KindCoverLetter, "generate-cover-letter", maxCoverLetterLength)
}

func generationStage(d *Deps, name string, kind types.DocumentKind, promptKey string, maxLength int) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    name,
		Timeout: d.StageTimeout,
		PostGate: guardrail.NewGate(guardrail.PostStage,
			guardrail.NewFabricatedContentCheck(pipeline.KeyCandidate, pipeline.KeyJob),
			guardrail.NewContentLengthCheck(minDraftLength, maxLength),
			guardrail.NewBannedPhraseCheck(),
		),
		Body: func(ctx context.Context, rc *pipeline.Context, _ any) (any, error) {
			template := prompts.MustGet(prompts.FileGeneration, promptKey)
			prompt := prompts.Format(template, map[string]string{
				"CandidateJSON": mustJSON(rc.MustCandidate()),
				"JobJSON":       mustJSON(rc.MustJob()),
				"MatchJSON":     mustJSON(rc.MustMatch()),
			})

			body, err := d.LLM.Generate(ctx, prompt, llm.TierAdvanced)
			if err != nil {
				return nil, fmt.Errorf("failed to generate %s: %w", kind, err)
			}
			return &types.DraftDocument{Kind: kind, Body: body}, nil
		},
		Commit: func(rc *pipeline.Context, output any) {
			draft := output.(*types.DraftDocument)
			if kind == types.KindCoverLetter {
				rc.Set(pipeline.KeyDraftCoverLetter, draft)
			} else {
				rc.Set(pipeline.KeyDraftCV, draft)
			}
		},
	}
}

// Review asks the reviewer model to check both drafts against the candidate
// profile. The post-gate turns a rejection into a blocking violation.
func Review(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    StageReview,
		Timeout: d.StageTimeout,
		PostGate: guardrail.NewGate(guardrail.PostStage,
			guardrail.NewReviewApprovedCheck(),
		),
		Body: func(ctx context.Context, rc *pipeline.Context, _ any) (any, error) {
			template := prompts.MustGet(prompts.FileReview, "review-documents")
			prompt := prompts.Format(template, map[string]string{
				"CandidateJSON":   mustJSON(rc.MustCandidate()),
				"JobJSON":         mustJSON(rc.MustJob()),
				"MatchJSON":       mustJSON(rc.MustMatch()),
				"CVText":          rc.MustDraft(types.KindCV).Body,
				"CoverLetterText": rc.MustDraft(types.KindCoverLetter).Body,
			})

			raw, err := d.LLM.Analyze(ctx, prompt, llm.TierStandard)
			if err != nil {
				return nil, fmt.Errorf("failed to review documents: %w", err)
			}

			var review types.ReviewResult
			if err := json.Unmarshal([]byte(raw), &review); err != nil {
				return nil, fmt.Errorf("failed to unmarshal review result: %w", err)
			}
			return &review, nil
		},
		Commit: func(rc *pipeline.Context, output any) {
			rc.Set(pipeline.KeyReview, output.(*types.ReviewResult))
		},
	}
}

// FormatAndStore renders both approved drafts to PDF, uploads the bytes, and
// attaches the document records to the session.
func FormatAndStore(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name: StageFormatAndStore,
		Body: func(ctx context.Context, rc *pipeline.Context, _ any) (any, error) {
			candidate := rc.MustCandidate()
			job := rc.MustJob()

			var docs []types.GeneratedDocument
			for _, kind := range []types.DocumentKind{types.KindCV, types.KindCoverLetter} {
				draft := rc.MustDraft(kind)

				title := fmt.Sprintf("%s - %s", candidate.Name, job.RoleTitle)
				html, err := d.RenderHTML(draft, title)
				if err != nil {
					return nil, fmt.Errorf("failed to render %s: %w", kind, err)
				}

				pdf, err := d.RenderPDF(ctx, html, d.PDFTimeout)
				if err != nil {
					return nil, fmt.Errorf("failed to print %s: %w", kind, err)
				}

				ref, err := d.Blobs.Upload(ctx, pdf)
				if err != nil {
					return nil, fmt.Errorf("failed to store %s: %w", kind, err)
				}

				doc := types.GeneratedDocument{
					ID:          uuid.New(),
					SessionID:   rc.SessionID(),
					Kind:        kind,
					FileName:    types.FileName(kind, job.Company),
					ContentType: "application/pdf",
					SizeBytes:   int64(len(pdf)),
					BlobRef:     ref,
					CreatedAt:   time.Now().UTC(),
				}

				if err := d.Sessions.AttachDocument(ctx, rc.SessionID(), doc); err != nil {
					return nil, fmt.Errorf("failed to attach %s record: %w", kind, err)
				}
				docs = append(docs, doc)
			}

			return docs, nil
		},
		Commit: func(rc *pipeline.Context, output any) {
			rc.Set(pipeline.KeyDocuments, output.([]types.GeneratedDocument))
		},
	}
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal prompt payload: %v", err))
	}
	return string(data)
}
