// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/devjibs/cvagent/internal/guardrail"
	"github.com/devjibs/cvagent/internal/pipeline"
	"github.com/devjibs/cvagent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintMatch outputs a human-readable summary of the match analysis.
func (p *Printer) PrintMatch(match *types.MatchResult) {
	if match == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:    %.2f\n", match.Score))

	if len(match.MatchedSkills) > 0 {
		sb.WriteString("\nMatched Skills:\n")
		count := min(len(match.MatchedSkills), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", match.MatchedSkills[i]))
		}
		if len(match.MatchedSkills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(match.MatchedSkills)-maxItemsToShow))
		}
	}

	if len(match.MissingSkills) > 0 {
		sb.WriteString("\nMissing Skills:\n")
		count := min(len(match.MissingSkills), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", match.MissingSkills[i]))
		}
		if len(match.MissingSkills) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(match.MissingSkills)-3))
		}
	}

	p.printBox("MATCH ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintGateDecision outputs the verdicts of one guardrail gate run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintGateDecision(stage string, decision *guardrail.Decision) {
	if decision == nil {
		return
	}

	if decision.AllowExecution && len(decision.Tripwires()) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("✅ %s %s-GATE CLEAN", strings.ToUpper(stage), strings.ToUpper(string(decision.Direction))))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	tripped := decision.Tripwires()
	sb.WriteString(fmt.Sprintf("Tripwires: %d of %d checks\n\n", len(tripped), len(decision.Verdicts)))

	for i, v := range tripped {
		marker := "⚠"
		if !v.AllowExecution {
			marker = "✗"
		}
		message := v.Message
		if len(message) > 45 {
			message = message[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("%s %s (%s)\n", marker, v.ViolationType, v.Check))
		sb.WriteString(fmt.Sprintf("  %s\n", message))
		if i < len(tripped)-1 {
			sb.WriteString("\n")
		}
	}

	title := fmt.Sprintf("%s %s-GATE VERDICTS", strings.ToUpper(stage), strings.ToUpper(string(decision.Direction)))
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunResult outputs the per-stage outcome list and the final verdict.
func (p *Printer) PrintRunResult(result *pipeline.RunResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	for i, outcome := range result.Outcomes {
		marker := "✓"
		if outcome.Failed() {
			marker = "✗"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s (%s)\n", marker, i+1, outcome.Stage, outcome.Status))
	}

	sb.WriteString("\n")
	if result.Success {
		sb.WriteString(fmt.Sprintf("Completed with %d documents\n", len(result.Documents)))
		for _, doc := range result.Documents {
			sb.WriteString(fmt.Sprintf("  • %s (%d bytes)\n", doc.FileName, doc.SizeBytes))
		}
	} else {
		sb.WriteString(fmt.Sprintf("Failed (%s)\n", result.FailureKind))
		summary := result.FailureSummary
		if len(summary) > 50 {
			summary = summary[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("  %s\n", summary))
	}

	p.printBox("PIPELINE RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReview outputs the reviewer verdict over the generated drafts.
func (p *Printer) PrintReview(review *types.ReviewResult) {
	if review == nil {
		return
	}

	var sb strings.Builder
	if review.Approved {
		sb.WriteString("Verdict:  approved\n")
	} else {
		sb.WriteString("Verdict:  rejected\n")
	}
	if review.Notes != "" {
		notes := review.Notes
		if len(notes) > 50 {
			notes = notes[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("Notes:    %s\n", notes))
	}
	for _, issue := range review.Issues {
		line := issue.String()
		if len(line) > 50 {
			line = line[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("  ⚠ %s\n", line))
	}

	p.printBox("DOCUMENT REVIEW", strings.TrimSuffix(sb.String(), "\n"))
}
