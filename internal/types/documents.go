package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocumentKind identifies which tailored document a draft or artifact represents.
type DocumentKind string

const (
	KindCV          DocumentKind = "cv"
	KindCoverLetter DocumentKind = "cover_letter"
)

// Valid reports whether the kind is one of the known document kinds.
func (k DocumentKind) Valid() bool {
	return k == KindCV || k == KindCoverLetter
}

// DraftDocument is generated text for one document kind, prior to rendering.
type DraftDocument struct {
	Kind DocumentKind `json:"kind"`
	Body string       `json:"body"`
}

// Review issue severities.
const (
	ReviewSeverityBlocking = "blocking"
	ReviewSeverityMinor    = "minor"
)

// ReviewIssue is one problem the reviewer found in a generated draft.
type ReviewIssue struct {
	Document    DocumentKind `json:"document"`
	Severity    string       `json:"severity"`
	Description string       `json:"description"`
}

func (i ReviewIssue) String() string {
	if i.Document == "" {
		return i.Description
	}
	return fmt.Sprintf("%s: %s", i.Document, i.Description)
}

// ReviewResult is the reviewer's verdict over the generated drafts.
type ReviewResult struct {
	Approved bool          `json:"approved"`
	Notes    string        `json:"notes,omitempty"`
	Issues   []ReviewIssue `json:"issues,omitempty"`
}

// GeneratedDocument is a rendered, stored artifact owned by a session.
// Records are created only by the terminal formatting stage.
type GeneratedDocument struct {
	ID          uuid.UUID    `json:"id"`
	SessionID   uuid.UUID    `json:"session_id"`
	Kind        DocumentKind `json:"kind"`
	FileName    string       `json:"file_name"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	BlobRef     string       `json:"blob_ref"`
	CreatedAt   time.Time    `json:"created_at"`
}

// FileName builds the conventional download name for a document kind.
func FileName(kind DocumentKind, company string) string {
	base := "document"
	switch kind {
	case KindCV:
		base = "cv"
	case KindCoverLetter:
		base = "cover-letter"
	}
	if company == "" {
		return base + ".pdf"
	}
	return fmt.Sprintf("%s-%s.pdf", base, slugify(company))
}

func slugify(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '-' || r == '_':
			out = append(out, '-')
		}
	}
	return string(out)
}
