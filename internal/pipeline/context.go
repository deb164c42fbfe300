// Package pipeline provides the orchestration core: the shared run context,
// the gated stage unit, and the orchestrator that drives stages in order.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devjibs/cvagent/internal/types"
)

// Well-known context keys. Each key is written by exactly one stage and read
// by later stages; this closed set is the sole communication channel between
// stages.
const (
	KeyRequest          = "request"
	KeyCandidate        = "candidate"
	KeyJob              = "job"
	KeyMatch            = "match"
	KeyDraftCV          = "draft_cv"
	KeyDraftCoverLetter = "draft_cover_letter"
	KeyReview           = "review"
	KeyDocuments        = "documents"
)

// KeyAlreadyWrittenError is the panic payload for a double write to a context
// key. Double writes are programming defects, never runtime conditions, so
// the context fails fast instead of swallowing them.
type KeyAlreadyWrittenError struct {
	Key string
}

func (e *KeyAlreadyWrittenError) Error() string {
	return fmt.Sprintf("context key already written: %s", e.Key)
}

// KeyNotWrittenError is the panic payload when a stage demands a key its
// predecessor never produced.
type KeyNotWrittenError struct {
	Key string
}

func (e *KeyNotWrittenError) Error() string {
	return fmt.Sprintf("context key not written: %s", e.Key)
}

// Context is the mutable state bag scoped to one pipeline run. Keys are
// write-once: once a stage stores a value it is immutable for the remainder
// of the run, so guardrail evaluations and audits always see a consistent
// view. A Context is owned by a single run and never shared across runs.
type Context struct {
	sessionID uuid.UUID
	token     string

	mu     sync.RWMutex
	values map[string]any
	meta   map[string]any
	log    []string
}

// NewContext creates an empty context bound to a session.
func NewContext(sessionID uuid.UUID, token string) *Context {
	return &Context{
		sessionID: sessionID,
		token:     token,
		values:    make(map[string]any),
		meta:      make(map[string]any),
	}
}

// SessionID returns the owning session's ID.
func (c *Context) SessionID() uuid.UUID { return c.sessionID }

// Token returns the owning session's share token.
func (c *Context) Token() string { return c.token }

// Set stores a value under a write-once key. It panics with
// *KeyAlreadyWrittenError if the key was already written.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.values[key]; exists {
		panic(&KeyAlreadyWrittenError{Key: key})
	}
	c.values[key] = value
}

// Lookup returns the value stored under key, if any. It satisfies the
// guardrail ContextReader interface.
func (c *Context) Lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// mustLookup returns the value for key or panics with *KeyNotWrittenError.
func (c *Context) mustLookup(key string) any {
	v, ok := c.Lookup(key)
	if !ok {
		panic(&KeyNotWrittenError{Key: key})
	}
	return v
}

// SetMeta stores informational metadata. Unlike stage keys, metadata carries
// no stage semantics and may be overwritten.
func (c *Context) SetMeta(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta[key] = value
}

// Meta returns informational metadata stored under key.
func (c *Context) Meta(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.meta[key]
	return v, ok
}

// AppendLog appends an entry to the run's informational processing trail.
func (c *Context) AppendLog(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, fmt.Sprintf(format, args...))
}

// Log returns a copy of the processing trail.
func (c *Context) Log() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.log...)
}

// Typed accessors over the closed key set. Each stage's consumed and produced
// types are statically checked through these instead of raw any lookups.

// Request returns the run's initial input.
func (c *Context) Request() *Request {
	return c.mustLookup(KeyRequest).(*Request)
}

// Candidate returns the parsed candidate profile, if written.
func (c *Context) Candidate() (*types.CandidateProfile, bool) {
	v, ok := c.Lookup(KeyCandidate)
	if !ok {
		return nil, false
	}
	return v.(*types.CandidateProfile), true
}

// MustCandidate returns the parsed candidate profile or panics.
func (c *Context) MustCandidate() *types.CandidateProfile {
	return c.mustLookup(KeyCandidate).(*types.CandidateProfile)
}

// Job returns the parsed job posting, if written.
func (c *Context) Job() (*types.JobPosting, bool) {
	v, ok := c.Lookup(KeyJob)
	if !ok {
		return nil, false
	}
	return v.(*types.JobPosting), true
}

// MustJob returns the parsed job posting or panics.
func (c *Context) MustJob() *types.JobPosting {
	return c.mustLookup(KeyJob).(*types.JobPosting)
}

// Match returns the match result, if written.
func (c *Context) Match() (*types.MatchResult, bool) {
	v, ok := c.Lookup(KeyMatch)
	if !ok {
		return nil, false
	}
	return v.(*types.MatchResult), true
}

// MustMatch returns the match result or panics.
func (c *Context) MustMatch() *types.MatchResult {
	return c.mustLookup(KeyMatch).(*types.MatchResult)
}

// Draft returns the generated draft for a document kind, if written.
func (c *Context) Draft(kind types.DocumentKind) (*types.DraftDocument, bool) {
	v, ok := c.Lookup(draftKey(kind))
	if !ok {
		return nil, false
	}
	return v.(*types.DraftDocument), true
}

// MustDraft returns the generated draft for a document kind or panics.
func (c *Context) MustDraft(kind types.DocumentKind) *types.DraftDocument {
	return c.mustLookup(draftKey(kind)).(*types.DraftDocument)
}

// Review returns the review result, if written.
func (c *Context) Review() (*types.ReviewResult, bool) {
	v, ok := c.Lookup(KeyReview)
	if !ok {
		return nil, false
	}
	return v.(*types.ReviewResult), true
}

// Documents returns the generated document records, if written.
func (c *Context) Documents() ([]types.GeneratedDocument, bool) {
	v, ok := c.Lookup(KeyDocuments)
	if !ok {
		return nil, false
	}
	return v.([]types.GeneratedDocument), true
}

func draftKey(kind types.DocumentKind) string {
	if kind == types.KindCoverLetter {
		return KeyDraftCoverLetter
	}
	return KeyDraftCV
}

// Request is the initial input that seeds a pipeline run.
type Request struct {
	ResumeFileName string `json:"resume_file_name"`
	ResumeMIME     string `json:"resume_mime"`
	ResumeData     []byte `json:"-"`

	JobURL string `json:"job_url"`

	// CreatedAt records when the run was accepted.
	CreatedAt time.Time `json:"created_at"`
}
