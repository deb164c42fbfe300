// Package session provides the persisted record of one pipeline run: its
// identity, status, processing log, and produced documents.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/devjibs/cvagent/internal/types"
)

// Status is the lifecycle state of a session. Transitions are monotonic and
// terminal states never change.
type Status string

const (
	StatusCreated    Status = "created"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// transition.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case StatusCreated:
		return next == StatusProcessing || next == StatusFailed || next == StatusExpired
	case StatusProcessing:
		return next.Terminal()
	}
	return false
}

// LogEntry is one appended line of the session's processing log.
type LogEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Session is the externally-visible record of one pipeline run.
type Session struct {
	ID    uuid.UUID `json:"id"`
	Token string    `json:"token"`

	Status       Status `json:"status"`
	CandidateRef string `json:"candidate_ref,omitempty"`
	JobRef       string `json:"job_ref,omitempty"`

	ProcessingLog []LogEntry                `json:"processing_log"`
	Documents     []types.GeneratedDocument `json:"documents,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// StatusView is the read-only projection returned to status pollers.
type StatusView struct {
	Token         string                    `json:"token"`
	Status        Status                    `json:"status"`
	ProcessingLog []LogEntry                `json:"processing_log"`
	Documents     []types.GeneratedDocument `json:"documents,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	CompletedAt   *time.Time                `json:"completed_at,omitempty"`
}

// View builds the status projection for a session snapshot.
func (s *Session) View() StatusView {
	return StatusView{
		Token:         s.Token,
		Status:        s.Status,
		ProcessingLog: s.ProcessingLog,
		Documents:     s.Documents,
		CreatedAt:     s.CreatedAt,
		CompletedAt:   s.CompletedAt,
	}
}
