package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/devjibs/cvagent/internal/types"
)

// Store persists sessions. Implementations must guarantee that readers never
// observe a half-written transition: every returned session is a committed
// snapshot.
type Store interface {
	// Create allocates a new session in StatusCreated with a fresh share token.
	Create(ctx context.Context, candidateRef, jobRef string) (*Session, error)
	// Find returns the session for a share token, or nil when absent.
	Find(ctx context.Context, token string) (*Session, error)
	// UpdateStatus transitions a session and appends a log entry. It fails
	// with *InvalidTransitionError when the move is not monotonic.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, logEntry string) error
	// AppendLog appends a log entry without changing status.
	AppendLog(ctx context.Context, id uuid.UUID, entry string) error
	// MarkCompleted transitions to StatusCompleted and sets CompletedAt once.
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	// AttachDocument records a generated document owned by the session.
	AttachDocument(ctx context.Context, id uuid.UUID, doc types.GeneratedDocument) error
}

// NotFoundError indicates the session does not exist.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// InvalidTransitionError indicates a status change that would move the
// session backwards or out of a terminal state.
type InvalidTransitionError struct {
	ID   uuid.UUID
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("session %s: invalid status transition %s -> %s", e.ID, e.From, e.To)
}
