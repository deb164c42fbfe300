package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devjibs/cvagent/internal/types"
)

// MemoryStore is an in-process Store used by tests and single-node runs.
// A single RWMutex gives readers committed snapshots: Find copies the session
// under the read lock, so a concurrent status poll never observes a
// half-written transition.
type MemoryStore struct {
	issuer *TokenIssuer

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	byToken  map[string]uuid.UUID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(issuer *TokenIssuer) *MemoryStore {
	return &MemoryStore{
		issuer:   issuer,
		sessions: make(map[uuid.UUID]*Session),
		byToken:  make(map[string]uuid.UUID),
	}
}

// Create allocates a new session in StatusCreated.
func (s *MemoryStore) Create(_ context.Context, candidateRef, jobRef string) (*Session, error) {
	id := uuid.New()
	now := time.Now().UTC()

	token, err := s.issuer.Issue(id, now)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:           id,
		Token:        token,
		Status:       StatusCreated,
		CandidateRef: candidateRef,
		JobRef:       jobRef,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.issuer.TTL()),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.byToken[token] = id
	s.mu.Unlock()

	return snapshot(sess), nil
}

// Find returns a committed snapshot for a share token, or nil when absent.
func (s *MemoryStore) Find(_ context.Context, token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byToken[token]
	if !ok {
		return nil, nil
	}
	return snapshot(s.sessions[id]), nil
}

// UpdateStatus transitions a session and appends a log entry.
func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status Status, logEntry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	if sess.Status != status && !sess.Status.CanTransitionTo(status) {
		return &InvalidTransitionError{ID: id, From: sess.Status, To: status}
	}

	sess.Status = status
	if logEntry != "" {
		sess.ProcessingLog = append(sess.ProcessingLog, LogEntry{At: time.Now().UTC(), Message: logEntry})
	}
	return nil
}

// AppendLog appends a log entry without changing status.
func (s *MemoryStore) AppendLog(_ context.Context, id uuid.UUID, entry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	sess.ProcessingLog = append(sess.ProcessingLog, LogEntry{At: time.Now().UTC(), Message: entry})
	return nil
}

// MarkCompleted transitions to StatusCompleted and sets CompletedAt once.
func (s *MemoryStore) MarkCompleted(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	if !sess.Status.CanTransitionTo(StatusCompleted) {
		return &InvalidTransitionError{ID: id, From: sess.Status, To: StatusCompleted}
	}

	now := time.Now().UTC()
	sess.Status = StatusCompleted
	sess.CompletedAt = &now
	return nil
}

// AttachDocument records a generated document owned by the session.
func (s *MemoryStore) AttachDocument(_ context.Context, id uuid.UUID, doc types.GeneratedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	sess.Documents = append(sess.Documents, doc)
	return nil
}

// snapshot deep-copies the mutable slices so callers cannot observe later writes.
func snapshot(sess *Session) *Session {
	out := *sess
	out.ProcessingLog = append([]LogEntry(nil), sess.ProcessingLog...)
	out.Documents = append([]types.GeneratedDocument(nil), sess.Documents...)
	if sess.CompletedAt != nil {
		completed := *sess.CompletedAt
		out.CompletedAt = &completed
	}
	return &out
}
