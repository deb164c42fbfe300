package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devjibs/cvagent/internal/types"
)

// PostgresStore persists sessions in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	issuer *TokenIssuer
}

// ConnectPostgres establishes a connection pool and returns a Postgres-backed store.
func ConnectPostgres(ctx context.Context, databaseURL string, issuer *TokenIssuer) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool, issuer: issuer}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Create allocates a new session row in StatusCreated.
func (s *PostgresStore) Create(ctx context.Context, candidateRef, jobRef string) (*Session, error) {
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

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, token, status, candidate_ref, job_ref, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ID, sess.Token, sess.Status, sess.CandidateRef, sess.JobRef, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sess, nil
}

// Find returns the session for a share token, or nil when absent.
func (s *PostgresStore) Find(ctx context.Context, token string) (*Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, token, status, candidate_ref, job_ref, created_at, completed_at, expires_at
		 FROM sessions WHERE token = $1`,
		token,
	).Scan(&sess.ID, &sess.Token, &sess.Status, &sess.CandidateRef, &sess.JobRef,
		&sess.CreatedAt, &sess.CompletedAt, &sess.ExpiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if sess.ProcessingLog, err = s.loadLog(ctx, sess.ID); err != nil {
		return nil, err
	}
	if sess.Documents, err = s.loadDocuments(ctx, sess.ID); err != nil {
		return nil, err
	}

	return &sess, nil
}

// UpdateStatus transitions a session and appends a log entry, atomically.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, logEntry string) error {
	return s.transition(ctx, id, status, logEntry, false)
}

// MarkCompleted transitions to StatusCompleted and stamps CompletedAt.
func (s *PostgresStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusCompleted, "pipeline completed", true)
}

// AppendLog appends a log entry without changing status.
func (s *PostgresStore) AppendLog(ctx context.Context, id uuid.UUID, entry string) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO session_log (session_id, at, message)
		 SELECT $1, NOW(), $2 WHERE EXISTS (SELECT 1 FROM sessions WHERE id = $1)`,
		id, entry,
	)
	if err != nil {
		return fmt.Errorf("failed to append session log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

// AttachDocument records a generated document owned by the session.
func (s *PostgresStore) AttachDocument(ctx context.Context, id uuid.UUID, doc types.GeneratedDocument) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO generated_documents (id, session_id, kind, file_name, content_type, size_bytes, blob_ref, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, id, doc.Kind, doc.FileName, doc.ContentType, doc.SizeBytes, doc.BlobRef, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to attach document: %w", err)
	}
	return nil
}

// transition applies a monotonic status change inside a transaction so that
// concurrent status polls only ever observe committed states.
func (s *PostgresStore) transition(ctx context.Context, id uuid.UUID, status Status, logEntry string, stampCompleted bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current Status
	err = tx.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &NotFoundError{ID: id}
		}
		return fmt.Errorf("failed to read session status: %w", err)
	}
	if current != status && !current.CanTransitionTo(status) {
		return &InvalidTransitionError{ID: id, From: current, To: status}
	}

	if stampCompleted {
		_, err = tx.Exec(ctx, `UPDATE sessions SET status = $1, completed_at = NOW() WHERE id = $2`, status, id)
	} else {
		_, err = tx.Exec(ctx, `UPDATE sessions SET status = $1 WHERE id = $2`, status, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	if logEntry != "" {
		if _, err = tx.Exec(ctx,
			`INSERT INTO session_log (session_id, at, message) VALUES ($1, NOW(), $2)`, id, logEntry); err != nil {
			return fmt.Errorf("failed to append session log: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit status transition: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadLog(ctx context.Context, id uuid.UUID) ([]LogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT at, message FROM session_log WHERE session_id = $1 ORDER BY at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var entry LogEntry
		if err := rows.Scan(&entry.At, &entry.Message); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) loadDocuments(ctx context.Context, id uuid.UUID) ([]types.GeneratedDocument, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, kind, file_name, content_type, size_bytes, blob_ref, created_at
		 FROM generated_documents WHERE session_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	defer rows.Close()

	var docs []types.GeneratedDocument
	for rows.Next() {
		var doc types.GeneratedDocument
		if err := rows.Scan(&doc.ID, &doc.SessionID, &doc.Kind, &doc.FileName,
			&doc.ContentType, &doc.SizeBytes, &doc.BlobRef, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
