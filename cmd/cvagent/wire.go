package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/devjibs/cvagent/internal/blob"
	"github.com/devjibs/cvagent/internal/config"
	"github.com/devjibs/cvagent/internal/fetch"
	"github.com/devjibs/cvagent/internal/llm"
	"github.com/devjibs/cvagent/internal/pipeline"
	"github.com/devjibs/cvagent/internal/session"
	"github.com/devjibs/cvagent/internal/stages"
)

// runtime bundles the wired collaborators behind one cleanup handle.
type runtime struct {
	orchestrator *pipeline.Orchestrator
	sessions     session.Store
	blobs        blob.Store

	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime wires the full pipeline from configuration: the Gemini client,
// the page fetcher, blob and session storage, and the stage list. The session
// store is Postgres when a database URL is configured, in-memory otherwise;
// the blob store is filesystem-backed when a blob directory is configured.
func buildRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s environment variable or --api-key flag is required", config.EnvAPIKey)
	}

	rt := &runtime{}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	rt.closers = append(rt.closers, func() { _ = client.Close() })

	secret := cfg.TokenSecret
	if secret == "" {
		// One-shot runs without a configured secret get an ephemeral one;
		// tokens then only outlive the process if the secret is persisted.
		secret = uuid.NewString()
	}
	issuer, err := session.NewTokenIssuer([]byte(secret), cfg.SessionTTL())
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		store, err := session.ConnectPostgres(ctx, cfg.DatabaseURL, issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		rt.closers = append(rt.closers, store.Close)
		rt.sessions = store
	} else {
		rt.sessions = session.NewMemoryStore(issuer)
	}

	if cfg.BlobDir != "" {
		store, err := blob.NewFSStore(cfg.BlobDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open blob store: %w", err)
		}
		rt.blobs = store
	} else {
		rt.blobs = blob.NewMemoryStore()
	}

	fetcher := fetch.NewFetcher(&fetch.Options{UseBrowser: cfg.UseBrowser})

	deps := &stages.Deps{
		LLM:          client,
		Fetcher:      fetcher,
		Blobs:        rt.blobs,
		Sessions:     rt.sessions,
		StageTimeout: cfg.StageTimeout(),
	}
	rt.orchestrator = pipeline.NewOrchestrator(rt.sessions, stages.Pipeline(deps)...)

	return rt, nil
}
