package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client is the provider abstraction the pipeline stages call.
type Client interface {
	// Generate produces free-form text for a prompt.
	Generate(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// Analyze produces a JSON document for a prompt. The returned string is
	// stripped of markdown code fences so it can be unmarshalled directly.
	Analyze(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// Close releases provider resources.
	Close() error
}

// ProviderError wraps a failure from the model provider so callers can
// report which operation failed without parsing provider messages.
type ProviderError struct {
	Provider Provider
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewClient creates a client for the configured provider.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	return NewGeminiClient(ctx, config, apiKey)
}

// GeminiClient implements Client on the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Op: "create client", Err: err}
	}

	return &GeminiClient{client: client, config: config}, nil
}

// Generate produces free-form text using the model configured for the tier.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.model(tier)
	if err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Op: "generate content", Err: err}
	}

	return extractText(resp)
}

// Analyze produces JSON output using the model configured for the tier.
func (c *GeminiClient) Analyze(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.model(tier)
	if err != nil {
		return "", err
	}
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Op: "generate json", Err: err}
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *GeminiClient) model(tier ModelTier) (*genai.GenerativeModel, error) {
	name := c.config.Model(tier)
	if name == "" {
		return nil, fmt.Errorf("no model configured for tier %s", tier)
	}
	model := c.client.GenerativeModel(name)
	// Low temperature keeps extraction and matching output stable.
	model.SetTemperature(0.1)
	return model, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &ProviderError{Provider: ProviderGemini, Op: "read response", Err: fmt.Errorf("no candidates in response")}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &ProviderError{Provider: ProviderGemini, Op: "read response", Err: fmt.Errorf("no content in response")}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", &ProviderError{Provider: ProviderGemini, Op: "read response", Err: fmt.Errorf("no text parts in response")}
	}

	return strings.Join(parts, ""), nil
}

// CleanJSONBlock strips markdown code fences some models wrap JSON in.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
