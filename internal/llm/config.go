// Package llm provides the model configuration and client abstraction for
// the generation collaborators used by the pipeline stages.
package llm

// ModelTier represents the capability level requested for a call.
type ModelTier string

const (
	// TierLite is for extraction and classification tasks.
	TierLite ModelTier = "lite"
	// TierStandard is for structured analysis such as matching and review.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form drafting of CVs and cover letters.
	TierAdvanced ModelTier = "advanced"
)

// Provider identifies an LLM provider.
type Provider string

const (
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini Provider = "gemini"
)

// Config maps model tiers to concrete provider model names.
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default Gemini configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// Model returns the model name for a tier, falling back through standard and
// lite when the requested tier is not configured.
func (c *Config) Model(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the config with one tier overridden.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)+1),
	}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return out
}
