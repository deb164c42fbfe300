package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ModelFallback(t *testing.T) {
	tests := []struct {
		name   string
		models map[ModelTier]string
		tier   ModelTier
		want   string
	}{
		{
			name:   "exact tier",
			models: map[ModelTier]string{TierAdvanced: "pro"},
			tier:   TierAdvanced,
			want:   "pro",
		},
		{
			name:   "falls back to standard",
			models: map[ModelTier]string{TierStandard: "flash"},
			tier:   TierAdvanced,
			want:   "flash",
		},
		{
			name:   "falls back to lite",
			models: map[ModelTier]string{TierLite: "flash-lite"},
			tier:   TierStandard,
			want:   "flash-lite",
		},
		{
			name:   "nothing configured",
			models: map[ModelTier]string{},
			tier:   TierLite,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Provider: ProviderGemini, Models: tt.models}
			assert.Equal(t, tt.want, c.Model(tt.tier))
		})
	}
}

func TestConfig_WithModelDoesNotMutateOriginal(t *testing.T) {
	base := DefaultConfig()
	override := base.WithModel(TierAdvanced, "custom-pro")

	assert.Equal(t, "custom-pro", override.Model(TierAdvanced))
	assert.Equal(t, "gemini-2.5-pro", base.Model(TierAdvanced))
}

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(t.Context(), DefaultConfig(), "")
	assert.Error(t, err)
}
