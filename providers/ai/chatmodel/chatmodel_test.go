package chatmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/localgraph/providers/ai/anthropic"
	"github.com/leofalp/localgraph/providers/ai/gemini"
	"github.com/leofalp/localgraph/providers/ai/openai"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		model    string
	}{
		{"google_genai:gemini-2.5-flash", ProviderGoogleGenAI, "gemini-2.5-flash"},
		{"Gemini:gemini-2.0-flash", ProviderGoogleGenAI, "gemini-2.0-flash"},
		{"openai:gpt-4o-mini", ProviderOpenAI, "gpt-4o-mini"},
		{"anthropic:claude-sonnet-4-0", ProviderAnthropic, "claude-sonnet-4-0"},
		{"gemini-2.5-pro", ProviderGoogleGenAI, "gemini-2.5-pro"},
		{"o3-mini", ProviderOpenAI, "o3-mini"},
		{"claude-3-5-haiku-latest", ProviderAnthropic, "claude-3-5-haiku-latest"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			provider, model, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.provider, provider)
			assert.Equal(t, tt.model, model)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "mistral:large", "llama3"} {
		_, _, err := Parse(in)
		assert.ErrorIs(t, err, ErrUnknownProvider, in)
	}
	_, _, err := Parse("openai:")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	m, err := New(Default)
	require.NoError(t, err)
	assert.IsType(t, &gemini.GeminiProvider{}, m.Provider)
	assert.Equal(t, "google_genai:gemini-2.5-flash", m.String())

	m, err = New("gpt-4o")
	require.NoError(t, err)
	assert.IsType(t, &openai.OpenAIProvider{}, m.Provider)

	m, err = New("anthropic:claude-sonnet-4-0")
	require.NoError(t, err)
	assert.IsType(t, &anthropic.AnthropicProvider{}, m.Provider)
}
