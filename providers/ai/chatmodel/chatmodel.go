// Package chatmodel resolves "provider:model" identifiers such as
// "google_genai:gemini-2.5-flash" to a configured ai.Provider.
package chatmodel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leofalp/localgraph/providers/ai"
	"github.com/leofalp/localgraph/providers/ai/anthropic"
	"github.com/leofalp/localgraph/providers/ai/gemini"
	"github.com/leofalp/localgraph/providers/ai/openai"
)

// Default is the model the agent graph uses when none is configured.
const Default = "google_genai:gemini-2.5-flash"

// Canonical provider names.
const (
	ProviderGoogleGenAI = "google_genai"
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
)

var ErrUnknownProvider = errors.New("unknown model provider")

var aliases = map[string]string{
	"google_genai": ProviderGoogleGenAI,
	"google":       ProviderGoogleGenAI,
	"gemini":       ProviderGoogleGenAI,
	"openai":       ProviderOpenAI,
	"anthropic":    ProviderAnthropic,
}

// ChatModel is a provider bound to one model name.
type ChatModel struct {
	Provider     ai.Provider
	ProviderName string
	Model        string
}

// String returns the canonical "provider:model" form.
func (m *ChatModel) String() string {
	return m.ProviderName + ":" + m.Model
}

// Parse splits a model identifier into its canonical provider name and
// model. Without a provider prefix the provider is inferred from the
// model name.
func Parse(spec string) (provider, model string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", fmt.Errorf("%w: empty model identifier", ErrUnknownProvider)
	}

	if prefix, rest, ok := strings.Cut(spec, ":"); ok {
		canonical, known := aliases[strings.ToLower(prefix)]
		if !known {
			return "", "", fmt.Errorf("%w: %q", ErrUnknownProvider, prefix)
		}
		if rest == "" {
			return "", "", fmt.Errorf("model identifier %q has no model name", spec)
		}
		return canonical, rest, nil
	}

	if p := infer(spec); p != "" {
		return p, spec, nil
	}
	return "", "", fmt.Errorf("%w: cannot infer provider for %q", ErrUnknownProvider, spec)
}

func infer(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gemini"):
		return ProviderGoogleGenAI
	case strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return ProviderOpenAI
	case strings.HasPrefix(m, "claude"):
		return ProviderAnthropic
	default:
		return ""
	}
}

// New parses spec and builds the matching provider from the environment.
func New(spec string) (*ChatModel, error) {
	providerName, model, err := Parse(spec)
	if err != nil {
		return nil, err
	}

	var provider ai.Provider
	switch providerName {
	case ProviderGoogleGenAI:
		provider = gemini.New()
	case ProviderOpenAI:
		provider = openai.New()
	case ProviderAnthropic:
		provider = anthropic.New()
	}
	return &ChatModel{Provider: provider, ProviderName: providerName, Model: model}, nil
}
