package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/leofalp/localgraph/providers/ai"
	"github.com/leofalp/localgraph/providers/observability"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-0"
	defaultMaxTokens = 4096
	providerName     = "anthropic"
)

// ErrMissingAPIKey is returned by SendMessage when no key is configured.
var ErrMissingAPIKey = errors.New("anthropic: ANTHROPIC_API_KEY is not set")

// AnthropicProvider implements ai.Provider for the Messages API.
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ ai.Provider = (*AnthropicProvider)(nil)

// New reads ANTHROPIC_API_KEY and ANTHROPIC_BASE_URL.
func New() *AnthropicProvider {
	baseURL := os.Getenv("ANTHROPIC_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &AnthropicProvider{
		apiKey:     os.Getenv("ANTHROPIC_API_KEY"),
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

func (p *AnthropicProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *AnthropicProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.httpClient = httpClient
	return p
}

func (p *AnthropicProvider) client() anthropic.Client {
	return anthropic.NewClient(
		option.WithAPIKey(p.apiKey),
		option.WithBaseURL(strings.TrimRight(p.baseURL, "/")+"/"),
		option.WithHTTPClient(p.httpClient),
		option.WithMaxRetries(0),
	)
}

// SendMessage performs one Messages API call.
func (p *AnthropicProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	model := request.Model
	if model == "" {
		model = defaultModel
	}

	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMModel, model),
		)
	}

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params, err := requestToAnthropic(model, request)
	if err != nil {
		return nil, err
	}

	client := p.client()
	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	result := anthropicToGeneric(resp)
	if span != nil {
		span.SetAttributes(observability.String(observability.AttrLLMFinishReason, result.FinishReason))
		if result.Usage != nil {
			span.SetAttributes(observability.Int(observability.AttrLLMTokensTotal, result.Usage.TotalTokens))
		}
	}
	return result, nil
}

// IsStopMessage implements ai.Provider.
func (p *AnthropicProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return ai.IsStop(message)
}
