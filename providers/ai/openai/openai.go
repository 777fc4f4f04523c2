package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/leofalp/localgraph/providers/ai"
	"github.com/leofalp/localgraph/providers/observability"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = openai.ChatModelGPT4oMini
	providerName   = "openai"
)

// ErrMissingAPIKey is returned by SendMessage when no key is configured.
var ErrMissingAPIKey = errors.New("openai: OPENAI_API_KEY is not set")

// OpenAIProvider implements ai.Provider on top of the official SDK's Chat
// Completions client.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ ai.Provider = (*OpenAIProvider)(nil)

// New reads OPENAI_API_KEY and OPENAI_API_BASE_URL.
func New() *OpenAIProvider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIProvider{
		apiKey:     os.Getenv("OPENAI_API_KEY"),
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

func (p *OpenAIProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *OpenAIProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.httpClient = httpClient
	return p
}

// client builds an SDK client from the current settings. Retries are
// disabled so a failed call reaches the caller unchanged.
func (p *OpenAIProvider) client() openai.Client {
	return openai.NewClient(
		option.WithAPIKey(p.apiKey),
		option.WithBaseURL(strings.TrimRight(p.baseURL, "/")+"/"),
		option.WithHTTPClient(p.httpClient),
		option.WithMaxRetries(0),
	)
}

// SendMessage performs one chat completion.
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
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

	params, err := requestToOpenAI(model, request)
	if err != nil {
		return nil, err
	}

	client := p.client()
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai chat completion: no choices returned")
	}

	result := openAIToGeneric(resp)
	if span != nil {
		span.SetAttributes(observability.String(observability.AttrLLMFinishReason, result.FinishReason))
		if result.Usage != nil {
			span.SetAttributes(observability.Int(observability.AttrLLMTokensTotal, result.Usage.TotalTokens))
		}
	}
	return result, nil
}

// IsStopMessage implements ai.Provider.
func (p *OpenAIProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return ai.IsStop(message)
}
