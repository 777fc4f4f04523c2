package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/leofalp/localgraph/internal/utils"
	"github.com/leofalp/localgraph/providers/ai"
	"github.com/leofalp/localgraph/providers/observability"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
	providerName   = "google_genai"
)

// ErrMissingAPIKey is returned by SendMessage when no key is configured.
var ErrMissingAPIKey = errors.New("gemini: GOOGLE_API_KEY or GEMINI_API_KEY is not set")

// GeminiProvider implements ai.Provider for the Gemini API.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.Provider = (*GeminiProvider)(nil)

// New reads GOOGLE_API_KEY, falling back to GEMINI_API_KEY, and
// GEMINI_API_BASE_URL.
func New() *GeminiProvider {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (p *GeminiProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *GeminiProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

func (p *GeminiProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// SendMessage calls models/{model}:generateContent once. The model name
// may carry a "models/" prefix.
func (p *GeminiProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	model := strings.TrimPrefix(request.Model, "models/")
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
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "gemini request",
			observability.String(observability.AttrLLMModel, model),
			observability.Int(observability.AttrStateMessages, len(request.Messages)))
	}

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := requestToGemini(request)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, url.PathEscape(model))
	_, resp, err := utils.DoPostSync[generateContentResponse](ctx, p.client, endpoint, body,
		utils.HeaderOption{Key: "x-goog-api-key", Value: p.apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini generateContent: %w", describeAPIError(err))
	}

	result := geminiToGeneric(*resp)
	if result.Model == "" {
		result.Model = model
	}
	if span != nil {
		span.SetAttributes(observability.String(observability.AttrLLMFinishReason, result.FinishReason))
		if result.Usage != nil {
			span.SetAttributes(observability.Int(observability.AttrLLMTokensTotal, result.Usage.TotalTokens))
		}
	}
	return result, nil
}

// IsStopMessage implements ai.Provider.
func (p *GeminiProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return ai.IsStop(message)
}

// describeAPIError replaces a raw HTTP error body with Google's message
// when the body has the standard {"error": {...}} shape.
func describeAPIError(err error) error {
	var httpErr *utils.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}
	var body apiError
	if json.Unmarshal([]byte(httpErr.Body), &body) != nil || body.Error.Message == "" {
		return err
	}
	return fmt.Errorf("%s (%d %s): %w", body.Error.Message, httpErr.StatusCode, body.Error.Status, err)
}
