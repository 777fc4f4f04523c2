package ai

import (
	"context"
	"net/http"
)

// Provider is a language-model backend. Implementations translate
// ChatRequest to their wire format and never retry on their own: a failed
// call is returned to the caller as is.
type Provider interface {
	// SendMessage performs one completion over the full request.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// IsStopMessage reports whether the response ends the model's turn
	// without requesting tools.
	IsStopMessage(message *ChatResponse) bool

	WithAPIKey(apiKey string) Provider
	WithBaseURL(baseURL string) Provider
	WithHttpClient(httpClient *http.Client) Provider
}

// IsStop is the IsStopMessage rule every backend shares: no tool calls and
// a finish reason other than tool_calls.
func IsStop(message *ChatResponse) bool {
	if message == nil {
		return true
	}
	return len(message.ToolCalls) == 0 && message.FinishReason != FinishReasonToolCalls
}
