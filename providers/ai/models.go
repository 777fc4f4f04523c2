package ai

import (
	"github.com/leofalp/localgraph/internal/jsonschema"
)

// ChatRequest is one call to a language model: the whole conversation so
// far plus the tools the model may ask for.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`
	Messages         []Message         `json:"messages"`
	SystemPrompt     string            `json:"system_prompt,omitempty"`
	Tools            []ToolDescription `json:"tools,omitempty"`
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`
}

// ToolDescription is the schema a tool exposes to the model.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// GenerationConfig holds optional sampling settings. Zero values mean
// "backend default".
type GenerationConfig struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	TopP        float32 `json:"top_p,omitempty"`
}

// Usage is the token accounting reported by the backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Finish reasons shared by every backend.
const (
	FinishReasonStop          = "stop"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)

// ChatResponse is a backend's reply, already mapped to the generic model.
type ChatResponse struct {
	ID           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// Message converts the response into the assistant message appended to the
// conversation. The message id is the response id when the backend gave
// one; tool calls without an id get a generated one.
func (r *ChatResponse) Message() Message {
	calls := make([]ToolCall, len(r.ToolCalls))
	for i, tc := range r.ToolCalls {
		if tc.ID == "" {
			tc.ID = NewToolCallID()
		}
		calls[i] = tc
	}
	if len(calls) == 0 {
		calls = nil
	}
	msg := NewAssistantMessage(r.Content, calls...)
	if r.ID != "" {
		msg.ID = r.ID
	}
	return msg
}
