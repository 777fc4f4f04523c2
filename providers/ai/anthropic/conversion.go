package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/leofalp/localgraph/providers/ai"
)

func requestToAnthropic(model string, request ai.ChatRequest) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: defaultMaxTokens,
	}

	if request.SystemPrompt != "" {
		params.System = append(params.System, anthropic.TextBlockParam{Text: request.SystemPrompt})
	}

	// tool results must follow the assistant turn in a single user message
	var pendingResults []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(pendingResults) > 0 {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, msg := range request.Messages {
		if msg.Role != ai.RoleTool {
			flush()
		}
		switch msg.Role {
		case ai.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})

		case ai.RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))

		case ai.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any = map[string]any{}
				if tc.Arguments != "" {
					var decoded map[string]any
					if json.Unmarshal([]byte(tc.Arguments), &decoded) == nil {
						input = decoded
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
			}

		case ai.RoleTool:
			pendingResults = append(pendingResults,
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.Status == ai.ToolStatusError))

		default:
			return params, fmt.Errorf("anthropic: unsupported message role %q", msg.Role)
		}
	}
	flush()

	if cfg := request.GenerationConfig; cfg != nil {
		if cfg.MaxTokens != 0 {
			params.MaxTokens = int64(cfg.MaxTokens)
		}
		if cfg.Temperature != 0 {
			params.Temperature = anthropic.Float(float64(cfg.Temperature))
		}
		if cfg.TopP != 0 {
			params.TopP = anthropic.Float(float64(cfg.TopP))
		}
	}

	for _, t := range request.Tools {
		schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if t.Parameters != nil {
			if props, ok := t.Parameters.Map()["properties"]; ok {
				schema.Properties = props
			}
			schema.Required = t.Parameters.Required
		}
		u := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if t.Description != "" && u.OfTool != nil {
			u.OfTool.Description = anthropic.String(t.Description)
		}
		params.Tools = append(params.Tools, u)
	}
	return params, nil
}

func anthropicToGeneric(resp *anthropic.Message) *ai.ChatResponse {
	result := &ai.ChatResponse{
		ID:           resp.ID,
		Model:        string(resp.Model),
		FinishReason: mapStopReason(string(resp.StopReason)),
	}
	if total := resp.Usage.InputTokens + resp.Usage.OutputTokens; total > 0 {
		result.Usage = &ai.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(total),
		}
	}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			result.Content += block.AsText().Text
		case "tool_use":
			use := block.AsToolUse()
			args := string(use.Input)
			if args == "" || args == "null" {
				args = "{}"
			}
			result.ToolCalls = append(result.ToolCalls, ai.ToolCall{ID: use.ID, Name: use.Name, Arguments: args})
		}
	}
	if len(result.ToolCalls) > 0 {
		result.FinishReason = ai.FinishReasonToolCalls
	}
	return result
}

func mapStopReason(reason string) string {
	switch reason {
	case "tool_use":
		return ai.FinishReasonToolCalls
	case "max_tokens":
		return ai.FinishReasonLength
	case "refusal":
		return ai.FinishReasonContentFilter
	default:
		return ai.FinishReasonStop
	}
}
