package openai

import (
	"fmt"

	"github.com/openai/openai-go"

	"github.com/leofalp/localgraph/providers/ai"
)

func requestToOpenAI(model string, request ai.ChatRequest) (openai.ChatCompletionNewParams, error) {
	params := openai.ChatCompletionNewParams{Model: model}

	if request.SystemPrompt != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(request.SystemPrompt))
	}

	for _, msg := range request.Messages {
		switch msg.Role {
		case ai.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case ai.RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		case ai.RoleAssistant:
			m := openai.AssistantMessage(msg.Content)
			for _, tc := range msg.ToolCalls {
				m.OfAssistant.ToolCalls = append(m.OfAssistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			params.Messages = append(params.Messages, m)
		case ai.RoleTool:
			params.Messages = append(params.Messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			return params, fmt.Errorf("openai: unsupported message role %q", msg.Role)
		}
	}

	if cfg := request.GenerationConfig; cfg != nil {
		if cfg.Temperature != 0 {
			params.Temperature = openai.Float(float64(cfg.Temperature))
		}
		if cfg.TopP != 0 {
			params.TopP = openai.Float(float64(cfg.TopP))
		}
		if cfg.MaxTokens != 0 {
			params.MaxCompletionTokens = openai.Int(int64(cfg.MaxTokens))
		}
	}

	for _, t := range request.Tools {
		fn := openai.FunctionDefinitionParam{Name: t.Name}
		if t.Description != "" {
			fn.Description = openai.String(t.Description)
		}
		if t.Parameters != nil {
			fn.Parameters = t.Parameters.Map()
		}
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{Function: fn})
	}
	return params, nil
}

func openAIToGeneric(resp *openai.ChatCompletion) *ai.ChatResponse {
	choice := resp.Choices[0]
	result := &ai.ChatResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
	}
	if resp.Usage.TotalTokens > 0 {
		result.Usage = &ai.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		}
	}
	for _, tc := range choice.Message.ToolCalls {
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		result.ToolCalls = append(result.ToolCalls, ai.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	switch {
	case len(result.ToolCalls) > 0:
		result.FinishReason = ai.FinishReasonToolCalls
	case result.FinishReason == "":
		result.FinishReason = ai.FinishReasonStop
	}
	return result
}
