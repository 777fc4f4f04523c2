package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/leofalp/localgraph/providers/ai"
)

// unsupportedSchemaKeys are JSON Schema keywords the Gemini API rejects in
// function declarations.
var unsupportedSchemaKeys = []string{"additionalProperties", "default", "$defs", "$ref", "$schema"}

func requestToGemini(request ai.ChatRequest) (generateContentRequest, error) {
	req := generateContentRequest{}

	var system []string
	if request.SystemPrompt != "" {
		system = append(system, request.SystemPrompt)
	}

	for _, msg := range request.Messages {
		switch msg.Role {
		case ai.RoleSystem:
			system = append(system, msg.Content)

		case ai.RoleUser:
			req.Contents = append(req.Contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})

		case ai.RoleAssistant:
			c := content{Role: "model"}
			if msg.Content != "" {
				c.Parts = append(c.Parts, part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				args := json.RawMessage(tc.Arguments)
				if !json.Valid(args) {
					args = json.RawMessage("{}")
				}
				c.Parts = append(c.Parts, part{FunctionCall: &functionCall{Name: tc.Name, Args: args}})
			}
			if len(c.Parts) > 0 {
				req.Contents = append(req.Contents, c)
			}

		case ai.RoleTool:
			fr := part{FunctionResponse: &functionResponse{
				Name:     msg.Name,
				Response: toolResponseObject(msg),
			}}
			// consecutive tool results belong in one user turn
			if n := len(req.Contents); n > 0 && req.Contents[n-1].Role == "user" && req.Contents[n-1].Parts[0].FunctionResponse != nil {
				req.Contents[n-1].Parts = append(req.Contents[n-1].Parts, fr)
			} else {
				req.Contents = append(req.Contents, content{Role: "user", Parts: []part{fr}})
			}

		default:
			return req, fmt.Errorf("gemini: unsupported message role %q", msg.Role)
		}
	}

	if len(system) > 0 {
		req.SystemInstruction = &content{Parts: []part{{Text: strings.Join(system, "\n\n")}}}
	}

	if cfg := request.GenerationConfig; cfg != nil {
		gc := &generationConfig{}
		if cfg.Temperature != 0 {
			v := float64(cfg.Temperature)
			gc.Temperature = &v
		}
		if cfg.TopP != 0 {
			v := float64(cfg.TopP)
			gc.TopP = &v
		}
		if cfg.MaxTokens != 0 {
			v := cfg.MaxTokens
			gc.MaxOutputTokens = &v
		}
		req.GenerationConfig = gc
	}

	if len(request.Tools) > 0 {
		req.Tools = []tool{{FunctionDeclarations: buildFunctionDeclarations(request.Tools)}}
		req.ToolConfig = &toolConfig{FunctionCallingConfig: &functionCallingConfig{Mode: "AUTO"}}
	}
	return req, nil
}

// toolResponseObject wraps the tool output in an object. JSON object output
// is passed through; anything else becomes {"content": text} or, for
// failures, {"error": text}.
func toolResponseObject(msg ai.Message) json.RawMessage {
	trimmed := strings.TrimSpace(msg.Content)
	if msg.Status != ai.ToolStatusError && strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	key := "content"
	if msg.Status == ai.ToolStatusError {
		key = "error"
	}
	raw, _ := json.Marshal(map[string]string{key: msg.Content})
	return raw
}

func buildFunctionDeclarations(tools []ai.ToolDescription) []functionDeclaration {
	decls := make([]functionDeclaration, 0, len(tools))
	for _, t := range tools {
		fd := functionDeclaration{Name: t.Name, Description: t.Description}
		if t.Parameters != nil {
			params := t.Parameters.Map()
			stripSchema(params)
			if props, ok := params["properties"].(map[string]any); ok && len(props) > 0 {
				fd.Parameters = params
			}
		}
		decls = append(decls, fd)
	}
	return decls
}

func stripSchema(node map[string]any) {
	for _, key := range unsupportedSchemaKeys {
		delete(node, key)
	}
	if props, ok := node["properties"].(map[string]any); ok {
		for _, p := range props {
			if child, ok := p.(map[string]any); ok {
				stripSchema(child)
			}
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		stripSchema(items)
	}
}

func geminiToGeneric(resp generateContentResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		ID:    resp.ResponseID,
		Model: resp.ModelVersion,
	}
	if result.ID == "" {
		result.ID = "gemini-" + uuid.NewString()
	}
	if resp.UsageMetadata != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	if len(resp.Candidates) == 0 {
		result.FinishReason = ai.FinishReasonStop
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			result.FinishReason = ai.FinishReasonContentFilter
		}
		return result
	}

	cand := resp.Candidates[0]
	result.FinishReason = mapFinishReason(cand.FinishReason)

	if cand.Content != nil {
		var text []string
		for _, p := range cand.Content.Parts {
			if p.Text != "" && !p.Thought {
				text = append(text, p.Text)
			}
			if p.FunctionCall != nil {
				args := string(p.FunctionCall.Args)
				if args == "" || args == "null" {
					args = "{}"
				}
				id := p.FunctionCall.ID
				if id == "" {
					id = ai.NewToolCallID()
				}
				result.ToolCalls = append(result.ToolCalls, ai.ToolCall{ID: id, Name: p.FunctionCall.Name, Arguments: args})
			}
		}
		result.Content = strings.Join(text, "")
	}

	if len(result.ToolCalls) > 0 {
		result.FinishReason = ai.FinishReasonToolCalls
	}
	return result
}

func mapFinishReason(reason string) string {
	switch reason {
	case "MAX_TOKENS":
		return ai.FinishReasonLength
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII":
		return ai.FinishReasonContentFilter
	default:
		return ai.FinishReasonStop
	}
}
