package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leofalp/localgraph/internal/jsonschema"
	"github.com/leofalp/localgraph/providers/ai"
)

type searchArgs struct {
	Query string `json:"query" jsonschema:"description=Search query"`
	Topic string `json:"topic,omitempty" jsonschema:"default=general"`
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	p := New()
	p.WithAPIKey("test-key").WithBaseURL(server.URL).WithHttpClient(server.Client())
	return p
}

func TestNew_Env(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gem")
	t.Setenv("GEMINI_API_BASE_URL", "http://example.test/v1/")

	p := New()
	if p.apiKey != "gem" {
		t.Errorf("apiKey = %q", p.apiKey)
	}
	if p.baseURL != "http://example.test/v1" {
		t.Errorf("baseURL = %q", p.baseURL)
	}
}

// TestSendMessage_Text checks the request path, auth header and text mapping.
func TestSendMessage_Text(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Role != "user" || req.Contents[0].Parts[0].Text != "What is LangGraph?" {
			t.Errorf("contents = %+v", req.Contents)
		}
		_ = json.NewEncoder(w).Encode(generateContentResponse{
			Candidates: []candidate{{
				Content:      &content{Role: "model", Parts: []part{{Text: "thinking", Thought: true}, {Text: "A graph "}, {Text: "library."}}},
				FinishReason: "STOP",
			}},
			UsageMetadata: &usageMetadata{PromptTokenCount: 5, CandidatesTokenCount: 3, TotalTokenCount: 8},
			ResponseID:    "resp-1",
		})
	})

	resp, err := p.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "gemini-2.5-flash",
		Messages: []ai.Message{ai.NewUserMessage("What is LangGraph?")},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Content != "A graph library." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.ID != "resp-1" || resp.FinishReason != ai.FinishReasonStop || resp.Usage.TotalTokens != 8 {
		t.Errorf("resp = %+v", resp)
	}
	if !p.IsStopMessage(resp) {
		t.Error("text answer should be a stop message")
	}
}

// TestSendMessage_ToolCall checks function declarations and functionCall mapping.
func TestSendMessage_ToolCall(t *testing.T) {
	params, err := jsonschema.Generate[searchArgs]()
	if err != nil {
		t.Fatal(err)
	}

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) != 1 || req.Tools[0].FunctionDeclarations[0].Name != "tavily_search" {
			t.Errorf("tools = %+v", req.Tools)
		}
		topic := req.Tools[0].FunctionDeclarations[0].Parameters["properties"].(map[string]any)["topic"].(map[string]any)
		if _, ok := topic["default"]; ok {
			t.Error("default keyword should be stripped")
		}
		_ = json.NewEncoder(w).Encode(generateContentResponse{
			Candidates: []candidate{{
				Content:      &content{Role: "model", Parts: []part{{FunctionCall: &functionCall{Name: "tavily_search", Args: json.RawMessage(`{"query":"LangGraph"}`)}}}},
				FinishReason: "STOP",
			}},
		})
	})

	resp, err := p.SendMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{ai.NewUserMessage("search")},
		Tools:    []ai.ToolDescription{{Name: "tavily_search", Description: "web search", Parameters: params}},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "tavily_search" || resp.ToolCalls[0].Arguments != `{"query":"LangGraph"}` {
		t.Fatalf("ToolCalls = %+v", resp.ToolCalls)
	}
	if !strings.HasPrefix(resp.ToolCalls[0].ID, "call_") {
		t.Errorf("tool call id = %q", resp.ToolCalls[0].ID)
	}
	if resp.FinishReason != ai.FinishReasonToolCalls || p.IsStopMessage(resp) {
		t.Errorf("tool call response must not stop: %+v", resp)
	}
}

// TestSendMessage_APIError checks that Google's error message surfaces.
func TestSendMessage_APIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := p.SendMessage(context.Background(), ai.ChatRequest{Messages: []ai.Message{ai.NewUserMessage("x")}})
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Errorf("err = %v", err)
	}
}

func TestSendMessage_MissingKey(t *testing.T) {
	p := New()
	p.WithAPIKey("")
	_, err := p.SendMessage(context.Background(), ai.ChatRequest{Messages: []ai.Message{ai.NewUserMessage("x")}})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

// TestRequestToGemini_Conversation checks role mapping for a full tool round trip.
func TestRequestToGemini_Conversation(t *testing.T) {
	msgs := []ai.Message{
		ai.NewSystemMessage("be brief"),
		ai.NewUserMessage("q"),
		ai.NewAssistantMessage("", ai.ToolCall{ID: "a", Name: "s", Arguments: `{"query":"q"}`}, ai.ToolCall{ID: "b", Name: "s", Arguments: "broken"}),
		ai.NewToolMessage("a", "s", "plain text", ai.ToolStatusSuccess),
		ai.NewToolMessage("b", "s", `{"results":[]}`, ai.ToolStatusSuccess),
		ai.NewAssistantMessage("answer"),
	}
	req, err := requestToGemini(ai.ChatRequest{Messages: msgs, GenerationConfig: &ai.GenerationConfig{MaxTokens: 10}})
	if err != nil {
		t.Fatal(err)
	}

	if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "be brief" {
		t.Errorf("system = %+v", req.SystemInstruction)
	}
	if len(req.Contents) != 4 {
		t.Fatalf("contents = %d, want 4", len(req.Contents))
	}
	model := req.Contents[1]
	if model.Role != "model" || len(model.Parts) != 2 || string(model.Parts[1].FunctionCall.Args) != "{}" {
		t.Errorf("model turn = %+v", model)
	}
	tools := req.Contents[2]
	if tools.Role != "user" || len(tools.Parts) != 2 {
		t.Fatalf("tool turn = %+v", tools)
	}
	if string(tools.Parts[0].FunctionResponse.Response) != `{"content":"plain text"}` {
		t.Errorf("wrapped response = %s", tools.Parts[0].FunctionResponse.Response)
	}
	if string(tools.Parts[1].FunctionResponse.Response) != `{"results":[]}` {
		t.Errorf("object response = %s", tools.Parts[1].FunctionResponse.Response)
	}
	if *req.GenerationConfig.MaxOutputTokens != 10 {
		t.Errorf("generation config = %+v", req.GenerationConfig)
	}
}

func TestMapFinishReason(t *testing.T) {
	cases := map[string]string{
		"STOP":       ai.FinishReasonStop,
		"MAX_TOKENS": ai.FinishReasonLength,
		"SAFETY":     ai.FinishReasonContentFilter,
		"RECITATION": ai.FinishReasonContentFilter,
		"":           ai.FinishReasonStop,
	}
	for in, want := range cases {
		if got := mapFinishReason(in); got != want {
			t.Errorf("mapFinishReason(%q) = %q, want %q", in, got, want)
		}
	}
}
