package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MessageRole is who produced a message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ErrUnknownRole is returned when an incoming message names a role that
// cannot be mapped.
var ErrUnknownRole = errors.New("unknown message role")

// NormalizeRole accepts both the generic names (user, assistant) and the
// LangGraph wire names (human, ai).
func NormalizeRole(s string) (MessageRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "system":
		return RoleSystem, nil
	case "user", "human":
		return RoleUser, nil
	case "assistant", "ai":
		return RoleAssistant, nil
	case "tool":
		return RoleTool, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// wireType is the LangGraph "type" value for the role.
func (r MessageRole) wireType() string {
	switch r {
	case RoleUser:
		return "human"
	case RoleAssistant:
		return "ai"
	default:
		return string(r)
	}
}

// MessageKind classifies a message for routing.
type MessageKind int

const (
	// KindFinalAnswer is any message that does not request tools.
	KindFinalAnswer MessageKind = iota
	// KindToolRequest is an assistant message carrying at least one tool call.
	KindToolRequest
)

func (k MessageKind) String() string {
	if k == KindToolRequest {
		return "tool_request"
	}
	return "final_answer"
}

// ToolStatus is the outcome carried by a tool message.
type ToolStatus string

const (
	ToolStatusSuccess ToolStatus = "success"
	ToolStatusError   ToolStatus = "error"
)

// ToolCall is a model's request to invoke a tool. Arguments holds a JSON
// object as text.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// NewToolCallID returns a fresh id in the "call_" form backends use.
func NewToolCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// Message is one immutable entry of the conversation. ToolCalls is only
// set on assistant messages; ToolCallID, Name and Status only on tool
// messages.
type Message struct {
	ID         string
	Role       MessageRole
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
	Status     ToolStatus
}

// Kind reports whether the message requests tool execution.
func (m Message) Kind() MessageKind {
	if m.Role == RoleAssistant && len(m.ToolCalls) > 0 {
		return KindToolRequest
	}
	return KindFinalAnswer
}

// NewSystemMessage builds a system message with a fresh id.
func NewSystemMessage(content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleSystem, Content: content}
}

// NewUserMessage builds a human message with a fresh id.
func NewUserMessage(content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleUser, Content: content}
}

// NewAssistantMessage builds a model reply. Passing calls makes it a tool
// request.
func NewAssistantMessage(content string, calls ...ToolCall) Message {
	return Message{ID: uuid.NewString(), Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolMessage builds the reply to the tool call callID.
func NewToolMessage(callID, toolName, content string, status ToolStatus) Message {
	return Message{
		ID:         uuid.NewString(),
		Role:       RoleTool,
		Content:    content,
		ToolCallID: callID,
		Name:       toolName,
		Status:     status,
	}
}

type wireToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
	Type string          `json:"type,omitempty"`
}

// wireToolCallIn also accepts the OpenAI {function: {name, arguments}} shape.
type wireToolCallIn struct {
	wireToolCall
	Function *struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function,omitempty"`
}

type wireMessage struct {
	Type       string          `json:"type"`
	Role       string          `json:"role,omitempty"`
	Content    json.RawMessage `json:"content"`
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name,omitempty"`
	ToolCalls  json.RawMessage `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Status     string          `json:"status,omitempty"`
}

// MarshalJSON writes the LangGraph message shape:
// {"type":"ai","content":"...","id":"...","tool_calls":[{"id","name","args","type":"tool_call"}]}.
func (m Message) MarshalJSON() ([]byte, error) {
	content, err := json.Marshal(m.Content)
	if err != nil {
		return nil, err
	}
	w := wireMessage{
		Type:       m.Role.wireType(),
		Content:    content,
		ID:         m.ID,
		Name:       m.Name,
		ToolCallID: m.ToolCallID,
		Status:     string(m.Status),
	}
	if m.Role == RoleAssistant {
		calls := make([]wireToolCall, 0, len(m.ToolCalls))
		for _, tc := range m.ToolCalls {
			args := json.RawMessage(tc.Arguments)
			if len(bytes.TrimSpace(args)) == 0 || !json.Valid(args) {
				args = json.RawMessage("{}")
			}
			calls = append(calls, wireToolCall{ID: tc.ID, Name: tc.Name, Args: args, Type: "tool_call"})
		}
		w.ToolCalls, err = json.Marshal(calls)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts "type" or "role" for the author, content as a
// string or as a list of {type:"text", text} parts, and tool calls in
// either LangGraph or OpenAI shape.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	roleName := w.Type
	if roleName == "" {
		roleName = w.Role
	}
	role, err := NormalizeRole(roleName)
	if err != nil {
		return err
	}

	content, err := decodeContent(w.Content)
	if err != nil {
		return err
	}

	out := Message{
		ID:         w.ID,
		Role:       role,
		Content:    content,
		ToolCallID: w.ToolCallID,
		Name:       w.Name,
		Status:     ToolStatus(w.Status),
	}

	if len(w.ToolCalls) > 0 && !bytes.Equal(bytes.TrimSpace(w.ToolCalls), []byte("null")) {
		var calls []wireToolCallIn
		if err := json.Unmarshal(w.ToolCalls, &calls); err != nil {
			return fmt.Errorf("decode tool_calls: %w", err)
		}
		for _, c := range calls {
			tc := ToolCall{ID: c.ID, Name: c.Name, Arguments: string(c.Args)}
			if c.Function != nil {
				tc.Name = c.Function.Name
				tc.Arguments = c.Function.Arguments
			}
			if tc.Arguments == "" || tc.Arguments == "null" {
				tc.Arguments = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, tc)
		}
	}
	if role == RoleTool && out.Status == "" {
		out.Status = ToolStatusSuccess
	}

	*m = out
	return nil
}

func decodeContent(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("content must be a string or a list of parts: %w", err)
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "text" || p.Type == "" {
			b.WriteString(p.Text)
		}
	}
	return b.String(), nil
}
