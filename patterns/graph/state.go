package graph

import (
	"slices"

	"github.com/leofalp/localgraph/providers/ai"
)

// MessagesState is the conversation state: the ordered message history.
type MessagesState struct {
	Messages []ai.Message `json:"messages"`
}

// Last returns the newest message, or false when the history is empty.
func (s MessagesState) Last() (ai.Message, bool) {
	if len(s.Messages) == 0 {
		return ai.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// AddMessages appends the delta's messages to the current history, keeping
// both orders. Nothing is deduplicated, reordered or dropped, and the
// result shares no backing array with either argument.
func AddMessages(current, delta MessagesState) MessagesState {
	merged := make([]ai.Message, 0, len(current.Messages)+len(delta.Messages))
	merged = append(merged, current.Messages...)
	merged = append(merged, delta.Messages...)
	for i := range merged {
		merged[i].ToolCalls = slices.Clone(merged[i].ToolCalls)
	}
	return MessagesState{Messages: merged}
}
