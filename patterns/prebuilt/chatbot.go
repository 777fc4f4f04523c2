package prebuilt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leofalp/localgraph/patterns/graph"
	"github.com/leofalp/localgraph/providers/ai"
	"github.com/leofalp/localgraph/providers/observability"
	"github.com/leofalp/localgraph/providers/tool"
)

// ErrEmptyConversation is returned by the chat model node when the state
// holds no messages.
var ErrEmptyConversation = errors.New("conversation has no messages")

// ChatModelNode returns a node that sends the whole conversation, with the
// schemas of tools bound, to provider and appends the single assistant
// reply. Provider errors are returned wrapped and never retried.
func ChatModelNode(provider ai.Provider, model string, tools ...tool.GenericTool) graph.NodeFunc[graph.MessagesState] {
	descriptions := tool.NewCatalog(tools...).Descriptions()

	return func(ctx context.Context, state graph.MessagesState) (graph.MessagesState, error) {
		if len(state.Messages) == 0 {
			return graph.MessagesState{}, ErrEmptyConversation
		}

		req := ai.ChatRequest{
			Model:    model,
			Messages: state.Messages,
			Tools:    descriptions,
		}

		start := time.Now()
		resp, err := provider.SendMessage(ctx, req)
		elapsed := time.Since(start)

		if observer := observability.ObserverFromContext(ctx); observer != nil {
			attrs := []observability.Attribute{
				observability.String(observability.AttrLLMModel, model),
				observability.Int(observability.AttrStateMessages, len(state.Messages)),
				observability.Duration(observability.AttrDuration, elapsed),
			}
			if err != nil {
				observer.Error(ctx, "model call failed", append(attrs, observability.Error(err))...)
			} else {
				attrs = append(attrs,
					observability.String(observability.AttrLLMFinishReason, resp.FinishReason),
					observability.Int(observability.AttrLLMToolCalls, len(resp.ToolCalls)))
				observer.Debug(ctx, "model call completed", attrs...)
				if resp.Usage != nil {
					observer.Counter(observability.MetricLLMTokensTotal).Add(ctx, int64(resp.Usage.TotalTokens),
						observability.String(observability.AttrLLMModel, model))
				}
			}
		}

		if err != nil {
			return graph.MessagesState{}, fmt.Errorf("chat model: %w", err)
		}
		return graph.MessagesState{Messages: []ai.Message{resp.Message()}}, nil
	}
}
