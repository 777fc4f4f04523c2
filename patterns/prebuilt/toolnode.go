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

// ErrNoToolCalls is returned by the tool node when the latest message is
// not an assistant message requesting tools.
var ErrNoToolCalls = errors.New("latest message has no tool calls")

// ErrUnknownTool is reported for a call naming a tool that is not bound.
var ErrUnknownTool = errors.New("unknown tool")

// ToolNodeOption configures a ToolNode.
type ToolNodeOption func(*ToolNode)

// WithHandleToolErrors chooses what happens when a tool fails or is
// unknown. true (the default) turns the failure into a tool message with
// status error so the model can react; false fails the run.
func WithHandleToolErrors(handle bool) ToolNodeOption {
	return func(n *ToolNode) {
		n.handleErrors = handle
	}
}

// ToolNode executes the tool calls of the latest assistant message.
type ToolNode struct {
	catalog      *tool.Catalog
	handleErrors bool
}

// NewToolNode builds a tool node over catalog.
func NewToolNode(catalog *tool.Catalog, opts ...ToolNodeOption) *ToolNode {
	n := &ToolNode{catalog: catalog, handleErrors: true}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Tools is a shorthand for NewToolNode(tool.NewCatalog(tools...)).Run.
func Tools(tools ...tool.GenericTool) graph.NodeFunc[graph.MessagesState] {
	return NewToolNode(tool.NewCatalog(tools...)).Run
}

// Run executes every requested call in request order and returns one tool
// message per call, correlated by call id and named after the tool.
func (n *ToolNode) Run(ctx context.Context, state graph.MessagesState) (graph.MessagesState, error) {
	last, ok := state.Last()
	if !ok || last.Kind() != ai.KindToolRequest {
		return graph.MessagesState{}, ErrNoToolCalls
	}

	out := make([]ai.Message, 0, len(last.ToolCalls))
	for _, call := range last.ToolCalls {
		msg, err := n.execute(ctx, call)
		if err != nil {
			return graph.MessagesState{}, err
		}
		out = append(out, msg)
	}
	return graph.MessagesState{Messages: out}, nil
}

func (n *ToolNode) execute(ctx context.Context, call ai.ToolCall) (ai.Message, error) {
	observer := observability.ObserverFromContext(ctx)
	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanToolCall,
			observability.String(observability.AttrToolName, call.Name),
			observability.String(observability.AttrToolCallID, call.ID))
		defer span.End()
	}

	start := time.Now()
	var output string
	t, found := n.catalog.Get(call.Name)
	err := fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	if found {
		output, err = t.Call(ctx, call.Arguments)
	}
	elapsed := time.Since(start)

	if observer != nil {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
			observer.Warn(ctx, "tool call failed",
				observability.String(observability.AttrToolName, call.Name),
				observability.Error(err))
		} else {
			span.SetStatus(observability.StatusOK, "tool call succeeded")
		}
		observer.Counter(observability.MetricToolCallCount).Add(ctx, 1,
			observability.String(observability.AttrToolName, call.Name),
			observability.String(observability.AttrStatus, status))
		observer.Histogram(observability.MetricToolCallDuration).Record(ctx, elapsed.Seconds(),
			observability.String(observability.AttrToolName, call.Name))
	}

	if err != nil {
		if !n.handleErrors {
			return ai.Message{}, fmt.Errorf("tool %q (call %s): %w", call.Name, call.ID, err)
		}
		return ai.NewToolMessage(call.ID, call.Name, toolErrorContent(err), ai.ToolStatusError), nil
	}
	return ai.NewToolMessage(call.ID, call.Name, output, ai.ToolStatusSuccess), nil
}

func toolErrorContent(err error) string {
	return fmt.Sprintf("Error: %s\n Please fix your mistakes.", err)
}
