package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/localgraph/patterns/graph"
	"github.com/leofalp/localgraph/patterns/prebuilt"
	"github.com/leofalp/localgraph/providers/ai"
	"github.com/leofalp/localgraph/providers/ai/chatmodel"
	"github.com/leofalp/localgraph/providers/observability"
	"github.com/leofalp/localgraph/providers/tool"
	"github.com/leofalp/localgraph/providers/tool/tavily"
)

// Graph and node names.
const (
	Name        = "agent"
	ChatbotNode = "chatbot"
	ToolsNode   = prebuilt.ToolsNodeName
)

// ErrNoModel is returned by Build when Dependencies carries no model.
var ErrNoModel = errors.New("agent: no chat model")

// Dependencies is everything the agent graph is built from. Callers
// construct it explicitly; the package keeps no global state.
type Dependencies struct {
	Model     ai.Provider
	ModelName string
	Tools     []tool.GenericTool

	// RecursionLimit caps node executions per run; zero keeps the graph
	// default.
	RecursionLimit int

	Observer observability.Provider
}

// Build compiles the chatbot/tools loop:
//
//	__start__ -> chatbot
//	chatbot   -> tools | __end__   (tools condition)
//	tools     -> chatbot
func Build(deps Dependencies) (*graph.CompiledGraph[graph.MessagesState], error) {
	if deps.Model == nil {
		return nil, ErrNoModel
	}

	opts := []graph.Option{graph.WithName(Name), graph.WithRecursionLimit(deps.RecursionLimit)}
	if deps.Observer != nil {
		opts = append(opts, graph.WithObserver(deps.Observer))
	}

	g := graph.NewStateGraph(graph.AddMessages, opts...)
	g.AddNode(ChatbotNode, prebuilt.ChatModelNode(deps.Model, deps.ModelName, deps.Tools...))
	g.AddNode(ToolsNode, prebuilt.Tools(deps.Tools...))
	g.AddEdge(graph.Start, ChatbotNode)
	g.AddConditionalEdges(ChatbotNode, prebuilt.ToolsCondition, map[string]string{
		ToolsNode: ToolsNode,
		graph.End: graph.End,
	})
	g.AddEdge(ToolsNode, ChatbotNode)

	compiled, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	return compiled, nil
}

// Config selects the model and the search tool settings for NewFromConfig.
type Config struct {
	// Model is a "provider:model" string. Defaults to chatmodel.Default.
	Model string

	// MaxResults caps search results. Defaults to tavily.DefaultMaxResults.
	MaxResults int

	RecursionLimit int
	Observer       observability.Provider

	// SearchOptions are applied after MaxResults.
	SearchOptions []tavily.Option
}

// NewFromConfig resolves the chat model and the Tavily search tool from
// the environment and builds the agent graph.
func NewFromConfig(cfg Config) (*graph.CompiledGraph[graph.MessagesState], error) {
	spec := cfg.Model
	if spec == "" {
		spec = chatmodel.Default
	}
	model, err := chatmodel.New(spec)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = tavily.DefaultMaxResults
	}
	search, err := tavily.NewSearchTool(append([]tavily.Option{tavily.WithMaxResults(maxResults)}, cfg.SearchOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	if cfg.Observer != nil {
		cfg.Observer.Debug(context.Background(), "agent configured",
			observability.String(observability.AttrLLMProvider, model.ProviderName),
			observability.String(observability.AttrLLMModel, model.Model),
			observability.Int(observability.AttrToolMaxResults, maxResults))
	}

	return Build(Dependencies{
		Model:          model.Provider,
		ModelName:      model.Model,
		Tools:          []tool.GenericTool{search},
		RecursionLimit: cfg.RecursionLimit,
		Observer:       cfg.Observer,
	})
}
