package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// StateGraph collects nodes and edges for a graph over state S. Problems
// found while adding are recorded and reported together by Compile.
//
//	g := graph.NewStateGraph(graph.AddMessages)
//	g.AddNode("chatbot", chatbot)
//	g.AddEdge(graph.Start, "chatbot")
//	g.AddEdge("chatbot", graph.End)
//	compiled, err := g.Compile()
type StateGraph[S any] struct {
	reducer     Reducer[S]
	config      graphConfig
	nodes       map[string]NodeFunc[S]
	nodeOrder   []string
	edges       map[string]string
	conditional map[string]conditionalEdge[S]
	buildErrors []error
}

// NewStateGraph starts a graph whose node deltas are merged with reducer.
func NewStateGraph[S any](reducer Reducer[S], opts ...Option) *StateGraph[S] {
	cfg := graphConfig{name: "LangGraph", recursionLimit: DefaultRecursionLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	g := &StateGraph[S]{
		reducer:     reducer,
		config:      cfg,
		nodes:       make(map[string]NodeFunc[S]),
		edges:       make(map[string]string),
		conditional: make(map[string]conditionalEdge[S]),
	}
	if reducer == nil {
		g.buildErrors = append(g.buildErrors, errors.New("reducer must not be nil"))
	}
	return g
}

// AddNode registers fn under name.
func (g *StateGraph[S]) AddNode(name string, fn NodeFunc[S]) *StateGraph[S] {
	switch {
	case name == "":
		g.buildErrors = append(g.buildErrors, errors.New("node name must not be empty"))
	case name == Start || name == End:
		g.buildErrors = append(g.buildErrors, fmt.Errorf("node name %q is reserved", name))
	case fn == nil:
		g.buildErrors = append(g.buildErrors, fmt.Errorf("node %q has a nil function", name))
	default:
		if _, exists := g.nodes[name]; exists {
			g.buildErrors = append(g.buildErrors, fmt.Errorf("duplicate node %q", name))
			return g
		}
		g.nodes[name] = fn
		g.nodeOrder = append(g.nodeOrder, name)
	}
	return g
}

// AddEdge adds a fixed transition. from may be Start and to may be End.
func (g *StateGraph[S]) AddEdge(from, to string) *StateGraph[S] {
	if from == End {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("%q cannot have outgoing edges", End))
		return g
	}
	if to == Start {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("%q cannot be an edge target", Start))
		return g
	}
	if prev, exists := g.edges[from]; exists {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("node %q already has an edge to %q", from, prev))
		return g
	}
	g.edges[from] = to
	return g
}

// AddConditionalEdges makes router choose the transition out of source.
// pathMap, when non-nil, translates router results into destinations and
// restricts the allowed results to its keys.
func (g *StateGraph[S]) AddConditionalEdges(source string, router Router[S], pathMap map[string]string) *StateGraph[S] {
	if router == nil {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("conditional edge from %q has a nil router", source))
		return g
	}
	if _, exists := g.conditional[source]; exists {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("node %q already has conditional edges", source))
		return g
	}
	g.conditional[source] = conditionalEdge[S]{router: router, pathMap: maps.Clone(pathMap)}
	return g
}

// Compile validates the graph and freezes it. The result is safe for
// concurrent runs.
func (g *StateGraph[S]) Compile() (*CompiledGraph[S], error) {
	errs := slices.Clone(g.buildErrors)

	known := func(name string) bool {
		_, ok := g.nodes[name]
		return ok || name == End
	}

	for from, to := range g.edges {
		if from != Start && !known(from) {
			errs = append(errs, fmt.Errorf("edge source %q is not a node", from))
		}
		if !known(to) {
			errs = append(errs, fmt.Errorf("edge target %q is not a node", to))
		}
		if _, both := g.conditional[from]; both {
			errs = append(errs, fmt.Errorf("node %q has both a fixed and a conditional edge", from))
		}
	}
	for source, ce := range g.conditional {
		if source != Start && !known(source) {
			errs = append(errs, fmt.Errorf("conditional edge source %q is not a node", source))
		}
		for key, dest := range ce.pathMap {
			if !known(dest) {
				errs = append(errs, fmt.Errorf("path %q from %q leads to unknown node %q", key, source, dest))
			}
		}
	}

	_, fixedEntry := g.edges[Start]
	_, condEntry := g.conditional[Start]
	if !fixedEntry && !condEntry {
		errs = append(errs, fmt.Errorf("graph has no entry point: add an edge from %q", Start))
	}

	for _, name := range g.nodeOrder {
		_, fixed := g.edges[name]
		_, cond := g.conditional[name]
		if !fixed && !cond {
			errs = append(errs, fmt.Errorf("node %q has no outgoing edge", name))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(errs...))
	}

	return &CompiledGraph[S]{
		reducer:     g.reducer,
		config:      g.config,
		nodes:       maps.Clone(g.nodes),
		nodeOrder:   slices.Clone(g.nodeOrder),
		edges:       maps.Clone(g.edges),
		conditional: maps.Clone(g.conditional),
	}, nil
}
