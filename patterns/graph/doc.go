// Package graph implements a state graph: named nodes that read a shared
// state S and return deltas, joined by fixed and conditional edges.
//
// A run starts at [Start], executes one node at a time, merges each delta
// with the graph's [Reducer], and follows the outgoing edge (or asks the
// node's [Router]) until it reaches [End]. Cycles are allowed; a run that
// executes more nodes than its recursion limit fails with
// [ErrRecursionLimit].
//
// [StateGraph] builds the graph and [StateGraph.Compile] validates it.
// [CompiledGraph.Invoke] returns the final state; [CompiledGraph.Stream]
// yields per-step events in "values" or "updates" mode.
//
// [MessagesState] with the [AddMessages] reducer is the state used by
// conversational agents.
//
// Example:
//
//	g := graph.NewStateGraph(graph.AddMessages)
//	g.AddNode("chatbot", chatbot)
//	g.AddNode("tools", tools)
//	g.AddEdge(graph.Start, "chatbot")
//	g.AddConditionalEdges("chatbot", route, nil)
//	g.AddEdge("tools", "chatbot")
//	compiled, err := g.Compile()
//	if err != nil {
//	    return err
//	}
//	final, err := compiled.Invoke(ctx, graph.MessagesState{Messages: input})
package graph
