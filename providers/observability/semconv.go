package observability

// Attribute keys shared by every component. Keep new keys in the group
// they describe.

// Model backends.
const (
	AttrLLMProvider         = "llm.provider"
	AttrLLMModel            = "llm.model"
	AttrLLMFinishReason     = "llm.finish_reason"
	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- token counts, not credentials
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- token counts, not credentials
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101 -- token counts, not credentials
	AttrLLMToolCalls        = "llm.tool_calls"
)

// Tool execution.
const (
	AttrToolName       = "tool.name"
	AttrToolCallID     = "tool.call_id"
	AttrToolInput      = "tool.input"
	AttrToolOutput     = "tool.output"
	AttrToolDuration   = "tool.duration"
	AttrToolError      = "tool.error"
	AttrToolMaxResults = "tool.max_results"
)

// Graph execution.
const (
	AttrGraphName       = "graph.name"
	AttrGraphNode       = "graph.node"
	AttrGraphStep       = "graph.step"
	AttrGraphRoute      = "graph.route"
	AttrGraphStreamMode = "graph.stream_mode"
	AttrGraphNodeCount  = "graph.node_count"
	AttrStateMessages   = "state.messages"
)

// HTTP serving and client calls.
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPURL        = "http.url"
	AttrHTTPPath       = "http.path"
	AttrRunID          = "run.id"
	AttrAssistantID    = "run.assistant_id"
	AttrRunEvent       = "run.event"
	AttrRunKind        = "run.kind"
	AttrRunEvents      = "run.events"
	AttrServerGraphs   = "server.graphs"
)

// Generic.
const (
	AttrError             = "error"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// Span names.
const (
	SpanGraphRun     = "graph.run"
	SpanGraphNode    = "graph.node"
	SpanLLMRequest   = "llm.request"
	SpanToolCall     = "tool.execution"
	SpanServerRun    = "server.run"
	SpanHTTPRequest  = "http.request"
	SpanClientStream = "sdk.runs.stream"
)

// Span event names.
const (
	EventToolExecutionStart = "tool.execution.start"
	EventToolExecutionEnd   = "tool.execution.end"
	EventRouteSelected      = "graph.route.selected"
	EventStreamEvent        = "run.stream.event"
)

// Metric names.
const (
	MetricGraphRunCount     = "localgraph.graph.run.count"
	MetricGraphRunDuration  = "localgraph.graph.run.duration"
	MetricGraphNodeCount    = "localgraph.graph.node.count"
	MetricGraphNodeDuration = "localgraph.graph.node.duration"
	MetricToolCallCount     = "localgraph.tool.call.count"
	MetricToolCallDuration  = "localgraph.tool.call.duration"
	MetricLLMTokensTotal    = "localgraph.llm.tokens.total" // #nosec G101 -- token counts, not credentials
	MetricServerRunCount    = "localgraph.server.run.count"
	MetricServerEventCount  = "localgraph.server.event.count"
	MetricServerRunDuration = "localgraph.server.run.duration"
)
