// Package ai holds the conversation data model shared by the graph, the
// model backends and the wire format: [Message], [ToolCall], [ChatRequest],
// [ChatResponse], and the [Provider] interface every backend implements.
//
// Backends live in sub-packages (gemini, openai, anthropic); chatmodel
// picks one from a "provider:model" string.
package ai
