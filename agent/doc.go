// Package agent builds the conversational graph served as the "agent"
// assistant: a chatbot node bound to a web-search tool, and a tools node
// that runs the searches the model asks for, looping until the model
// answers without requesting tools.
//
// [Build] takes explicit [Dependencies], so tests can inject a scripted
// model. [NewFromConfig] wires the production model (Gemini 2.5 Flash by
// default) and the Tavily search tool capped at two results.
package agent
