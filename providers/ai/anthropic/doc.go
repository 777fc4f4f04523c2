// Package anthropic implements ai.Provider with the official Anthropic Go
// SDK. Consecutive tool results are sent back as one user turn of
// tool_result blocks.
package anthropic
