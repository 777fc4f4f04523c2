// Package prebuilt holds the building blocks of a tool-calling agent over
// graph.MessagesState: a chat model node ([ChatModelNode]), a tool
// execution node ([ToolNode]) and the router between them
// ([ToolsCondition]).
package prebuilt
