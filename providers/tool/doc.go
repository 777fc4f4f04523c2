// Package tool defines callable tools for language models.
//
// A [Tool] wraps a typed Go function together with its name, description
// and an input schema derived by reflection; [NewTool] builds one. Model
// arguments are decoded leniently, so slightly malformed JSON still reaches
// the function.
//
// [Catalog] is the registry the tool-execution node looks tools up in.
package tool
