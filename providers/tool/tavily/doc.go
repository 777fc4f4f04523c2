// Package tavily provides the web-search tool backed by the Tavily Search
// API.
//
// [NewSearchTool] returns a [tool.Tool] named "tavily_search" that caps the
// number of results (2 by default). HTML in result snippets is converted to
// Markdown before it reaches the model.
//
// The API key is read from TAVILY_API_KEY unless [WithAPIKey] is given.
package tavily
