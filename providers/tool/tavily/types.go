package tavily

// SearchInput is what the model fills in when it calls the tool.
type SearchInput struct {
	Query          string   `json:"query" jsonschema:"description=The search query to perform,required"`
	MaxResults     int      `json:"max_results,omitempty" jsonschema:"description=Number of results to return; capped by the tool configuration,minimum=1"`
	SearchDepth    string   `json:"search_depth,omitempty" jsonschema:"description=basic (faster) or advanced (more thorough),enum=basic,enum=advanced"`
	Topic          string   `json:"topic,omitempty" jsonschema:"description=Search category,enum=general,enum=news,enum=finance"`
	IncludeDomains []string `json:"include_domains,omitempty" jsonschema:"description=Only return results from these domains"`
	ExcludeDomains []string `json:"exclude_domains,omitempty" jsonschema:"description=Never return results from these domains"`
}

// SearchOutput mirrors the Tavily response fields useful to a model.
type SearchOutput struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer,omitempty"`
	Results      []SearchResult `json:"results"`
	ResponseTime float64        `json:"response_time,omitempty"`
}

type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

type searchRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	Topic          string   `json:"topic,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

type searchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer,omitempty"`
	Results      []SearchResult `json:"results"`
	ResponseTime float64        `json:"response_time"`
	RequestID    string         `json:"request_id"`
}

// apiError is Tavily's error body: {"detail": {"error": "..."}}.
type apiError struct {
	Detail struct {
		Error string `json:"error"`
	} `json:"detail"`
}
