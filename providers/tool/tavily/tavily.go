package tavily

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/leofalp/localgraph/internal/utils"
	"github.com/leofalp/localgraph/providers/observability"
	"github.com/leofalp/localgraph/providers/tool"
)

const (
	// ToolName is the name the model calls the tool by.
	ToolName = "tavily_search"

	// DefaultMaxResults is the result cap used when WithMaxResults is not given.
	DefaultMaxResults = 2

	defaultBaseURL = "https://api.tavily.com"
	envAPIKey      = "TAVILY_API_KEY"
	description    = "A search engine optimized for comprehensive, accurate, and trusted results. " +
		"Useful for when you need to answer questions about current events. Input should be a search query."
)

// ErrMissingAPIKey is returned by a search when no key is configured.
var ErrMissingAPIKey = errors.New("tavily: " + envAPIKey + " is not set")

type config struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	maxResults  int
	searchDepth string
	topic       string
}

// Option configures a Searcher.
type Option func(*config)

// WithMaxResults sets the result cap. Values below 1 are ignored.
func WithMaxResults(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithSearchDepth sets the depth used when the model does not pick one.
func WithSearchDepth(depth string) Option {
	return func(c *config) { c.searchDepth = depth }
}

// WithTopic sets the topic used when the model does not pick one.
func WithTopic(topic string) Option {
	return func(c *config) { c.topic = topic }
}

// WithBaseURL points the searcher at another API host, for tests or proxies.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithAPIKey overrides TAVILY_API_KEY.
func WithAPIKey(apiKey string) Option {
	return func(c *config) { c.apiKey = apiKey }
}

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}

// Searcher calls the Tavily Search API with a fixed configuration.
type Searcher struct {
	cfg config
}

// NewSearcher applies opts over the defaults. The API key falls back to
// TAVILY_API_KEY.
func NewSearcher(opts ...Option) *Searcher {
	cfg := config{
		apiKey:     os.Getenv(envAPIKey),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Searcher{cfg: cfg}
}

// MaxResults returns the configured cap.
func (s *Searcher) MaxResults() int {
	return s.cfg.maxResults
}

// NewSearchTool returns the "tavily_search" tool.
func NewSearchTool(opts ...Option) (*tool.Tool[SearchInput, SearchOutput], error) {
	s := NewSearcher(opts...)
	return tool.NewTool(ToolName, s.Search, tool.WithDescription(description))
}

// Search runs one query. The model may ask for fewer results than the cap
// but never more.
func (s *Searcher) Search(ctx context.Context, input SearchInput) (SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return SearchOutput{}, errors.New("tavily: query must not be empty")
	}
	if s.cfg.apiKey == "" {
		return SearchOutput{}, ErrMissingAPIKey
	}

	req := searchRequest{
		Query:          input.Query,
		MaxResults:     s.cfg.maxResults,
		SearchDepth:    firstNonEmpty(input.SearchDepth, s.cfg.searchDepth),
		Topic:          firstNonEmpty(input.Topic, s.cfg.topic),
		IncludeDomains: input.IncludeDomains,
		ExcludeDomains: input.ExcludeDomains,
	}
	if input.MaxResults > 0 && input.MaxResults < req.MaxResults {
		req.MaxResults = input.MaxResults
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(observability.Int(observability.AttrToolMaxResults, req.MaxResults))
	}

	_, resp, err := utils.DoPostSync[searchResponse](ctx, s.cfg.httpClient, s.cfg.baseURL+"/search", req,
		utils.HeaderOption{Key: "Authorization", Value: "Bearer " + s.cfg.apiKey})
	if err != nil {
		return SearchOutput{}, describeAPIError(err)
	}

	results := resp.Results
	if len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	out := SearchOutput{
		Query:        resp.Query,
		Answer:       resp.Answer,
		Results:      make([]SearchResult, 0, len(results)),
		ResponseTime: resp.ResponseTime,
	}
	if out.Query == "" {
		out.Query = input.Query
	}
	for _, r := range results {
		r.Content = normalizeContent(r.Content)
		out.Results = append(out.Results, r)
	}
	return out, nil
}

// normalizeContent converts snippets that contain HTML markup to Markdown.
// Plain text and snippets that fail to convert are returned unchanged.
func normalizeContent(s string) string {
	if !containsMarkup(s) {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(md)
}

// markupElements are the tags that make a snippet HTML. Other atoms, such
// as "name" or "value", also appear in placeholder text.
var markupElements = map[atom.Atom]bool{
	atom.A: true, atom.B: true, atom.Blockquote: true, atom.Br: true,
	atom.Code: true, atom.Div: true, atom.Em: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true,
	atom.H6: true, atom.Hr: true, atom.I: true, atom.Img: true,
	atom.Li: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Span: true, atom.Strong: true, atom.Table: true, atom.Td: true,
	atom.Th: true, atom.Tr: true, atom.U: true, atom.Ul: true,
}

// containsMarkup reports whether s holds at least one known HTML element.
// Text such as "a < b" or "<placeholder>" does not count.
func containsMarkup(s string) bool {
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			if markupElements[z.Token().DataAtom] {
				return true
			}
		}
	}
}

func describeAPIError(err error) error {
	var httpErr *utils.HTTPError
	if !errors.As(err, &httpErr) {
		return fmt.Errorf("tavily search: %w", err)
	}
	var body apiError
	if json.Unmarshal([]byte(httpErr.Body), &body) == nil && body.Detail.Error != "" {
		return fmt.Errorf("tavily API error (status %d): %s: %w", httpErr.StatusCode, body.Detail.Error, httpErr)
	}
	return fmt.Errorf("tavily search: %w", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
