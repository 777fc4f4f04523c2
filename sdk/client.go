package sdk

import (
	"net/http"
	"strings"

	"github.com/leofalp/localgraph/internal/utils"
)

// DefaultURL is the address of a locally running development server.
const DefaultURL = "http://localhost:2024"

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client. The default client sets no
// timeout; a run is bounded only by the caller's context.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAPIKey sends key in the X-Api-Key header.
func WithAPIKey(key string) ClientOption {
	return WithHeader("X-Api-Key", key)
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers = append(c.headers, utils.HeaderOption{Key: key, Value: value})
	}
}

// Client talks to a graph server.
type Client struct {
	Runs *RunsClient

	baseURL    string
	httpClient *http.Client
	headers    []utils.HeaderOption
}

// NewClient returns a client for the server at url, DefaultURL when empty.
func NewClient(url string, opts ...ClientOption) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(url, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Runs = &RunsClient{client: c}
	return c
}

// URL returns the server address the client was built with.
func (c *Client) URL() string {
	return c.baseURL
}
