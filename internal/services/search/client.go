package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

const (
	// DefaultAPIVersion is the index query API version.
	DefaultAPIVersion = "2024-07-01"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultTopK is the default number of results per query.
	DefaultTopK = 3
)

// Client is an HTTP client for a hosted document search index.
type Client struct {
	endpoint              string
	index                 string
	apiKey                string
	apiVersion            string
	semanticConfiguration string
	httpClient            *http.Client
	logger                arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithAPIVersion sets a custom query API version.
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithSemanticConfiguration sets the semantic ranking configuration name.
func WithSemanticConfiguration(name string) ClientOption {
	return func(c *Client) {
		c.semanticConfiguration = name
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new search index client.
func NewClient(endpoint, index, apiKey string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" || index == "" {
		return nil, fmt.Errorf("search endpoint and index are required")
	}

	c := &Client{
		endpoint:              strings.TrimRight(endpoint, "/"),
		index:                 index,
		apiKey:                apiKey,
		apiVersion:            DefaultAPIVersion,
		semanticConfiguration: "default",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// queryRequest is the index query payload.
type queryRequest struct {
	Search                string `json:"search"`
	Top                   int    `json:"top"`
	QueryType             string `json:"queryType"`
	QueryLanguage         string `json:"queryLanguage"`
	SemanticConfiguration string `json:"semanticConfiguration,omitempty"`
	Count                 bool   `json:"count"`
}

// queryResponse is the index query result envelope. Individual documents
// are decoded as raw maps because field names vary by indexer pipeline.
type queryResponse struct {
	Count int                      `json:"@odata.count"`
	Value []map[string]interface{} `json:"value"`
}

// query performs a search query against the index.
func (c *Client) query(ctx context.Context, queryText string, topK int) ([]map[string]interface{}, error) {
	reqBody := queryRequest{
		Search:                queryText,
		Top:                   topK,
		QueryType:             "semantic",
		QueryLanguage:         "en-us",
		SemanticConfiguration: c.semanticConfiguration,
		Count:                 true,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	reqURL := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s",
		c.endpoint, url.PathEscape(c.index), url.QueryEscape(c.apiVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	if c.logger != nil {
		c.logger.Debug().
			Str("index", c.index).
			Int("top", topK).
			Msg("Search index query")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search index returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var result queryResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Value, nil
}

// lookup retrieves a single document by key.
func (c *Client) lookup(ctx context.Context, key string) (map[string]interface{}, error) {
	reqURL := fmt.Sprintf("%s/indexes/%s/docs/%s?api-version=%s",
		c.endpoint, url.PathEscape(c.index), url.PathEscape(key), url.QueryEscape(c.apiVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search index returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	return doc, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
