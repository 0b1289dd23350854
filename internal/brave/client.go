// Package brave implements web search against the Brave Search API.
package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lmoreno/microhunt/internal/common"
	"github.com/lmoreno/microhunt/internal/service"
)

const defaultBaseURL = "https://api.search.brave.com"

// Client calls the Brave web search endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a search client. baseURL is overridable for tests;
// pass "" for the production endpoint.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: brave API key", common.ErrMissingConfig)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

type searchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search runs a web query and returns title/snippet pairs. freshness
// follows Brave's syntax ("pd" for past day, "pw" for past week); pass
// "" to skip the filter.
func (c *Client) Search(ctx context.Context, query string, count int, freshness string) ([]service.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	if freshness != "" {
		params.Set("freshness", freshness)
	}

	endpoint := fmt.Sprintf("%s/res/v1/web/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: brave search", common.ErrRateLimit)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("brave search returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	results := make([]service.SearchResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		results = append(results, service.SearchResult{
			Title:   r.Title,
			Snippet: r.Description,
		})
	}
	return results, nil
}
