// Package openrouter implements the model gateway against the
// OpenRouter chat-completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lmoreno/microhunt/internal/common"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Client generates completions through OpenRouter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates an OpenRouter client. baseURL is overridable for
// tests; pass "" for the production endpoint.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openrouter API key", common.ErrMissingConfig)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends a single-turn completion to the given model. Rate
// limiting and unknown models surface as common.ErrRateLimit and
// common.ErrModelNotFound so callers can fall through a model chain.
func (c *Client) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	payload := chatRequest{
		Model: modelID,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading completion response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to parse
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: %s", common.ErrRateLimit, modelID)
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", common.ErrModelNotFound, modelID)
	default:
		return "", fmt.Errorf("openrouter returned status %d for %s", resp.StatusCode, modelID)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing completion response: %w", err)
	}

	// Some providers tunnel errors inside a 200 body.
	if parsed.Error != nil {
		switch parsed.Error.Code {
		case http.StatusTooManyRequests:
			return "", fmt.Errorf("%w: %s", common.ErrRateLimit, modelID)
		case http.StatusNotFound:
			return "", fmt.Errorf("%w: %s", common.ErrModelNotFound, modelID)
		default:
			return "", fmt.Errorf("openrouter error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completion from %s", modelID)
	}
	return parsed.Choices[0].Message.Content, nil
}
