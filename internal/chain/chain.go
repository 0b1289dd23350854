// Package chain tries an ordered list of model identifiers against the
// model gateway, falling back on rate limits and availability errors so a
// single flaky model never sinks a report.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lmoreno/microhunt/internal/common"
	"github.com/lmoreno/microhunt/internal/service"
)

// DefaultModels is the fixed fallback order: free-tier models benchmarked
// for structured-memo output, fastest acceptable first.
var DefaultModels = []string{
	"meta-llama/llama-3.1-8b-instruct:free",
	"meta-llama/llama-3.3-70b-instruct:free",
	"nousresearch/hermes-3-llama-3.1-405b:free",
	"mistralai/mistral-small-3.1-24b-instruct:free",
	"qwen/qwen3-coder:free",
	"google/gemma-3-27b-it:free",
}

// Attempt records one model invocation during a single chain traversal.
// Attempts are not persisted; they exist for logging and tests.
type Attempt struct {
	Model   string
	Attempt int
	Err     error
}

// Chain is the prioritized model invocation chain. It holds no cross-call
// state: every Invoke restarts from the first model.
type Chain struct {
	gateway service.ModelGateway
	models  []string
	retry   service.RetryOptions
}

// New creates a Chain over the given models, first entry tried first.
func New(gateway service.ModelGateway, models []string, retry service.RetryOptions) *Chain {
	if len(models) == 0 {
		models = DefaultModels
	}
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 2
	}
	if retry.Delay <= 0 {
		retry.Delay = 2 * time.Second
	}
	return &Chain{
		gateway: gateway,
		models:  models,
		retry:   retry,
	}
}

// Invoke generates text for the prompt, walking the chain in order. Per
// model: a rate-limit or not-found response moves to the next model
// immediately; any other error retries with a fixed pause before moving
// on. When every model is exhausted the call fails with
// common.ErrModelUnavailable.
func (c *Chain) Invoke(ctx context.Context, prompt string) (string, error) {
	text, _, err := c.InvokeWithAttempts(ctx, prompt)
	return text, err
}

// InvokeWithAttempts is Invoke plus the per-model attempt trace.
func (c *Chain) InvokeWithAttempts(ctx context.Context, prompt string) (string, []Attempt, error) {
	var attempts []Attempt

	for _, modelID := range c.models {
		if err := ctx.Err(); err != nil {
			return "", attempts, err
		}

		var text string
		try := 0
		err := common.WithRetry(ctx, func() error {
			try++
			out, genErr := c.gateway.Generate(ctx, modelID, prompt)
			attempts = append(attempts, Attempt{Model: modelID, Attempt: try, Err: genErr})
			if genErr != nil {
				return genErr
			}
			text = out
			return nil
		}, c.retry)

		if err == nil {
			slog.Debug("Model responded", "model", modelID, "attempt", try)
			return text, attempts, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", attempts, err
		}

		// Rate-limited, unknown, or exhausted its retry budget: next model.
		slog.Warn("Model unavailable, falling back", "model", modelID, "error", err)
	}

	return "", attempts, fmt.Errorf("%w: exhausted %d models", common.ErrModelUnavailable, len(c.models))
}
