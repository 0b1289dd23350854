// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/lmoreno/microhunt/internal/model"
)

// MarketData is the market data provider collaborator. GetAttributes
// returns the flat attribute bag for a symbol, with zero defaults for
// absent fields.
type MarketData interface {
	GetAttributes(ctx context.Context, symbol string) (*model.Candidate, error)
}

// SearchResult is one ranked web search hit.
type SearchResult struct {
	Title   string
	Snippet string
}

// Searcher is the free-text web search collaborator. freshness is an
// optional filter ("pw" for past week, "pm" for past month, "" for none).
type Searcher interface {
	Search(ctx context.Context, query string, count int, freshness string) ([]SearchResult, error)
}

// ModelGateway generates text from a prompt using a specific model
// identifier. Implementations must surface rate-limit and model-not-found
// conditions as common.ErrRateLimit and common.ErrModelNotFound so the
// invocation chain can distinguish them.
type ModelGateway interface {
	Generate(ctx context.Context, modelID, prompt string) (string, error)
}

// Outcome is what the pipeline hands to the downstream consumer. The core
// makes no assumptions about how it is rendered or delivered.
type Outcome struct {
	Status  model.Status
	Region  string
	Ticker  string
	Name    string
	Report  string
	Metrics *model.Metrics
}

// Notifier delivers a pipeline outcome to the downstream consumer.
type Notifier interface {
	Notify(ctx context.Context, outcome Outcome) error
}

// SeenStore is the persistent seen-ticker ledger. Load returns all entries
// younger than the TTL, pruning older ones as a side effect; it fails
// open, returning an empty map when the backing store is unreadable.
// MarkSeen failures are non-fatal to callers and may be logged and
// dropped.
type SeenStore interface {
	Load(ctx context.Context) map[string]time.Time
	MarkSeen(ctx context.Context, symbol string) error
	Forget(ctx context.Context, symbol string) error
	Close() error
}

// Limits are the hard screening bounds shared by discovery and validation.
type Limits struct {
	MaxPrice     float64
	MinMarketCap float64
	MaxMarketCap float64
}

// DefaultLimits returns the fixed policy bounds for micro-cap hunting.
func DefaultLimits() Limits {
	return Limits{
		MaxPrice:     30.00,
		MinMarketCap: 10_000_000,
		MaxMarketCap: 300_000_000,
	}
}

// RetryOptions configures retry behavior. Delays are fixed, not
// exponential; the pipeline favors bounded simplicity over adaptive
// backoff.
type RetryOptions struct {
	MaxAttempts int
	Delay       time.Duration
}
