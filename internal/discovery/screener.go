package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/lmoreno/microhunt/internal/common"
	"github.com/lmoreno/microhunt/internal/model"
	"github.com/lmoreno/microhunt/internal/service"
)

const (
	defaultMaxResults = 20
	trendingCap       = 20
)

// Screener merges the systematic seed-pool screen with trending-signal
// extraction into one deduplicated candidate pool.
type Screener struct {
	market   service.MarketData
	search   service.Searcher
	selector *Selector
	limits   service.Limits

	// MaxResults caps the candidate pool per screen; the pool iteration
	// order is randomized so the cap does not always favor the same seeds.
	MaxResults int
	// ShowProgress renders a progress bar while the screen iterates the
	// pool. Leave off for non-interactive runs.
	ShowProgress bool
}

// NewScreener creates a Screener with the given collaborators.
func NewScreener(market service.MarketData, search service.Searcher, selector *Selector, limits service.Limits) *Screener {
	return &Screener{
		market:     market,
		search:     search,
		selector:   selector,
		limits:     limits,
		MaxResults: defaultMaxResults,
	}
}

// Discover produces the merged candidate pool for a region: trending
// tickers from web search are fed as extra hints into the systematic
// screen, so every trending hit still has to pass the price/cap filter
// before it counts as a real candidate.
func (s *Screener) Discover(ctx context.Context, region string, extraHints []string) ([]model.Candidate, error) {
	trending := s.Trending(ctx, region)
	hints := append(trending, extraHints...)

	candidates := s.Screen(ctx, region, hints)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: region %s", ErrEmptyPool, region)
	}
	return candidates, nil
}

// ErrEmptyPool indicates the screen produced no candidates after
// exhausting seed and trending sources.
var ErrEmptyPool = fmt.Errorf("%w: screening pool empty", common.ErrNoCandidate)

// Screen iterates the region's seed pool merged with extra symbols, keeps
// those whose normalized price is in (0, MaxPrice] and market cap is
// strictly inside (MinMarketCap, MaxMarketCap), and stops at MaxResults.
// Per-symbol provider errors skip the symbol; they are never fatal to the
// pool.
func (s *Screener) Screen(ctx context.Context, region string, extra []string) []model.Candidate {
	pool := SeedPool(region)
	inPool := make(map[string]struct{}, len(pool))
	for _, t := range pool {
		inPool[t] = struct{}{}
	}
	for _, t := range extra {
		if _, dup := inPool[t]; !dup {
			pool = append(pool, t)
			inPool[t] = struct{}{}
		}
	}

	s.selector.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	var bar *progressbar.ProgressBar
	if s.ShowProgress {
		bar = progressbar.NewOptions(len(pool),
			progressbar.OptionSetDescription(fmt.Sprintf("Screening %s", region)),
			progressbar.OptionClearOnFinish(),
		)
	}

	maxResults := s.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var passed []model.Candidate
	for _, symbol := range pool {
		if bar != nil {
			_ = bar.Add(1)
		}
		if len(passed) >= maxResults {
			break
		}
		if ctx.Err() != nil {
			break
		}

		attrs, err := s.market.GetAttributes(ctx, symbol)
		if err != nil {
			slog.Debug("Screener skipping symbol", "symbol", symbol, "error", err)
			continue
		}

		Normalize(attrs)

		if attrs.MarketCap <= s.limits.MinMarketCap || attrs.MarketCap >= s.limits.MaxMarketCap {
			continue
		}
		if attrs.Price <= 0 || attrs.Price > s.limits.MaxPrice {
			continue
		}

		passed = append(passed, *attrs)
		slog.Info("Screener pass",
			"symbol", symbol,
			"price", attrs.Price,
			"market_cap", attrs.MarketCap)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	slog.Info("Screen complete", "region", region, "candidates", len(passed))
	return passed
}

// Trending issues one randomly-chosen trending query for the region and
// extracts plausible ticker tokens from the combined title+snippet text.
// Search failures degrade to an empty hint list.
func (s *Screener) Trending(ctx context.Context, region string) []string {
	query := fmt.Sprintf(trendingQueries[s.selector.Pick(len(trendingQueries))], region)

	results, err := s.search.Search(ctx, query, 15, "pw")
	if err != nil {
		slog.Warn("Trending search failed", "query", query, "error", err)
		return nil
	}

	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(r.Title)
		sb.WriteString(" ")
		sb.WriteString(r.Snippet)
		sb.WriteString(" ")
	}

	tickers := ExtractTickers(sb.String())
	if len(tickers) > trendingCap {
		tickers = tickers[:trendingCap]
	}
	slog.Info("Trending extraction", "region", region, "query", query, "tickers", len(tickers))
	return tickers
}

// FromHandle searches the web for stock mentions attributed to a social
// media handle and returns ticker hints for the screen.
func (s *Screener) FromHandle(ctx context.Context, handle string) []string {
	display, ok := handleMap[handle]
	if !ok {
		display = handle
	}
	query := fmt.Sprintf("%q (stock OR shares OR bought OR sold OR calls OR options)", display)

	results, err := s.search.Search(ctx, query, 15, "pw")
	if err != nil {
		slog.Warn("Handle search failed", "handle", handle, "error", err)
		return nil
	}

	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(r.Title)
		sb.WriteString(" ")
		sb.WriteString(r.Snippet)
		sb.WriteString(" ")
	}
	return ExtractTickers(sb.String())
}

// handleMap translates well-known handles to the display names their
// coverage is indexed under.
var handleMap = map[string]string{
	"DeItaone":       "Walter Bloomberg",
	"unusual_whales": "Unusual Whales",
	"JimCramer":      "Jim Cramer",
	"CathieDWood":    "Cathie Wood",
}

// Handles returns the known social handles, in a fixed order.
func Handles() []string {
	return []string{"DeItaone", "unusual_whales", "JimCramer", "CathieDWood"}
}
