package pipeline

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoreno/microhunt/internal/chain"
	"github.com/lmoreno/microhunt/internal/common"
	"github.com/lmoreno/microhunt/internal/discovery"
	"github.com/lmoreno/microhunt/internal/gate"
	"github.com/lmoreno/microhunt/internal/ledger"
	"github.com/lmoreno/microhunt/internal/model"
	"github.com/lmoreno/microhunt/internal/service"
)

type stubMarket struct {
	bags  map[string]model.Candidate
	calls int
}

func (m *stubMarket) GetAttributes(_ context.Context, symbol string) (*model.Candidate, error) {
	m.calls++
	bag, ok := m.bags[symbol]
	if !ok {
		return nil, common.ErrMarketData
	}
	out := bag
	out.Symbol = symbol
	return &out, nil
}

type stubSearch struct {
	queries []string
}

func (s *stubSearch) Search(_ context.Context, query string, _ int, _ string) ([]service.SearchResult, error) {
	s.queries = append(s.queries, query)
	return nil, nil
}

type stubGateway struct {
	prompts []string
	reply   string
	err     error
}

func (g *stubGateway) Generate(_ context.Context, _, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type stubNotifier struct {
	outcomes []service.Outcome
}

func (n *stubNotifier) Notify(_ context.Context, outcome service.Outcome) error {
	n.outcomes = append(n.outcomes, outcome)
	return nil
}

type fixture struct {
	market   *stubMarket
	search   *stubSearch
	gateway  *stubGateway
	notifier *stubNotifier
	store    *ledger.Memory
	pipeline *Pipeline
	sleeps   *int
}

func newFixture(t *testing.T, bags map[string]model.Candidate, cfg Config) *fixture {
	t.Helper()

	market := &stubMarket{bags: bags}
	search := &stubSearch{}
	gateway := &stubGateway{reply: "the memo"}
	notifier := &stubNotifier{}
	store := ledger.NewMemory()
	limits := service.DefaultLimits()

	screener := discovery.NewScreener(market, search, discovery.NewSelector(rand.NewSource(7)), limits)
	g := gate.New(store, limits)
	ch := chain.New(gateway, []string{"model-a", "model-b"}, service.RetryOptions{MaxAttempts: 1, Delay: time.Millisecond})

	p := New(market, search, store, screener, g, ch, notifier, cfg)
	sleeps := 0
	p.sleep = func(time.Duration) { sleeps++ }

	return &fixture{
		market:   market,
		search:   search,
		gateway:  gateway,
		notifier: notifier,
		store:    store,
		pipeline: p,
		sleeps:   &sleeps,
	}
}

func healthyBag() model.Candidate {
	return model.Candidate{
		Sector:       "Industrials",
		Currency:     "USD",
		Price:        4.20,
		MarketCap:    50_000_000,
		EPS:          0.5,
		BookValue:    3.0,
		CurrentRatio: 1.5,
	}
}

func TestPipeline_ManualTickerPasses(t *testing.T) {
	f := newFixture(t, map[string]model.Candidate{"GHSI": healthyBag()}, DefaultConfig())

	outcome, err := f.pipeline.Run(context.Background(), Request{Region: "USA", Input: "ghsi"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPass, outcome.Status)
	assert.Equal(t, "GHSI", outcome.Ticker)
	assert.Equal(t, "the memo", outcome.Report)
	require.NotNil(t, outcome.Metrics)
	require.Len(t, f.notifier.outcomes, 1)
}

func TestPipeline_ManualRejectionStillAnalyzed(t *testing.T) {
	bag := healthyBag()
	bag.Price = 45 // over the ceiling

	f := newFixture(t, map[string]model.Candidate{"TTOO": bag}, DefaultConfig())

	outcome, err := f.pipeline.Run(context.Background(), Request{Region: "USA", Input: "TTOO"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusFail, outcome.Status)
	assert.Equal(t, "the memo", outcome.Report)
	// Manual entries never consume the retry budget.
	assert.Zero(t, *f.sleeps)
	// The rejection reason reached the analyst prompt.
	require.NotEmpty(t, f.gateway.prompts)
	assert.Contains(t, f.gateway.prompts[0], "per-share limit")
}

func TestPipeline_BackupQueueAvoidsRediscovery(t *testing.T) {
	// BSFC scores high but is a stretched bank; CEAD scores zero but
	// passes. The first pass must validate BSFC, fail, then pop CEAD from
	// the backup queue without a second discovery run.
	bank := healthyBag()
	bank.Sector = "Financial Services"
	bank.PriceToBook = 2.0
	bank.FreeCashflow = 1_000_000

	plain := model.Candidate{
		Sector:    "Unknown",
		Currency:  "USD",
		Price:     3.0,
		MarketCap: 40_000_000,
	}

	f := newFixture(t, map[string]model.Candidate{"BSFC": bank, "CEAD": plain}, DefaultConfig())

	outcome, err := f.pipeline.Run(context.Background(), Request{Region: "USA"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPass, outcome.Status)
	assert.Equal(t, "CEAD", outcome.Ticker)
	// One trending query means one discovery pass; the news lookup for
	// the passing candidate is the only other search.
	assert.Len(t, f.search.queries, 2)
	// Both symbols consumed their cooldown.
	seen := f.store.Load(context.Background())
	assert.Contains(t, seen, "BSFC")
	assert.Contains(t, seen, "CEAD")
}

func TestPipeline_RetryBudgetBoundsDiscovery(t *testing.T) {
	// The only screenable candidate always fails the gate; with
	// MaxRetries=1 the pipeline makes at most 2 discovery attempts.
	bank := healthyBag()
	bank.Sector = "Financial Services"
	bank.PriceToBook = 3.0

	cfg := DefaultConfig()
	cfg.MaxRetries = 1

	f := newFixture(t, map[string]model.Candidate{"BSFC": bank}, cfg)

	outcome, err := f.pipeline.Run(context.Background(), Request{Region: "USA"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusFail, outcome.Status)
	// One trending query per discovery pass, no news lookup on failure.
	assert.Len(t, f.search.queries, 2)
	// The retry pause fired exactly once.
	assert.Equal(t, 1, *f.sleeps)
}

func TestPipeline_ChatRouting(t *testing.T) {
	f := newFixture(t, nil, DefaultConfig())

	outcome, err := f.pipeline.Run(context.Background(), Request{Region: "USA", Input: "what is a graham number"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusChat, outcome.Status)
	assert.Equal(t, "the memo", outcome.Report)
	// Chat bypasses discovery and validation entirely.
	assert.Zero(t, f.market.calls)
	require.Len(t, f.gateway.prompts, 1)
	assert.Contains(t, f.gateway.prompts[0], "what is a graham number")
}

func TestPipeline_ConversationalFlagForcesChat(t *testing.T) {
	f := newFixture(t, nil, DefaultConfig())

	outcome, err := f.pipeline.Run(context.Background(), Request{Region: "USA", Input: "GHSI", Conversational: true})
	require.NoError(t, err)
	assert.Equal(t, model.StatusChat, outcome.Status)
	assert.Zero(t, f.market.calls)
}

func TestPipeline_DegradedReportOnModelFailure(t *testing.T) {
	f := newFixture(t, map[string]model.Candidate{"GHSI": healthyBag()}, DefaultConfig())
	f.gateway.err = common.ErrRateLimit

	outcome, err := f.pipeline.Run(context.Background(), Request{Region: "USA", Input: "GHSI"})
	require.NoError(t, err)

	// The pipeline still completes with a structured outcome.
	assert.Equal(t, model.StatusPass, outcome.Status)
	assert.Contains(t, outcome.Report, "ANALYSIS UNAVAILABLE")
	assert.Contains(t, outcome.Report, "Margin of safety")
}

func TestPipeline_WatchdogTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = time.Nanosecond

	f := newFixture(t, map[string]model.Candidate{"GHSI": healthyBag()}, cfg)

	outcome, err := f.pipeline.Run(context.Background(), Request{Region: "USA", Input: "GHSI"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusFail, outcome.Status)
	assert.Contains(t, outcome.Report, "time budget")
}

func TestPipeline_TransientMarketErrorDoesNotConsumeCooldown(t *testing.T) {
	f := newFixture(t, nil, DefaultConfig())

	outcome, err := f.pipeline.Run(context.Background(), Request{Region: "USA", Input: "GHSI"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusFail, outcome.Status)
	assert.Empty(t, f.store.Load(context.Background()))
}

func TestPipeline_SeenSymbolsExcludedFromDiscovery(t *testing.T) {
	f := newFixture(t, map[string]model.Candidate{"GHSI": healthyBag()}, DefaultConfig())
	require.NoError(t, f.store.MarkSeen(context.Background(), "GHSI"))

	outcome, err := f.pipeline.Run(context.Background(), Request{Region: "USA"})
	require.NoError(t, err)

	// The only viable candidate was seen recently, so the hunt fails.
	assert.Equal(t, model.StatusFail, outcome.Status)
	assert.NotEqual(t, "GHSI", outcome.Ticker)
}
