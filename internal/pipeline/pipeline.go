// Package pipeline drives the discover-validate-retry state machine: it
// routes incoming requests, loops discovery against the gatekeeper within
// a bounded retry budget, and hands the surviving candidate to the analyst
// and notifier.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lmoreno/microhunt/internal/chain"
	"github.com/lmoreno/microhunt/internal/common"
	"github.com/lmoreno/microhunt/internal/discovery"
	"github.com/lmoreno/microhunt/internal/gate"
	"github.com/lmoreno/microhunt/internal/model"
	"github.com/lmoreno/microhunt/internal/score"
	"github.com/lmoreno/microhunt/internal/service"
)

// Config holds the orchestrator's knobs.
type Config struct {
	// MaxRetries is the number of additional discovery passes allowed
	// after a failed auto-discovered validation. MaxRetries=1 means at
	// most 2 discovery attempts.
	MaxRetries int
	// RetryPause is the fixed pause between discovery attempts, to avoid
	// hammering external services.
	RetryPause time.Duration
	// Timeout is the wall-clock watchdog for one request; the run aborts
	// with a structured FAIL outcome instead of hanging. 0 disables it.
	Timeout time.Duration
	// TopN is how many ranked candidates each discovery pass keeps; the
	// runners-up become the backup queue.
	TopN int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryPause: 2 * time.Second,
		Timeout:    10 * time.Minute,
		TopN:       5,
	}
}

// Request is one incoming pipeline invocation.
type Request struct {
	// Region selects the seed pool and exchange suffixes.
	Region string
	// Input is the raw user input: an explicit ticker, free text for chat
	// mode, or empty to trigger auto-discovery.
	Input string
	// Conversational forces chat routing regardless of Input shape.
	Conversational bool
	// Hints are extra symbols merged into discovery (e.g. from social
	// scouting).
	Hints []string
}

// Pipeline is a single-request orchestrator. Independent requests may run
// as separate Pipeline instances; they share only the seen-ticker store.
type Pipeline struct {
	market   service.MarketData
	search   service.Searcher
	store    service.SeenStore
	screener *discovery.Screener
	gate     *gate.Gate
	chain    *chain.Chain
	notifier service.Notifier
	cfg      Config

	sleep func(time.Duration)
}

// New assembles a Pipeline from its collaborators.
func New(market service.MarketData, search service.Searcher, store service.SeenStore,
	screener *discovery.Screener, g *gate.Gate, ch *chain.Chain,
	notifier service.Notifier, cfg Config) *Pipeline {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	return &Pipeline{
		market:   market,
		search:   search,
		store:    store,
		screener: screener,
		gate:     g,
		chain:    ch,
		notifier: notifier,
		cfg:      cfg,
		sleep:    time.Sleep,
	}
}

// Run executes one request to a terminal outcome. Failures surface as a
// structured FAIL outcome, never as a raw error at the request boundary;
// the returned error is reserved for notifier delivery problems.
func (p *Pipeline) Run(ctx context.Context, req Request) (service.Outcome, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	var outcome service.Outcome
	if isConversational(req) {
		outcome = p.chat(ctx, req)
	} else {
		outcome = p.hunt(ctx, req)
	}

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, outcome); err != nil {
			slog.Error("Failed to deliver outcome", "ticker", outcome.Ticker, "error", err)
			return outcome, err
		}
	}
	return outcome, nil
}

// isConversational routes free-text input (anything with a space) or an
// explicit chat flag straight to the chat node.
func isConversational(req Request) bool {
	return req.Conversational || strings.Contains(strings.TrimSpace(req.Input), " ")
}

// chat answers a conversational query via the model chain, bypassing
// discovery and validation entirely.
func (p *Pipeline) chat(ctx context.Context, req Request) service.Outcome {
	report, err := p.chain.Invoke(ctx, chatPrompt(req.Input))
	if err != nil {
		slog.Error("Chat generation failed", "error", err)
		report = "I am experiencing issues right now. Please try again."
	}
	return service.Outcome{
		Status: model.StatusChat,
		Region: req.Region,
		Report: report,
	}
}

// hunt runs the discover-validate-retry loop as an explicit iteration with
// a hard ceiling; recursion is never used, so termination does not depend
// on stack limits.
func (p *Pipeline) hunt(ctx context.Context, req Request) service.Outcome {
	state := &model.PipelineState{
		Region: req.Region,
		Status: model.StatusPending,
		Ticker: strings.ToUpper(strings.TrimSpace(req.Input)),
		Manual: strings.TrimSpace(req.Input) != "",
	}

	for {
		if err := ctx.Err(); err != nil {
			return p.timedOut(state, err)
		}

		p.scout(ctx, state, req.Hints)
		p.validate(ctx, state)

		// Manual entries always reach the analyst, even on FAIL, so the
		// user sees an explicit rejection explanation for a ticker they
		// typed.
		if state.Manual || state.Status == model.StatusPass {
			break
		}

		state.RetryCount++
		if state.RetryCount > p.cfg.MaxRetries {
			slog.Warn("Retry budget exhausted",
				"region", state.Region,
				"attempts", state.RetryCount,
				"reason", state.Reason)
			break
		}

		slog.Info("Validation failed, retrying discovery",
			"region", state.Region,
			"attempt", state.RetryCount,
			"max_retries", p.cfg.MaxRetries)
		p.sleep(p.cfg.RetryPause)
	}

	if err := ctx.Err(); err != nil {
		return p.timedOut(state, err)
	}

	p.analyze(ctx, state)

	return service.Outcome{
		Status:  state.Status,
		Region:  state.Region,
		Ticker:  state.Ticker,
		Name:    state.Name,
		Report:  state.Report,
		Metrics: state.Metrics,
	}
}

// scout resolves the next ticker to validate: an explicit manual symbol on
// the first pass, a queued backup from the last discovery, or a fresh
// discovery run.
func (p *Pipeline) scout(ctx context.Context, state *model.PipelineState, hints []string) {
	if state.Manual && state.RetryCount == 0 {
		state.Ticker = discovery.ResolveSuffix(ctx, p.market, state.Ticker, state.Region)
		slog.Info("Manual lookup", "ticker", state.Ticker)
		return
	}

	seen := p.store.Load(ctx)

	// Prefer a queued backup over a full rediscovery.
	for len(state.Backups) > 0 {
		next := state.Backups[0]
		state.Backups = state.Backups[1:]
		if _, recent := seen[next.Symbol]; recent {
			slog.Info("Skipping backup candidate, seen recently", "ticker", next.Symbol)
			continue
		}
		state.Ticker = next.Symbol
		state.Candidate = &next.Candidate
		state.Name = next.Name
		slog.Info("Popped backup candidate",
			"ticker", next.Symbol,
			"score", next.Score,
			"remaining", len(state.Backups))
		return
	}

	pool, err := p.screener.Discover(ctx, state.Region, hints)
	if err != nil {
		state.Ticker = ""
		state.Candidate = nil
		slog.Warn("Discovery produced no candidates", "region", state.Region, "error", err)
		return
	}

	fresh := make([]model.Candidate, 0, len(pool))
	for _, c := range pool {
		if _, recent := seen[c.Symbol]; !recent {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		state.Ticker = ""
		state.Candidate = nil
		slog.Warn("All discovered candidates seen recently", "region", state.Region)
		return
	}

	ranked := score.Rank(fresh, p.cfg.TopN)
	best := ranked[0]

	state.Ticker = best.Symbol
	state.Candidate = &best.Candidate
	state.Name = best.Name
	state.Backups = ranked[1:]

	slog.Info("Discovery target acquired",
		"ticker", best.Symbol,
		"score", best.Score,
		"breakdown", strings.Join(best.Breakdown, " | "),
		"backups", len(state.Backups))
}

// validate fetches the attribute bag when needed and runs the gatekeeper.
// Transient market-data failures fail the pass without consuming the
// seen-ticker cooldown; genuine rejections mark the symbol seen inside
// the gate.
func (p *Pipeline) validate(ctx context.Context, state *model.PipelineState) {
	if state.Ticker == "" {
		state.Status = model.StatusFail
		state.Reason = "discovery produced no readable candidate"
		return
	}

	if state.Candidate == nil {
		attrs, err := p.market.GetAttributes(ctx, state.Ticker)
		if err != nil {
			state.Status = model.StatusFail
			state.Reason = fmt.Sprintf("market data unavailable for %s", state.Ticker)
			slog.Error("Gatekeeper fetch failed", "ticker", state.Ticker, "error", err)
			return
		}
		state.Candidate = attrs
		state.Name = attrs.Name
	}

	metrics, err := p.gate.Validate(ctx, state.Candidate)
	state.Metrics = metrics
	if err != nil {
		state.Status = model.StatusFail
		state.Reason = err.Error()
		if rej := common.AsRejection(err); rej != nil {
			state.Reason = rej.Reason
		}
		slog.Info("Gatekeeper reject", "ticker", state.Ticker, "reason", state.Reason)
		return
	}

	state.Status = model.StatusPass
	slog.Info("Gatekeeper pass",
		"ticker", state.Ticker,
		"price", metrics.Price,
		"market_cap", metrics.MarketCap,
		"sector", metrics.Sector)
}

// analyze builds the broker-memo prompt from the validated metrics (or the
// failure reason) and invokes the model chain. Total model failure
// degrades to a report carrying the raw metrics rather than aborting the
// request.
func (p *Pipeline) analyze(ctx context.Context, state *model.PipelineState) {
	prompt := p.buildPrompt(ctx, state)

	report, err := p.chain.Invoke(ctx, prompt)
	if err != nil {
		if !errors.Is(err, common.ErrModelUnavailable) {
			slog.Error("Analysis failed", "ticker", state.Ticker, "error", err)
		}
		state.Report = degradedReport(state)
		return
	}
	state.Report = report
}

func (p *Pipeline) timedOut(state *model.PipelineState, err error) service.Outcome {
	slog.Error("Pipeline watchdog fired", "region", state.Region, "error", err)
	return service.Outcome{
		Status: model.StatusFail,
		Region: state.Region,
		Ticker: state.Ticker,
		Report: fmt.Sprintf("Hunt aborted: request exceeded the %s time budget.", p.cfg.Timeout),
	}
}
