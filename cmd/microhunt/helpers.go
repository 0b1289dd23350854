package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/lmoreno/microhunt/internal/brave"
	"github.com/lmoreno/microhunt/internal/chain"
	"github.com/lmoreno/microhunt/internal/config"
	"github.com/lmoreno/microhunt/internal/discovery"
	"github.com/lmoreno/microhunt/internal/gate"
	"github.com/lmoreno/microhunt/internal/ledger"
	"github.com/lmoreno/microhunt/internal/notify"
	"github.com/lmoreno/microhunt/internal/openrouter"
	"github.com/lmoreno/microhunt/internal/pipeline"
	"github.com/lmoreno/microhunt/internal/service"
	"github.com/lmoreno/microhunt/internal/yahoo"
)

// noopSearcher stands in when no Brave key is configured: discovery falls
// back to seed pools alone and reports skip the news context.
type noopSearcher struct{}

func (noopSearcher) Search(_ context.Context, _ string, _ int, _ string) ([]service.SearchResult, error) {
	return nil, nil
}

// initLedger opens the seen-ticker store. An unusable path degrades to an
// in-memory ledger rather than blocking the hunt: cooldowns are lost for
// the run, discovery is not.
func initLedger(path string) service.SeenStore {
	store, err := ledger.NewSQLiteStore(path)
	if err != nil {
		slog.Warn("Ledger unusable, falling back to in-memory store",
			"path", path,
			"error", err)
		return ledger.NewMemory()
	}
	return store
}

// scoutSocial collects ticker hints from the known social handles.
func scoutSocial(ctx context.Context, screener *discovery.Screener) []string {
	var hints []string
	for _, handle := range discovery.Handles() {
		hints = append(hints, screener.FromHandle(ctx, handle)...)
	}
	slog.Info("Social scouting complete", "hints", len(hints))
	return hints
}

// buildPipeline wires the external clients and core packages into one
// orchestrator. The screener is returned alongside so commands can run
// social scouting before a hunt.
func buildPipeline(cfg *config.Config, store service.SeenStore, showProgress bool) (*pipeline.Pipeline, *discovery.Screener, error) {
	market := yahoo.NewClient("")

	var search service.Searcher = noopSearcher{}
	if cfg.BraveAPIKey != "" {
		searcher, err := brave.NewClient(cfg.BraveAPIKey, "")
		if err != nil {
			return nil, nil, err
		}
		search = searcher
	} else {
		slog.Warn("No Brave API key configured, discovery will use seed pools only")
	}

	gateway, err := openrouter.NewClient(cfg.OpenRouterAPIKey, "")
	if err != nil {
		return nil, nil, err
	}

	var notifier service.Notifier
	if len(cfg.Recipients) > 0 {
		notifier, err = notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.EmailFrom, cfg.Recipients, "")
		if err != nil {
			return nil, nil, err
		}
	} else {
		notifier = notify.NewConsoleNotifier(os.Stdout)
	}

	selector := discovery.NewSelector(rand.NewSource(time.Now().UnixNano()))
	screener := discovery.NewScreener(market, search, selector, cfg.Limits)
	screener.ShowProgress = showProgress

	g := gate.New(store, cfg.Limits)
	ch := chain.New(gateway, cfg.Models, service.RetryOptions{})

	pcfg := pipeline.Config{
		MaxRetries: cfg.MaxRetries,
		RetryPause: cfg.RetryPause,
		Timeout:    cfg.Timeout,
		TopN:       cfg.TopN,
	}
	return pipeline.New(market, search, store, screener, g, ch, notifier, pcfg), screener, nil
}
