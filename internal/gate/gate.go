// Package gate is the hard-rule gatekeeper: it rejects candidates outside
// the fixed policy bounds and computes the advisory intrinsic-value
// metrics for downstream reporting.
package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lmoreno/microhunt/internal/common"
	"github.com/lmoreno/microhunt/internal/discovery"
	"github.com/lmoreno/microhunt/internal/model"
	"github.com/lmoreno/microhunt/internal/service"
)

// policy is one sector-specific health check. The dispatch table below is
// data, not code branches: adding a sector means adding a row.
type policy struct {
	kind             string
	maxPriceToBook   float64 // bank: reject above this
	minCurrentRatio  float64 // bank: reject below this
	minRunwayYears   float64 // growth: reject cash burners below this
	maxNetDebtEBITDA float64 // standard: reject above this when EBITDA > 0
}

var (
	bankPolicy     = policy{kind: "bank", maxPriceToBook: 1.2, minCurrentRatio: 0.8}
	growthPolicy   = policy{kind: "growth", minRunwayYears: 0.5}
	standardPolicy = policy{kind: "standard", maxNetDebtEBITDA: 3.5}
	defaultPolicy  = policy{kind: "default"}
)

// sectorPolicies dispatches a candidate's sector to exactly one policy;
// unknown sectors fall back to defaultPolicy.
var sectorPolicies = map[string]policy{
	"Financial Services":     bankPolicy,
	"Technology":             growthPolicy,
	"Healthcare":             growthPolicy,
	"Industrials":            standardPolicy,
	"Energy":                 standardPolicy,
	"Basic Materials":        standardPolicy,
	"Consumer Cyclical":      standardPolicy,
	"Consumer Defensive":     standardPolicy,
	"Utilities":              standardPolicy,
	"Communication Services": standardPolicy,
}

// Gate validates candidates against the hard financial rules.
type Gate struct {
	store  service.SeenStore
	limits service.Limits
}

// New creates a Gate that records every evaluated symbol in the seen
// store.
func New(store service.SeenStore, limits service.Limits) *Gate {
	return &Gate{store: store, limits: limits}
}

// Validate applies the hard rules in fixed order, short-circuiting on the
// first failure, and always computes the advisory valuation metrics. A
// nil error means the candidate passed; a *common.RejectionError carries
// the rule and reason otherwise.
//
// Every evaluated symbol is marked seen, win or lose, so auto-discovery
// does not re-surface a just-rejected symbol within the TTL window.
// Transient market-data failures never reach this method and therefore do
// not consume the cooldown.
func (g *Gate) Validate(ctx context.Context, c *model.Candidate) (*model.Metrics, error) {
	g.markSeen(ctx, c.Symbol)

	discovery.Normalize(c)
	price := c.Price

	metrics := g.metrics(c, price)

	// 1. Per-share price ceiling.
	if price > g.limits.MaxPrice {
		return metrics, &common.RejectionError{
			Rule:   common.RulePriceCeiling,
			Reason: fmt.Sprintf("price $%.2f exceeds the $%.2f per-share limit", price, g.limits.MaxPrice),
		}
	}

	// 2. Market cap band, strict on both ends.
	if c.MarketCap <= g.limits.MinMarketCap || c.MarketCap >= g.limits.MaxMarketCap {
		return metrics, &common.RejectionError{
			Rule: common.RuleMarketCapBand,
			Reason: fmt.Sprintf("market cap $%.0f is outside the $%.0f-$%.0f range",
				c.MarketCap, g.limits.MinMarketCap, g.limits.MaxMarketCap),
		}
	}

	// 3. Sector-specific health check.
	if err := g.sectorCheck(c); err != nil {
		return metrics, err
	}

	return metrics, nil
}

func (g *Gate) sectorCheck(c *model.Candidate) error {
	pol, ok := sectorPolicies[c.Sector]
	if !ok {
		pol = defaultPolicy
	}

	switch pol.kind {
	case "bank":
		if c.PriceToBook > pol.maxPriceToBook {
			return &common.RejectionError{
				Rule:   common.RuleSectorHealth,
				Reason: fmt.Sprintf("financials reject: P/B %.2f needs to be near or under 1.0", c.PriceToBook),
			}
		}
		if c.CurrentRatio > 0 && c.CurrentRatio < pol.minCurrentRatio {
			return &common.RejectionError{
				Rule:   common.RuleSectorHealth,
				Reason: fmt.Sprintf("bank reject: low liquidity (current ratio %.2f < %.1f)", c.CurrentRatio, pol.minCurrentRatio),
			}
		}

	case "growth":
		// Zombie filter: cash burners need at least six months of runway.
		if c.FreeCashflow < 0 {
			runway := c.TotalCash / -c.FreeCashflow
			if runway < pol.minRunwayYears {
				return &common.RejectionError{
					Rule:   common.RuleSectorHealth,
					Reason: fmt.Sprintf("zombie reject: burning cash with %.1f months of runway", runway*12),
				}
			}
		}

	case "standard":
		if c.EBITDA > 0 {
			netDebt := c.NetDebtToEBITDA()
			if netDebt > pol.maxNetDebtEBITDA {
				return &common.RejectionError{
					Rule:   common.RuleSectorHealth,
					Reason: fmt.Sprintf("debt reject: net debt/EBITDA %.2fx > %.1fx", netDebt, pol.maxNetDebtEBITDA),
				}
			}
		}
	}

	return nil
}

// metrics computes the advisory Graham valuation; it never rejects.
func (g *Gate) metrics(c *model.Candidate, price float64) *model.Metrics {
	graham := GrahamNumber(c.EPS, c.BookValue)

	safety := "No Value (Unprofitable)"
	if graham > 0 && price > 0 {
		safety = fmt.Sprintf("%.1f%%", MarginOfSafety(graham, price)*100)
	}

	return &model.Metrics{
		Sector:         c.Sector,
		Price:          price,
		MarketCap:      c.MarketCap,
		IntrinsicValue: graham,
		MarginOfSafety: safety,
	}
}

func (g *Gate) markSeen(ctx context.Context, symbol string) {
	if err := g.store.MarkSeen(ctx, symbol); err != nil {
		slog.Warn("Failed to mark symbol seen", "symbol", symbol, "error", err)
	}
}
