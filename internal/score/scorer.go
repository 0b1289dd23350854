// Package score ranks screened candidates on a deterministic 100-point
// scale so the expensive analyst step only runs on the best picks.
package score

import (
	"fmt"
	"sort"

	"github.com/lmoreno/microhunt/internal/gate"
	"github.com/lmoreno/microhunt/internal/model"
)

// Score evaluates a candidate against the fixed point policy. The result
// is a pure function of the candidate's fields: no randomness, no external
// calls, so re-scoring always yields the same score and breakdown.
//
// Point allocation (max 100):
//
//	20  profitability (EPS > 0)
//	25  Graham margin of safety
//	15  price-to-book deep value
//	15  positive free cash flow
//	10  low debt burden (net debt / EBITDA)
//	10  liquidity (current ratio)
//	 5  cash runway for unprofitable burners
func Score(c model.Candidate) model.ScoredCandidate {
	scored := model.ScoredCandidate{Candidate: c}

	add := func(pts int, reason string) {
		scored.Score += pts
		scored.Breakdown = append(scored.Breakdown, reason)
	}

	// 1. Profitability.
	if c.EPS > 0 {
		add(20, "+20 profitable (EPS > 0)")
	}

	// 2. Graham undervaluation.
	graham := gate.GrahamNumber(c.EPS, c.BookValue)
	if graham > 0 && c.Price > 0 {
		margin := gate.MarginOfSafety(graham, c.Price)
		switch {
		case margin > 0.3:
			add(25, fmt.Sprintf("+25 Graham margin %.0f%%", margin*100))
		case margin > 0:
			pts := int(margin * 50)
			add(pts, fmt.Sprintf("+%d Graham margin %.0f%%", pts, margin*100))
		}
	}

	// 3. Price-to-book deep value.
	switch {
	case c.PriceToBook > 0 && c.PriceToBook < 1.0:
		add(15, fmt.Sprintf("+15 P/B=%.2f < 1.0", c.PriceToBook))
	case c.PriceToBook >= 1.0 && c.PriceToBook < 1.5:
		add(8, fmt.Sprintf("+8 P/B=%.2f < 1.5", c.PriceToBook))
	}

	// 4. Free cash flow.
	if c.FreeCashflow > 0 {
		add(15, "+15 FCF positive")
	}

	// 5. Debt burden, only meaningful with positive EBITDA.
	if c.EBITDA > 0 {
		netDebt := c.NetDebtToEBITDA()
		switch {
		case netDebt < 1.0:
			add(10, fmt.Sprintf("+10 low debt (%.1fx)", netDebt))
		case netDebt < 2.5:
			add(5, fmt.Sprintf("+5 moderate debt (%.1fx)", netDebt))
		}
	}

	// 6. Liquidity.
	switch {
	case c.CurrentRatio > 1.5:
		add(10, fmt.Sprintf("+10 liquid (CR=%.1f)", c.CurrentRatio))
	case c.CurrentRatio > 1.0:
		add(5, fmt.Sprintf("+5 adequate liquidity (CR=%.1f)", c.CurrentRatio))
	}

	// 7. Cash runway for unprofitable burners.
	if c.EPS <= 0 && c.FreeCashflow < 0 && c.TotalCash > 0 {
		runway := c.TotalCash / -c.FreeCashflow
		if runway >= 2 {
			add(5, fmt.Sprintf("+5 runway %.1fy", runway))
		}
	}

	return scored
}

// Rank scores every candidate and returns the top N sorted descending by
// score. The sort is stable, so ties keep discovery order.
func Rank(candidates []model.Candidate, topN int) []model.ScoredCandidate {
	scored := make([]model.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = Score(c)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topN > 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}
