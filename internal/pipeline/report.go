package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lmoreno/microhunt/internal/model"
)

// chatPrompt frames a conversational query for the model chain.
func chatPrompt(query string) string {
	return fmt.Sprintf(`You are the senior broker for a micro-cap hunting desk. A team member just asked you this question:
%q

Answer them directly, professionally, and concisely. If they ask about financial metrics or how you work, explain the quantitative Graham and deep-value frameworks the desk uses.`, query)
}

// buildPrompt assembles the structured investment-memo prompt from the
// validated metrics, or a rejection-explanation prompt when the candidate
// failed the gate.
func (p *Pipeline) buildPrompt(ctx context.Context, state *model.PipelineState) string {
	if state.Status != model.StatusPass {
		return rejectionPrompt(state)
	}

	c := state.Candidate
	m := state.Metrics

	var strategy, thesis string
	if c.EPS > 0 && c.BookValue > 0 {
		strategy = "GRAHAM VALUE"
		thesis = fmt.Sprintf("Profitable in %s. Graham value $%.2f vs price $%.2f. EBITDA: $%.0f.",
			c.Sector, m.IntrinsicValue, m.Price, c.EBITDA)
	} else {
		strategy = "DEEP VALUE ASSET PLAY"
		ratio := 0.0
		if c.BookValue > 0 {
			ratio = m.Price / c.BookValue
		}
		thesis = fmt.Sprintf("Unprofitable in %s. Trading at %.2fx book value. EBITDA: $%.0f.",
			c.Sector, ratio, c.EBITDA)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Act as a senior financial broker evaluating %s (%s).\n\n", displayName(state), state.Ticker)
	fmt.Fprintf(&sb, "HARD DATA: Price: $%.2f | EPS: %.2f | Book/Share: %.2f | EBITDA: %.0f | Margin of Safety: %s\n",
		m.Price, c.EPS, c.BookValue, c.EBITDA, m.MarginOfSafety)
	fmt.Fprintf(&sb, "QUANTITATIVE THESIS: %s\n", thesis)

	if news := p.newsContext(ctx, state); news != "" {
		fmt.Fprintf(&sb, "\nNEWS:\n%s\n", news)
	}

	fmt.Fprintf(&sb, `
Write a highly structured investment memo combining strict %s math with qualitative analysis and recent news. No fluff or buzzwords.

Format your response EXACTLY like this:

### THE QUANTITATIVE BASE
* State the current price vs the calculated %s valuation.
* Briefly explain whether the math supports a margin of safety.

### THE PITCH (Why I would own this)
* **The Catalyst:** Based on the news, what is the ONE simple reason this stock could run?

### THE INVERT (How I could lose money)
* **Structural Weakness:** What is the most likely way an investor loses money here?
* **The Bear Evidence:** What exact metric or news item would prove the bear case right?

### FINAL VERDICT
STRONG BUY / BUY / WATCH / AVOID (choose one, followed by a 1-sentence bottom line).
`, strategy, strategy)

	return sb.String()
}

// rejectionPrompt asks the chain to explain a gatekeeper rejection (or a
// discovery dead end) in plain terms.
func rejectionPrompt(state *model.PipelineState) string {
	subject := state.Ticker
	if subject == "" {
		subject = fmt.Sprintf("the %s region hunt", state.Region)
	}
	return fmt.Sprintf(`Act as a senior financial broker. The screening desk rejected %s for this reason:
%q

In three sentences or fewer, explain the rejection in plain terms for the team and state what would have to change for the candidate to qualify.`,
		subject, state.Reason)
}

// newsContext fetches trailing news snippets for the candidate; failures
// degrade to an empty section.
func (p *Pipeline) newsContext(ctx context.Context, state *model.PipelineState) string {
	query := fmt.Sprintf("%s stock %s catalysts insider buying", state.Ticker, state.Metrics.Sector)
	results, err := p.search.Search(ctx, query, 5, "")
	if err != nil {
		slog.Warn("News lookup failed", "ticker", state.Ticker, "error", err)
		return ""
	}

	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s: %s\n", r.Title, r.Snippet)
	}
	out := sb.String()
	if len(out) > 1500 {
		out = out[:1500]
	}
	return out
}

// degradedReport renders the raw metrics when the entire model chain is
// unavailable, so the request still completes.
func degradedReport(state *model.PipelineState) string {
	var sb strings.Builder
	sb.WriteString("### ANALYSIS UNAVAILABLE\n")
	sb.WriteString("No language model in the fallback chain responded; raw screening output follows.\n\n")

	if state.Status == model.StatusPass {
		fmt.Fprintf(&sb, "**%s (%s)** passed the gatekeeper.\n", displayName(state), state.Ticker)
	} else if state.Reason != "" {
		fmt.Fprintf(&sb, "**Rejected:** %s\n", state.Reason)
	}

	if m := state.Metrics; m != nil {
		fmt.Fprintf(&sb, "\n| Metric | Value |\n|---|---|\n")
		fmt.Fprintf(&sb, "| Sector | %s |\n", m.Sector)
		fmt.Fprintf(&sb, "| Price | $%.2f |\n", m.Price)
		fmt.Fprintf(&sb, "| Market cap | $%.0f |\n", m.MarketCap)
		fmt.Fprintf(&sb, "| Graham number | $%.2f |\n", m.IntrinsicValue)
		fmt.Fprintf(&sb, "| Margin of safety | %s |\n", m.MarginOfSafety)
	}
	return sb.String()
}

func displayName(state *model.PipelineState) string {
	if state.Name != "" {
		return state.Name
	}
	return state.Ticker
}
