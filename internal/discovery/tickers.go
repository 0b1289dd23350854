package discovery

import (
	"context"
	"regexp"
	"strings"

	"github.com/lmoreno/microhunt/internal/model"
	"github.com/lmoreno/microhunt/internal/service"
)

// tickerPattern matches plausible ticker-shaped tokens: 2-5 uppercase
// letters with an optional single-dot regional suffix of 1-2 letters.
var tickerPattern = regexp.MustCompile(`\b([A-Z]{2,5}(?:\.[A-Z]{1,2})?)\b`)

// noiseWords are uppercase tokens that look like tickers but never are.
var noiseWords = map[string]struct{}{
	"THE": {}, "AND": {}, "FOR": {}, "ARE": {}, "NOT": {}, "YOU": {},
	"ALL": {}, "CAN": {}, "ONE": {}, "OUT": {}, "HAS": {}, "NEW": {},
	"NOW": {}, "SEE": {}, "WHO": {}, "GET": {}, "SHE": {}, "TOO": {},
	"USE": {}, "NONE": {}, "THIS": {}, "THAT": {}, "WITH": {}, "HAVE": {},
	"FROM": {}, "THEY": {}, "BEEN": {}, "SAID": {}, "MAKE": {}, "LIKE": {},
	"JUST": {}, "OVER": {}, "SUCH": {}, "TAKE": {}, "YEAR": {}, "SOME": {},
	"MOST": {}, "VERY": {}, "WHEN": {}, "WHAT": {}, "YOUR": {}, "ALSO": {},
	"INTO": {}, "ROLE": {}, "TASK": {}, "INPUT": {}, "STOCK": {},
	"TICKER": {}, "CAP": {}, "MICRO": {}, "NANO": {}, "CEO": {}, "CFO": {},
	"BUY": {}, "SELL": {}, "LOW": {}, "HIGH": {}, "ATH": {}, "ETF": {},
	"USA": {}, "USD": {}, "YTD": {}, "TOP": {}, "HOT": {}, "BEST": {},
	"LIVE": {}, "DATA": {}, "GDP": {}, "CPI": {}, "FED": {}, "FOMC": {},
	"PCE": {}, "PPI": {}, "CNBC": {}, "NYSE": {}, "NASDAQ": {}, "NEWS": {},
	"REAL": {}, "TIME": {}, "TODAY": {}, "WSJ": {}, "SEC": {}, "WHY": {},
	"IPO": {}, "GBP": {}, "EUR": {}, "EPS": {}, "FYI": {}, "AGM": {},
}

// ExtractTickers pulls plausible ticker symbols from free-form text,
// filtering common English noise and deduplicating while preserving
// discovery order.
func ExtractTickers(text string) []string {
	matches := tickerPattern.FindAllString(strings.ToUpper(text), -1)

	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, t := range matches {
		if len(t) < 2 {
			continue
		}
		if _, noisy := noiseWords[t]; noisy {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// NormalizePrice converts pence-quoted UK prices to pounds. London-listed
// symbols and GBp/GBX-denominated quotes report prices in pence; a quote
// already denominated in GBP is left alone.
func NormalizePrice(price float64, symbol, currency string) float64 {
	if currency == "GBP" {
		return price
	}
	if strings.HasSuffix(symbol, ".L") || currency == "GBp" || currency == "GBX" {
		return price / 100
	}
	return price
}

// Normalize applies NormalizePrice to a candidate in place, rewriting the
// currency to GBP when a conversion happened so the normalization never
// runs twice.
func Normalize(c *model.Candidate) {
	price := NormalizePrice(c.Price, c.Symbol, c.Currency)
	if price != c.Price {
		c.Currency = "GBP"
	}
	c.Price = price
}

// ResolveSuffix appends the correct exchange suffix for non-US regions,
// trying each regional suffix in priority order until the market data
// provider reports a positive market cap. The raw symbol is returned
// unchanged when nothing resolves or it already carries a suffix.
func ResolveSuffix(ctx context.Context, market service.MarketData, symbol, region string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}

	suffixes, ok := regionSuffixes[region]
	if !ok || (len(suffixes) == 1 && suffixes[0] == "") {
		return symbol
	}

	for _, suffix := range suffixes {
		candidate := symbol + suffix
		attrs, err := market.GetAttributes(ctx, candidate)
		if err != nil {
			continue
		}
		if attrs.MarketCap > 0 {
			return candidate
		}
	}
	return symbol
}
