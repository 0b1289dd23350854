// Package discovery finds candidate tickers by merging a systematic screen
// over curated per-region seed lists with trending signals extracted from
// web search.
package discovery

// seedPools is the curated per-region universe of micro-cap-heavy symbols.
// Trending search results get merged into these before screening, so the
// screen still benefits from web-sourced discovery.
var seedPools = map[string][]string{
	"USA": {
		"BSFC", "CEAD", "STRM", "GHSI", "INBS", "TTOO", "ARDS", "APRE",
		"WBUY", "SLNH", "PKBO", "SNCE", "TPST", "EDBL", "SOPA", "RCAT",
		"BMEA", "JCSE", "PROC", "VBLT", "ATHE", "SXTC", "REVB", "NUVB",
		"HNVR", "COYA", "MNTS", "GWAV", "AEHL", "REBN",
	},
	"UK": {
		"AFC.L", "BOTB.L", "CML.L", "DUKE.L", "FLO.L", "GAW.L",
		"JET2.L", "KIE.L", "PURP.L", "SDI.L", "TET.L", "WINK.L",
	},
	"Canada": {
		"QUIS.V", "NCI.TO", "CHE.UN.TO", "TVE.TO", "CJ.TO",
		"BYL.V", "FPC.TO", "GBR.V", "RHC.V", "STC.V",
	},
	"Australia": {
		"VUL.AX", "PEN.AX", "LKE.AX", "NVX.AX", "RNU.AX",
		"SYA.AX", "GL1.AX", "EMN.AX", "BRK.AX", "ADN.AX",
	},
}

// regionSuffixes lists exchange suffixes to try when resolving a bare
// manual ticker, in priority order.
var regionSuffixes = map[string][]string{
	"USA":       {""},
	"UK":        {".L"},
	"Canada":    {".TO", ".V"},
	"Australia": {".AX"},
}

// trendingQueries is the fixed menu of query templates for the trending
// prong; one is chosen at random per discovery pass.
var trendingQueries = []string{
	"best undervalued microcap stocks %s 2026",
	"hidden gem penny stocks %s insider buying",
	"small cap stocks breaking out %s this week",
	"reddit microcap stocks %s deep value",
	"unusual volume small cap %s today",
}

// Regions returns the region keys with a configured seed pool.
func Regions() []string {
	return []string{"USA", "UK", "Canada", "Australia"}
}

// SeedPool returns a copy of the seed list for a region.
func SeedPool(region string) []string {
	pool := seedPools[region]
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}
