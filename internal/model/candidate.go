// Package model defines the core domain types shared across the pipeline.
package model

// Candidate is a single discoverable instrument snapshot, as returned by
// the market data provider. Absent upstream values default to zero, never
// nil, so scoring and validation stay total functions.
type Candidate struct {
	Symbol       string
	Name         string
	Sector       string
	Currency     string
	Price        float64
	MarketCap    float64
	EPS          float64 // trailing earnings per share
	BookValue    float64 // book value per share
	FreeCashflow float64
	TotalCash    float64
	EBITDA       float64
	TotalDebt    float64
	CurrentRatio float64
	PriceToBook  float64
}

// NetDebtToEBITDA returns (debt - cash) / EBITDA, or 0 when EBITDA is not
// positive.
func (c Candidate) NetDebtToEBITDA() float64 {
	if c.EBITDA <= 0 {
		return 0
	}
	return (c.TotalDebt - c.TotalCash) / c.EBITDA
}

// ScoredCandidate is a Candidate plus its 0-100 score and the ordered list
// of score-contribution reasons.
type ScoredCandidate struct {
	Candidate
	Score     int
	Breakdown []string
}

// Metrics holds the advisory valuation computed during validation. It is
// carried into the analyst prompt and the final report; it never causes a
// rejection on its own.
type Metrics struct {
	Sector         string
	Price          float64
	MarketCap      float64
	IntrinsicValue float64
	MarginOfSafety string
}
