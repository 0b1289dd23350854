// Package common provides shared utilities and types used across the
// application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Discovery errors.
	ErrNoCandidate = errors.New("no candidate found")
	ErrMarketData  = errors.New("market data unavailable")

	// Model gateway errors.
	ErrRateLimit        = errors.New("rate limit exceeded")
	ErrModelNotFound    = errors.New("model not found")
	ErrModelUnavailable = errors.New("all models unavailable")

	// Ledger errors.
	ErrLedgerIO = errors.New("seen-ticker ledger unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Rule identifies which hard validation rule rejected a candidate.
type Rule string

// Validation rules, in the order they are applied.
const (
	RulePriceCeiling  Rule = "price_ceiling"
	RuleMarketCapBand Rule = "market_cap_band"
	RuleSectorHealth  Rule = "sector_health"
)

// RejectionError is a validation verdict: terminal for the symbol,
// non-fatal to the pipeline.
type RejectionError struct {
	Rule   Rule
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("rejected (%s): %s", e.Rule, e.Reason)
}

// AsRejection unwraps err into a RejectionError, or nil if err is of a
// different kind.
func AsRejection(err error) *RejectionError {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej
	}
	return nil
}
