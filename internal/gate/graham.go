package gate

import "math"

// GrahamNumber computes the classic value-investing fair-value proxy:
// sqrt(22.5 * EPS * book-value-per-share). It is 0 whenever either input
// is non-positive, which downstream code reads as "no intrinsic value
// (unprofitable)".
func GrahamNumber(eps, bookValue float64) float64 {
	if eps <= 0 || bookValue <= 0 {
		return 0
	}
	return math.Sqrt(22.5 * eps * bookValue)
}

// MarginOfSafety returns the fraction by which the Graham number exceeds
// the price, or 0 when no Graham number exists.
func MarginOfSafety(graham, price float64) float64 {
	if graham <= 0 {
		return 0
	}
	return (graham - price) / graham
}
