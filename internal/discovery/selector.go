package discovery

import "math/rand"

// Selector isolates the random choices discovery makes (query selection,
// pool shuffling) behind an injectable randomness source so tests can
// force deterministic behavior.
type Selector struct {
	rnd *rand.Rand
}

// NewSelector creates a Selector from a rand source.
func NewSelector(src rand.Source) *Selector {
	return &Selector{rnd: rand.New(src)}
}

// Pick returns a random index in [0, n).
func (s *Selector) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return s.rnd.Intn(n)
}

// Shuffle pseudo-randomizes the order of elements.
func (s *Selector) Shuffle(n int, swap func(i, j int)) {
	s.rnd.Shuffle(n, swap)
}
