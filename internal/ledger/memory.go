package ledger

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory seen-ticker store. It backs tests and serves as
// the fail-open fallback when the on-disk ledger cannot be opened.
type Memory struct {
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
}

// NewMemory creates an empty in-memory store with the default TTL.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
}

// Load returns entries younger than the TTL, pruning the rest.
func (m *Memory) Load(_ context.Context) map[string]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.ttl)
	out := make(map[string]time.Time, len(m.entries))
	for symbol, ts := range m.entries {
		if ts.Before(cutoff) {
			delete(m.entries, symbol)
			continue
		}
		out[symbol] = ts
	}
	return out
}

// MarkSeen sets or refreshes the symbol's timestamp to now.
func (m *Memory) MarkSeen(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[symbol] = m.now()
	return nil
}

// Forget removes a symbol.
func (m *Memory) Forget(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, symbol)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
