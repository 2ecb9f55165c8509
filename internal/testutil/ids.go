package testutil

import "sync"

// FixedIDs returns predetermined invoice identifiers for testing.
//
// This enables deterministic test execution and golden comparison.
// Tests provide a known sequence of ids and verify exact store output.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDs creates a generator that returns ids in order.
//
// Example:
//
//	gen := testutil.NewFixedIDs("inv-1", "inv-2")
//	gen.NewID() // "inv-1"
//	gen.NewID() // "inv-2"
//	gen.NewID() // panic: all ids exhausted
func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// NewID returns the next predetermined identifier.
//
// Panics when all ids have been consumed. This is a fail-fast approach
// to catch test misconfiguration (test created more records than
// expected).
func (g *FixedIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedIDs: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
