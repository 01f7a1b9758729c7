package tx

import "sync"

// NumberGenerator hands out unique, monotonically increasing transaction
// ids from a single shared counter (spec §4.F). Design note §9: this is an
// explicit handle owned by the database context and passed to every new
// Transaction, rather than a package-level global, so multiple databases in
// one process never share a counter.
type NumberGenerator struct {
	mu   sync.Mutex
	next int
}

// NewNumberGenerator returns a generator starting at 1.
func NewNumberGenerator() *NumberGenerator { return &NumberGenerator{} }

func (g *NumberGenerator) next_() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}
