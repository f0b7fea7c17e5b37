package referral

import (
	"context"
	"sync"
)

// MemoryProvider is an in-memory referral graph for tests: parents and
// active flags are seeded directly.
type MemoryProvider struct {
	mu     sync.RWMutex
	parent map[string]string
	active map[string]bool
}

// NewMemoryProvider constructs an empty in-memory referral graph.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		parent: make(map[string]string),
		active: make(map[string]bool),
	}
}

// Link records that accountID was referred by parentID.
func (p *MemoryProvider) Link(accountID, parentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parent[accountID] = parentID
}

// MarkActive flags an account as having completed a deposit.
func (p *MemoryProvider) MarkActive(accountID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[accountID] = true
}

func (p *MemoryProvider) Upline(_ context.Context, accountID string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 || maxDepth > MaxUplineDepth {
		maxDepth = MaxUplineDepth
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	visited := map[string]bool{accountID: true}
	chain := make([]string, 0, maxDepth)
	current := accountID

	for len(chain) < maxDepth {
		parent, ok := p.parent[current]
		if !ok || parent == "" || visited[parent] {
			break
		}
		visited[parent] = true
		chain = append(chain, parent)
		current = parent
	}

	return chain, nil
}

func (p *MemoryProvider) ActiveReferralCount(_ context.Context, accountID string) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := 0
	for child, parent := range p.parent {
		if parent == accountID && p.active[child] {
			count++
		}
	}
	return count, nil
}
