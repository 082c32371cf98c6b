package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/midirelay/pkg/domain"
)

// Claims implements ports.ClaimRegistry in memory.
// Safe for concurrent use.
type Claims struct {
	mu    sync.RWMutex
	held  map[string]struct{}
	order []string
}

// NewClaims creates an empty in-memory claim registry.
func NewClaims() *Claims {
	return &Claims{
		held: make(map[string]struct{}),
	}
}

// IsClaimed reports whether the output is held.
func (c *Claims) IsClaimed(ctx context.Context, output string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.held[output]
	return ok, nil
}

// Claim marks the output as held.
func (c *Claims) Claim(ctx context.Context, output string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.held[output]; ok {
		return fmt.Errorf("%w: %s", domain.ErrClaimed, output)
	}
	c.held[output] = struct{}{}
	c.order = append(c.order, output)
	return nil
}

// Release frees the output.
func (c *Claims) Release(ctx context.Context, output string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.held[output]; !ok {
		return nil
	}
	delete(c.held, output)
	for i, name := range c.order {
		if name == output {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Claimed lists held outputs in claim order.
func (c *Claims) Claimed(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out, nil
}
