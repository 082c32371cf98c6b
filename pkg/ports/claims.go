package ports

import "context"

// ClaimRegistry tracks which outputs are held by a route.
// An output can be claimed at most once until it is released.
type ClaimRegistry interface {
	// IsClaimed reports whether the output is currently held.
	IsClaimed(ctx context.Context, output string) (bool, error)
	// Claim marks the output as held. It returns domain.ErrClaimed if another
	// route (or process) already holds it.
	Claim(ctx context.Context, output string) error
	// Release frees an output held by this registry. Releasing an output
	// that is not held is a no-op.
	Release(ctx context.Context, output string) error
	// Claimed lists outputs held through this registry, in claim order.
	Claimed(ctx context.Context) ([]string, error)
}
