package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// releaseScript deletes the claim only if this owner still holds it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// refreshScript extends the claim only if this owner still holds it.
const refreshScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`

// DefaultTTL bounds how long the claims of a relay that died without
// releasing them keep their outputs.
const DefaultTTL = 30 * time.Second

// Claims implements ports.ClaimRegistry using Redis SET NX, so several relay
// processes sharing one MIDI host never claim the same output.
type Claims struct {
	client *backend.Client
	prefix string
	owner  string
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	order []string
}

// Option configures Claims.
type Option func(*Claims)

// WithPrefix sets the key prefix (default "midirelay:").
func WithPrefix(prefix string) Option {
	return func(c *Claims) {
		c.prefix = prefix
	}
}

// WithTTL expires claims after ttl unless refreshed (default DefaultTTL).
// Zero keeps them until released.
func WithTTL(ttl time.Duration) Option {
	return func(c *Claims) {
		c.ttl = ttl
	}
}

// WithOwner sets the value stored in each claim key.
func WithOwner(owner string) Option {
	return func(c *Claims) {
		c.owner = owner
	}
}

// WithLogger reports claims lost or failed refreshes in KeepAlive.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Claims) {
		c.logger = logger
	}
}

// NewFromClient creates a claim registry on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Claims {
	host, _ := os.Hostname()
	c := &Claims{
		client: client,
		prefix: "midirelay:",
		owner:  fmt.Sprintf("%s-%d-%d", host, os.Getpid(), time.Now().UnixNano()),
		ttl:    DefaultTTL,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New connects to addr, either host:port or a redis:// URL, and checks the
// connection before returning.
func New(ctx context.Context, addr string, opts ...Option) (*Claims, error) {
	options := &backend.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := backend.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis address: %w", err)
		}
		options = parsed
	}
	client := backend.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unreachable at %s: %w", addr, err)
	}
	return NewFromClient(client, opts...), nil
}

// Close closes the underlying client.
func (c *Claims) Close() error {
	return c.client.Close()
}

func (c *Claims) key(output string) string {
	return c.prefix + "claim:" + output
}

// IsClaimed reports whether any owner holds the output.
func (c *Claims) IsClaimed(ctx context.Context, output string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(output)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error checking claim: %w", err)
	}
	return n > 0, nil
}

// Claim acquires the output for this owner.
func (c *Claims) Claim(ctx context.Context, output string) error {
	ok, err := c.client.SetNX(ctx, c.key(output), c.owner, c.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis error claiming output: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrClaimed, output)
	}

	c.mu.Lock()
	c.order = append(c.order, output)
	c.mu.Unlock()
	return nil
}

// Release frees the output if this owner holds it.
func (c *Claims) Release(ctx context.Context, output string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, name := range c.order {
		if name == output {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	if err := c.client.Eval(ctx, releaseScript, []string{c.key(output)}, c.owner).Err(); err != nil {
		return fmt.Errorf("redis error releasing claim: %w", err)
	}
	c.order = append(c.order[:idx], c.order[idx+1:]...)
	return nil
}

// Claimed lists outputs claimed through this registry, in claim order.
func (c *Claims) Claimed(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out, nil
}

// Refresh resets the TTL of every claim this registry holds. Claims that
// expired or were taken over meanwhile are reported with domain.ErrClaimed.
func (c *Claims) Refresh(ctx context.Context) error {
	if c.ttl <= 0 {
		return nil
	}
	held, _ := c.Claimed(ctx)
	var errs []error
	for _, output := range held {
		n, err := c.client.Eval(ctx, refreshScript, []string{c.key(output)}, c.owner, c.ttl.Milliseconds()).Int64()
		if err != nil {
			errs = append(errs, fmt.Errorf("redis error refreshing claim: %w", err))
			continue
		}
		if n == 0 {
			errs = append(errs, fmt.Errorf("%w: %s lost", domain.ErrClaimed, output))
		}
	}
	return errors.Join(errs...)
}

// KeepAlive refreshes held claims every third of the TTL until ctx is done.
// It returns immediately when claims never expire.
func (c *Claims) KeepAlive(ctx context.Context) {
	if c.ttl <= 0 {
		return
	}
	interval := c.ttl / 3
	if interval <= 0 {
		interval = c.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("Error refreshing claims", "error", err)
			}
		}
	}
}
