package limiter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cooldown keeps a per-model quota cooldown in Redis and bounds in-process
// concurrency per model. A nil Redis client disables the cooldown but keeps
// the local inflight slots.
type Cooldown struct {
	rdb         *redis.Client
	maxInflight int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	mu          sync.Mutex
	sem         map[string]chan struct{}
	now         func() time.Time
}

type Options struct {
	MaxInflight int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func New(rdb *redis.Client, opts Options) *Cooldown {
	if opts.MaxInflight <= 0 { opts.MaxInflight = 4 }
	if opts.BaseBackoff <= 0 { opts.BaseBackoff = 30 * time.Second }
	if opts.MaxBackoff <= 0 { opts.MaxBackoff = 5 * time.Minute }
	return &Cooldown{
		rdb:         rdb,
		maxInflight: opts.MaxInflight,
		baseBackoff: opts.BaseBackoff,
		maxBackoff:  opts.MaxBackoff,
		sem:         map[string]chan struct{}{},
		now:         time.Now,
	}
}

func (c *Cooldown) key(model string) string {
	return fmt.Sprintf("cd:%s", strings.ToLower(model))
}

// Remaining returns how long the model's cooldown still runs, and whether it is open.
func (c *Cooldown) Remaining(ctx context.Context, model string) (time.Duration, bool) {
	if c.rdb == nil { return 0, false }
	until, err := c.rdb.Get(ctx, c.key(model)).Int64()
	if err != nil { return 0, false }
	rem := time.UnixMilli(until).Sub(c.now())
	if rem <= 0 { return 0, false }
	return rem, true
}

// Open starts or extends the cooldown. The upstream's retry hint is used when
// known; otherwise the backoff doubles per consecutive opening up to maxBackoff.
func (c *Cooldown) Open(ctx context.Context, model string, retryAfterSeconds *int) time.Duration {
	if c.rdb == nil { return 0 }
	k := c.key(model)
	var d time.Duration
	if retryAfterSeconds != nil {
		d = time.Duration(*retryAfterSeconds) * time.Second
	} else {
		attempts, _ := c.rdb.Incr(ctx, k+":attempts").Result()
		if attempts < 1 { attempts = 1 }
		_ = c.rdb.Expire(ctx, k+":attempts", 2*c.maxBackoff).Err()
		d = c.baseBackoff
		for i := int64(1); i < attempts; i++ {
			d *= 2
			if d >= c.maxBackoff {
				d = c.maxBackoff
				break
			}
		}
	}
	if d <= 0 { return 0 }
	until := c.now().Add(d).UnixMilli()
	_ = c.rdb.Set(ctx, k, until, d).Err()
	return d
}

// Close resets the cooldown after a successful call.
func (c *Cooldown) Close(ctx context.Context, model string) {
	if c.rdb == nil { return }
	k := c.key(model)
	_ = c.rdb.Del(ctx, k, k+":attempts").Err()
}

// Allow tries to reserve a local in-process slot for the model.
// Returns a release function and true if allowed; otherwise a no-op and false.
func (c *Cooldown) Allow(model string) (func(), bool) {
	key := strings.ToLower(model)
	c.mu.Lock()
	ch, ok := c.sem[key]
	if !ok {
		ch = make(chan struct{}, c.maxInflight)
		c.sem[key] = ch
	}
	c.mu.Unlock()
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, true
	default:
		return func() {}, false
	}
}
