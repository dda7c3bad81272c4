// Package relay holds the privileged side of cross-context capture: a
// single-slot payload cache and the message broker in front of it.
package relay

import (
	"sync"
	"time"

	"github.com/pders01/cascade/internal/models"
)

// DefaultTTL is how long an unclaimed payload stays in the cache
const DefaultTTL = 5 * time.Second

// Cache holds at most one payload. Take clears it; so does the expiry timer
// of the Set that stored it, but never a newer one.
type Cache struct {
	mu      sync.Mutex
	payload *models.Payload
	gen     uint64
	timer   *time.Timer
	ttl     time.Duration

	onExpire func()
}

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithExpireHook registers fn to run whenever a payload expires unclaimed
func WithExpireHook(fn func()) CacheOption {
	return func(c *Cache) {
		c.onExpire = fn
	}
}

// NewCache returns an empty cache with the given expiry window
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores p, replacing any previous payload, and schedules its expiry
func (c *Cache) Set(p *models.Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	gen := c.gen
	c.payload = p
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.ttl, func() { c.expire(gen) })
}

// Take returns the stored payload and clears the slot
func (c *Cache) Take() (*models.Payload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.payload
	c.payload = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return p, p != nil
}

// SetTTL changes the expiry window for subsequent Set calls
func (c *Cache) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

// TTL returns the current expiry window
func (c *Cache) TTL() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl
}

func (c *Cache) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.payload == nil {
		c.mu.Unlock()
		return
	}
	c.payload = nil
	c.timer = nil
	hook := c.onExpire
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
}
