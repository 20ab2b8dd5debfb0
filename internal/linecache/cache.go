package linecache

import (
	"sync"
	"time"
)

// Default timing of a cache.
const (
	DefaultTTL           = 2 * time.Second
	DefaultSweepInterval = 2 * time.Second
)

// Clock returns the current time.
type Clock func() time.Time

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl   time.Duration
	sweep time.Duration
	clock Clock
}

func defaultOptions() *options {
	return &options{
		ttl:   DefaultTTL,
		sweep: DefaultSweepInterval,
		clock: time.Now,
	}
}

// WithTTL sets how long an entry stays valid after it was inserted.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithSweepInterval sets the period of the background sweep. A value <= 0
// disables the sweep goroutine; expired entries are then only dropped by
// explicit calls to Sweep or on lookup.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweep = d
	}
}

// WithClock replaces the time source.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// Stats holds cache counters.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Expired uint64
	Len     int
}

type entry[V any] struct {
	value   V
	created time.Time
}

// Cache maps keys to values for a limited time. It is safe for concurrent
// use.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]entry[V]
	opts    *options
	stats   Stats
	closed  bool

	stop chan struct{}
	done chan struct{}
}

// New creates a cache and starts its sweep goroutine.
func New[K comparable, V any](opts ...Option) *Cache[K, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	c := &Cache[K, V]{
		entries: make(map[K]entry[V]),
		opts:    o,
	}
	if o.sweep > 0 {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.run(o.sweep)
	}
	return c
}

func (c *Cache[K, V]) run(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				tracer().Debugf("linecache: swept %d expired entries", n)
			}
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[K, V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.created) > c.opts.ttl
}

// Get returns the value stored under k, if it has not expired.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if ok && c.expired(e, c.opts.clock()) {
		delete(c.entries, k)
		c.stats.Expired++
		ok = false
	}
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	return e.value, true
}

// Put stores v under k, replacing any previous entry. Put on a closed cache
// is a no-op.
func (c *Cache[K, V]) Put(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.entries[k] = entry[V]{value: v, created: c.opts.clock()}
}

// Len returns the number of entries, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.opts.clock()
	n := 0
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			n++
		}
	}
	c.stats.Expired += uint64(n)
	return n
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Len = len(c.entries)
	return s
}

// Close stops the sweep goroutine and drops all entries. It is safe to call
// Close more than once.
func (c *Cache[K, V]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.entries = make(map[K]entry[V])
	c.mu.Unlock()

	if c.stop != nil {
		close(c.stop)
		<-c.done
	}
}
