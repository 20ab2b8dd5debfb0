package binned

import (
	"time"

	"github.com/robert-malhotra/go-l3bin/internal/linecache"
)

// Option configures how a product is opened.
type Option func(*options)

type options struct {
	cacheTTL  time.Duration
	sweep     time.Duration
	noCache   bool
	numRows   int
	rowCounts []int
	group     string
}

func defaultOptions() *options {
	return &options{
		cacheTTL: linecache.DefaultTTL,
		sweep:    linecache.DefaultSweepInterval,
		group:    "/",
	}
}

// WithCacheTTL sets how long decoded rows stay cached after they were read.
func WithCacheTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cacheTTL = d
		}
	}
}

// WithSweepInterval sets how often expired rows are dropped from the cache.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sweep = d
		}
	}
}

// WithoutCache disables the row cache. Every decode then reads from the
// store.
func WithoutCache() Option {
	return func(o *options) {
		o.noCache = true
	}
}

// WithNumRows overrides the number of grid rows found in the product.
func WithNumRows(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.numRows = n
		}
	}
}

// WithRowCounts uses a grid whose row r holds counts[r] bins instead of the
// standard equal-area layout.
func WithRowCounts(counts []int) Option {
	return func(o *options) {
		o.rowCounts = append([]int(nil), counts...)
	}
}

// WithGroup selects the NetCDF group holding the product variables. It only
// applies to Open.
func WithGroup(name string) Option {
	return func(o *options) {
		o.group = name
	}
}
