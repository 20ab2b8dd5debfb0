package accessor

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-l3bin/internal/dtype"
	"github.com/robert-malhotra/go-l3bin/store"
)

var (
	// ErrFormat is returned when a product does not have the expected layout.
	ErrFormat = errors.New("binned: invalid product format")

	// ErrCorruptIndex is returned when the sparse index variables contradict
	// each other. It wraps ErrFormat.
	ErrCorruptIndex = fmt.Errorf("%w: corrupt sparse index", ErrFormat)

	// ErrClosed is returned by an accessor after Close.
	ErrClosed = errors.New("binned: closed")
)

// Names of the sparse index variables.
const (
	BinNumVar = "bl_bin_num"
	BeginVar  = "bi_begin"
	ExtentVar = "bi_extent"
)

// IsIndexVariable reports whether name is one of the index variables of a
// binned product rather than a band.
func IsIndexVariable(name string) bool {
	switch name {
	case BinNumVar, BeginVar, ExtentVar, "bl_nobs", "bl_nscenes", "bl_weights",
		"bl_time_rec", "bi_row_num", "bi_vsize", "bi_hsize", "bi_start_num",
		"bi_max", "bi_lat", "bi_lon":
		return true
	}
	return false
}

// HasSparseIndex reports whether s carries all three sparse index variables.
func HasSparseIndex(s store.Store) bool {
	for _, name := range []string{BinNumVar, BeginVar, ExtentVar} {
		if _, ok := s.Variable(name); !ok {
			return false
		}
	}
	return true
}

// Accessor reads grid rows of a binned product. The only implementations are
// *Dense and *Sparse.
type Accessor interface {
	// Kind returns "dense" or "sparse".
	Kind() string

	// HasRow reports whether row may hold values.
	HasRow(row int) bool

	// StartBinIndex returns the first position of row to visit for pixel
	// columns starting at x0.
	StartBinIndex(row, x0 int) int

	// EndBinIndex returns the position past the last one of row to visit for
	// pixel columns [x0, x0+width).
	EndBinIndex(row, x0, width int) int

	// RowValues returns the values of row indexed by position. The returned
	// slice may be shared with the cache and must not be modified.
	RowValues(row int, src *Source) ([]float32, error)

	// BinIndexInGrid returns the global bin id at position pos of row.
	BinIndexInGrid(pos, row int) int64

	// ValueOf returns the value of a single bin. ok is false if the product
	// stores nothing for the bin.
	ValueOf(bin int64, src *Source) (v float32, ok bool, err error)

	// Close releases the index and the cache. It is safe to call more than
	// once.
	Close() error

	sealed()
}

// WholeArray is the row of the cache key under which a dense accessor keeps
// the complete band.
const WholeArray = -1

// Key identifies a cached row.
type Key struct {
	Band string
	Row  int
}

// Cache stores row values. *linecache.Cache[Key, []float32] implements it.
type Cache interface {
	Get(Key) ([]float32, bool)
	Put(Key, []float32)
	Close()
}

// NopCache never holds anything.
type NopCache struct{}

func (NopCache) Get(Key) ([]float32, bool) { return nil, false }
func (NopCache) Put(Key, []float32) {}
func (NopCache) Close() {}

// readIndex reads a whole index variable as int64.
func readIndex(s store.Store, name string) ([]int64, error) {
	v, ok := s.Variable(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	raw, err := v.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	values, err := dtype.ToInt64(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, name, err)
	}
	return values, nil
}
