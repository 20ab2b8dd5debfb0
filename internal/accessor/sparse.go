package accessor

import (
	"fmt"
	"sync"

	"github.com/robert-malhotra/go-l3bin/internal/grid"
	"github.com/robert-malhotra/go-l3bin/store"
)

// Sparse reads products that store only the bins holding data.
type Sparse struct {
	grid    *grid.Grid
	cache   Cache
	binNums []int64
	begin   []int64
	extent  []int64

	mu     sync.RWMutex
	index  map[int64]int // bin id -> first position in binNums
	closed bool
}

// NewSparse reads the index variables of s and builds the bin index. A nil
// cache disables caching.
func NewSparse(g *grid.Grid, s store.Store, cache Cache) (*Sparse, error) {
	if cache == nil {
		cache = NopCache{}
	}
	binNums, err := readIndex(s, BinNumVar)
	if err != nil {
		return nil, err
	}
	begin, err := readIndex(s, BeginVar)
	if err != nil {
		return nil, err
	}
	extent, err := readIndex(s, ExtentVar)
	if err != nil {
		return nil, err
	}
	if len(begin) != len(extent) {
		return nil, fmt.Errorf("%w: %s has %d rows, %s has %d",
			ErrCorruptIndex, BeginVar, len(begin), ExtentVar, len(extent))
	}
	if len(begin) < g.NumRows() {
		tracer().Infof("accessor: sparse index covers %d of %d rows", len(begin), g.NumRows())
	}

	index := make(map[int64]int, len(binNums))
	for i, bin := range binNums {
		if _, ok := index[bin]; !ok {
			index[bin] = i
		}
	}
	tracer().Debugf("accessor: sparse index holds %d bins", len(index))

	return &Sparse{
		grid:    g,
		cache:   cache,
		binNums: binNums,
		begin:   begin,
		extent:  extent,
		index:   index,
	}, nil
}

func (sp *Sparse) sealed() {}

// Kind implements Accessor.
func (sp *Sparse) Kind() string { return "sparse" }

// NumStored returns the number of stored bins. It is 0 once the accessor is
// closed.
func (sp *Sparse) NumStored() int {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return len(sp.binNums)
}

// HasRow implements Accessor.
func (sp *Sparse) HasRow(row int) bool {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.hasRow(row)
}

// hasRow is HasRow for callers holding sp.mu.
func (sp *Sparse) hasRow(row int) bool {
	return sp.grid.ValidRow(row) && row < len(sp.begin) && sp.begin[row] != 0 && sp.extent[row] > 0
}

// StartBinIndex implements Accessor.
func (sp *Sparse) StartBinIndex(row, x0 int) int { return 0 }

// EndBinIndex implements Accessor.
func (sp *Sparse) EndBinIndex(row, x0, width int) int {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	if !sp.hasRow(row) {
		return 0
	}
	return int(sp.extent[row])
}

// BinIndexInGrid implements Accessor.
func (sp *Sparse) BinIndexInGrid(pos, row int) int64 {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	if !sp.hasRow(row) {
		return -1
	}
	i := int(sp.begin[row]-1) + pos
	if i < 0 || i >= len(sp.binNums) {
		return -1
	}
	return sp.binNums[i]
}

// rowStart returns the position in binNums of the first bin of row and checks
// it against the bin index. Callers hold sp.mu.
func (sp *Sparse) rowStart(row int) (int, error) {
	start := sp.begin[row] - 1
	n := sp.extent[row]
	if start < 0 || n < 0 || start+n > int64(len(sp.binNums)) {
		return 0, fmt.Errorf("%w: row %d spans [%d:%d] of %d stored bins",
			ErrCorruptIndex, row, start, start+n, len(sp.binNums))
	}
	pos, ok := sp.index[sp.binNums[start]]
	if !ok || int64(pos) != start {
		return 0, fmt.Errorf("%w: row %d starts at %d, bin %d is indexed at %d",
			ErrCorruptIndex, row, start, sp.binNums[start], pos)
	}
	return int(start), nil
}

// RowValues implements Accessor. Rows without data return nil and never
// touch the store.
func (sp *Sparse) RowValues(row int, src *Source) ([]float32, error) {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	if sp.closed {
		return nil, ErrClosed
	}
	if !sp.hasRow(row) {
		return nil, nil
	}
	return sp.rowValues(row, src)
}

func (sp *Sparse) rowValues(row int, src *Source) ([]float32, error) {
	key := Key{Band: src.Band(), Row: row}
	if values, ok := sp.cache.Get(key); ok {
		return values, nil
	}
	start, err := sp.rowStart(row)
	if err != nil {
		return nil, err
	}
	values, err := src.read(start, int(sp.extent[row]))
	if err != nil {
		return nil, err
	}
	sp.cache.Put(key, values)
	return values, nil
}

// ValueOf implements Accessor.
func (sp *Sparse) ValueOf(bin int64, src *Source) (float32, bool, error) {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	if sp.closed {
		return src.Fill(), false, ErrClosed
	}
	pos, ok := sp.index[bin]
	if !ok {
		return src.Fill(), false, nil
	}

	// Serve the lookup from the row when the bin lies in its stored run, so
	// that neighbouring probes share one read.
	if row, err := sp.grid.RowOf(bin); err == nil && sp.hasRow(row) {
		start := int(sp.begin[row] - 1)
		if pos >= start && pos < start+int(sp.extent[row]) {
			values, err := sp.rowValues(row, src)
			if err != nil {
				return src.Fill(), false, err
			}
			return values[pos-start], true, nil
		}
	}
	values, err := src.read(pos, 1)
	if err != nil {
		return src.Fill(), false, err
	}
	return values[0], true, nil
}

// Close implements Accessor. It drops the bin index and the index arrays.
func (sp *Sparse) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.closed {
		return nil
	}
	sp.closed = true
	sp.index = nil
	sp.binNums, sp.begin, sp.extent = nil, nil, nil
	sp.cache.Close()
	return nil
}
