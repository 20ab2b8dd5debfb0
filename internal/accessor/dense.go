package accessor

import (
	"fmt"
	"sync/atomic"

	"github.com/robert-malhotra/go-l3bin/internal/grid"
	"github.com/robert-malhotra/go-l3bin/store"
)

// Dense reads products that store one value per grid bin.
type Dense struct {
	grid   *grid.Grid
	cache  Cache
	begin  []int64 // optional bi_begin, nil if absent
	closed atomic.Bool
}

// NewDense creates a dense accessor for g. If s carries a bi_begin variable
// with one entry per row, rows whose entry is 0 are reported empty. A nil
// cache disables caching.
func NewDense(g *grid.Grid, s store.Store, cache Cache) (*Dense, error) {
	if cache == nil {
		cache = NopCache{}
	}
	d := &Dense{grid: g, cache: cache}
	if _, ok := s.Variable(BeginVar); ok {
		begin, err := readIndex(s, BeginVar)
		if err != nil {
			return nil, err
		}
		if len(begin) == g.NumRows() {
			d.begin = begin
		} else {
			tracer().Infof("accessor: ignoring %s of length %d for %d rows", BeginVar, len(begin), g.NumRows())
		}
	}
	return d, nil
}

func (d *Dense) sealed() {}

// Kind implements Accessor.
func (d *Dense) Kind() string { return "dense" }

// HasRow implements Accessor.
func (d *Dense) HasRow(row int) bool {
	if !d.grid.ValidRow(row) {
		return false
	}
	return d.begin == nil || d.begin[row] != 0
}

// StartBinIndex implements Accessor.
func (d *Dense) StartBinIndex(row, x0 int) int {
	start, _, err := d.grid.ColumnRange(row, x0, 1)
	if err != nil {
		return 0
	}
	return start
}

// EndBinIndex implements Accessor.
func (d *Dense) EndBinIndex(row, x0, width int) int {
	_, end, err := d.grid.ColumnRange(row, x0, width)
	if err != nil {
		return 0
	}
	return end
}

// BinIndexInGrid implements Accessor.
func (d *Dense) BinIndexInGrid(pos, row int) int64 {
	first, err := d.grid.FirstBinIndex(row)
	if err != nil {
		return -1
	}
	return first + int64(pos)
}

// RowValues implements Accessor. The values of all rows come from one read of
// the whole band.
func (d *Dense) RowValues(row int, src *Source) ([]float32, error) {
	n, err := d.grid.NumCols(row)
	if err != nil {
		return nil, err
	}
	first, _ := d.grid.FirstBinIndex(row)
	all, err := d.band(src)
	if err != nil {
		return nil, err
	}
	end := first + int64(n)
	if end > int64(len(all)) {
		return nil, fmt.Errorf("%w: band %s holds %d values, row %d ends at bin %d",
			ErrFormat, src.Band(), len(all), row, end)
	}
	return all[first:end:end], nil
}

// ValueOf implements Accessor.
func (d *Dense) ValueOf(bin int64, src *Source) (float32, bool, error) {
	if bin < 0 || bin >= d.grid.NumBins() {
		return src.Fill(), false, fmt.Errorf("%w: %d", grid.ErrBinIndex, bin)
	}
	all, err := d.band(src)
	if err != nil {
		return src.Fill(), false, err
	}
	if bin >= int64(len(all)) {
		return src.Fill(), false, nil
	}
	return all[bin], true, nil
}

func (d *Dense) band(src *Source) ([]float32, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	key := Key{Band: src.Band(), Row: WholeArray}
	if values, ok := d.cache.Get(key); ok {
		return values, nil
	}
	values, err := src.read(0, src.Len())
	if err != nil {
		return nil, err
	}
	tracer().Debugf("accessor: read %d values of band %s", len(values), src.Band())
	d.cache.Put(key, values)
	return values, nil
}

// Close implements Accessor.
func (d *Dense) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	d.cache.Close()
	return nil
}
