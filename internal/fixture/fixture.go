// Package fixture builds small synthetic binned products in memory.
package fixture

import (
	"fmt"
	"sort"

	"github.com/robert-malhotra/go-l3bin/internal/grid"
	"github.com/robert-malhotra/go-l3bin/store"
)

// Scenario returns the four-row test grid with 4, 8, 8 and 4 bins per row and
// the values 10..17 in the eight bins of row 1.
func Scenario() (*grid.Grid, map[int64]float32) {
	g, err := grid.FromCounts([]int{4, 8, 8, 4})
	if err != nil {
		panic(err)
	}
	values := make(map[int64]float32)
	for i := 0; i < 8; i++ {
		values[int64(4+i)] = float32(10 + i)
	}
	return g, values
}

// Sparse builds a sparse product over g holding one band with the given bin
// values. Rows without values get bi_begin 0.
func Sparse(g *grid.Grid, band string, fill float32, values map[int64]float32) (*store.Mem, error) {
	bins := sortedBins(values)
	numRows := g.NumRows()
	begin := make([]int32, numRows)
	extent := make([]int32, numRows)
	binNums := make([]int32, len(bins))
	data := make([]float32, len(bins))

	for i, bin := range bins {
		row, err := g.RowOf(bin)
		if err != nil {
			return nil, err
		}
		if extent[row] == 0 {
			begin[row] = int32(i + 1)
		}
		extent[row]++
		binNums[i] = int32(bin)
		data[i] = values[bin]
	}

	m := NewMem(g)
	if err := m.AddVariable(band, []string{"bin_list"}, data, map[string]interface{}{
		"_FillValue": fill,
	}); err != nil {
		return nil, err
	}
	if err := m.AddVariable("bl_bin_num", []string{"bin_list"}, binNums, nil); err != nil {
		return nil, err
	}
	if err := m.AddVariable("bi_begin", []string{"bin_index"}, begin, nil); err != nil {
		return nil, err
	}
	if err := m.AddVariable("bi_extent", []string{"bin_index"}, extent, nil); err != nil {
		return nil, err
	}
	return m, nil
}

// Dense builds a dense product over g holding one band with the given bin
// values. All other bins hold fill.
func Dense(g *grid.Grid, band string, fill float32, values map[int64]float32) (*store.Mem, error) {
	data := make([]float32, g.NumBins())
	for i := range data {
		data[i] = fill
	}
	for bin, v := range values {
		if bin < 0 || bin >= g.NumBins() {
			return nil, fmt.Errorf("fixture: bin %d outside grid", bin)
		}
		data[bin] = v
	}
	m := NewMem(g)
	if err := m.AddVariable(band, []string{"bins"}, data, map[string]interface{}{
		"_FillValue": fill,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMem returns an empty store declaring the bin_index dimension of g.
func NewMem(g *grid.Grid) *store.Mem {
	m := store.NewMem()
	if err := m.AddDimension("bin_index", g.NumRows()); err != nil {
		panic(err)
	}
	return m
}

func sortedBins(values map[int64]float32) []int64 {
	bins := make([]int64, 0, len(values))
	for bin := range values {
		bins = append(bins, bin)
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i] < bins[j] })
	return bins
}
