// Package accessor reads the values of one grid row at a time from a binned
// product, in either of the two storage layouts.
//
// # Layouts
//
// A dense product stores one value per bin of the grid, so the values of row r
// are the slice [FirstBinIndex(r), FirstBinIndex(r)+NumCols(r)) of each band
// variable. A sparse product stores only the bins that received data. Three
// index variables describe it:
//
//	bl_bin_num[i]  global bin id of stored element i
//	bi_begin[r]    1-based position in bl_bin_num of the first element of row r,
//	               or 0 if row r holds no data
//	bi_extent[r]   number of elements stored for row r
//
// # Positions
//
// Both layouts expose a row as the positions [StartBinIndex, EndBinIndex).
// For [Dense] a position is an in-row column, for [Sparse] it is an offset
// into the stored run of the row. [Accessor.BinIndexInGrid] maps a position
// back to a global bin id.
//
// # Caching
//
// Row values are kept in a [Cache] keyed by band and row. Dense accessors
// cache the whole band under [WholeArray]; sparse accessors cache each row.
// [NopCache] disables caching.
package accessor

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'l3bin.accessor'
func tracer() tracing.Trace {
	return tracing.Select("l3bin.accessor")
}
