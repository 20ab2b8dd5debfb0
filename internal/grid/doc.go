// Package grid implements the global equal-area grid used by Level-3 binned
// products.
//
// The grid divides the globe into a fixed number of latitude rows. Each row is
// split into a varying number of bins so that every bin covers roughly the same
// surface area: rows near the equator hold many bins, rows near the poles only
// a few. Bins are numbered globally, row after row, starting with bin 0 in row 0.
//
// # Row Layout
//
// For a grid of H rows the standard (SeaWiFS) layout is
//
//	lat(r)     = (r + 0.5) * 180 / H - 90
//	numCols(r) = int(2 * H * cos(lat(r)) + 0.5)
//
// and the first bin of each row is the running sum of the bin counts of all
// previous rows. [FromCounts] builds a grid from explicit per-row counts for
// products that use a non-standard layout.
//
// # Pixel Mapping
//
// A grid of H rows is rendered onto a plate carrée raster of 2H x H pixels.
// A pixel covers 360/(2H) degrees of longitude, a bin in row r covers
// 360/numCols(r) degrees. [Grid.BinIndexInGrid] maps a pixel column to the bin
// containing the pixel centre; [Grid.PixelSpanForBin] maps a bin back to the
// half-open range of pixel columns it touches.
//
// # Key Types
//
//   - [Grid]: immutable row geometry plus pixel and lat/lon conversions
//   - [ErrRowIndex]: returned for rows outside the grid
package grid
