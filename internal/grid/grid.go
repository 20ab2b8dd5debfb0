package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// DefaultNumRows is the row count of the standard 9.28 km product grid.
const DefaultNumRows = 2160

var (
	// ErrRowIndex is returned when a row lies outside [0, NumRows).
	ErrRowIndex = errors.New("grid: row index out of range")

	// ErrBinIndex is returned when a bin id lies outside the grid.
	ErrBinIndex = errors.New("grid: bin index out of range")
)

// Grid is an immutable equal-area grid. It is safe for concurrent use.
type Grid struct {
	numRows int
	numCols []int
	baseBin []int64
	latBin  []float64
	numBins int64
}

// New creates the standard equal-area grid with numRows latitude rows.
// numRows must be even and at least 2.
func New(numRows int) (*Grid, error) {
	if numRows < 2 {
		return nil, fmt.Errorf("grid: numRows must be >= 2, got %d", numRows)
	}
	if numRows%2 != 0 {
		return nil, fmt.Errorf("grid: numRows must be even, got %d", numRows)
	}

	counts := make([]int, numRows)
	for row := range counts {
		lat := rowLatitude(row, numRows)
		counts[row] = int(2*float64(numRows)*math.Cos(lat*math.Pi/180) + 0.5)
	}
	return FromCounts(counts)
}

// FromCounts creates a grid whose row r holds counts[r] bins.
func FromCounts(counts []int) (*Grid, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("grid: no rows")
	}

	g := &Grid{
		numRows: len(counts),
		numCols: make([]int, len(counts)),
		baseBin: make([]int64, len(counts)),
		latBin:  make([]float64, len(counts)),
	}
	var base int64
	for row, n := range counts {
		if n <= 0 {
			return nil, fmt.Errorf("grid: row %d has %d bins", row, n)
		}
		g.numCols[row] = n
		g.baseBin[row] = base
		g.latBin[row] = rowLatitude(row, len(counts))
		base += int64(n)
	}
	g.numBins = base
	return g, nil
}

func rowLatitude(row, numRows int) float64 {
	return (float64(row)+0.5)*180/float64(numRows) - 90
}

// NumRows returns the number of latitude rows.
func (g *Grid) NumRows() int { return g.numRows }

// NumBins returns the total number of bins.
func (g *Grid) NumBins() int64 { return g.numBins }

// Width returns the width in pixels of the raster the grid is rendered onto.
func (g *Grid) Width() int { return 2 * g.numRows }

// Height returns the height in pixels of the raster the grid is rendered onto.
func (g *Grid) Height() int { return g.numRows }

// PixelSizeX returns the longitude extent of one pixel in degrees.
func (g *Grid) PixelSizeX() float64 { return 360.0 / float64(g.Width()) }

// PixelSizeY returns the latitude extent of one pixel in degrees.
func (g *Grid) PixelSizeY() float64 { return 180.0 / float64(g.numRows) }

// ValidRow reports whether row lies inside the grid.
func (g *Grid) ValidRow(row int) bool {
	return row >= 0 && row < g.numRows
}

// NumCols returns the number of bins in row.
func (g *Grid) NumCols(row int) (int, error) {
	if !g.ValidRow(row) {
		return 0, fmt.Errorf("%w: %d", ErrRowIndex, row)
	}
	return g.numCols[row], nil
}

// FirstBinIndex returns the global id of the first bin in row.
func (g *Grid) FirstBinIndex(row int) (int64, error) {
	if !g.ValidRow(row) {
		return 0, fmt.Errorf("%w: %d", ErrRowIndex, row)
	}
	return g.baseBin[row], nil
}

// BinIndexInGrid returns the id of the bin in row that contains the centre of
// pixel column x.
func (g *Grid) BinIndexInGrid(row, x int) (int64, error) {
	if !g.ValidRow(row) {
		return 0, fmt.Errorf("%w: %d", ErrRowIndex, row)
	}
	n := g.numCols[row]
	pixelSize := g.PixelSizeX()
	lon := float64(x)*pixelSize + pixelSize/2
	col := int(math.Floor(lon / (360.0 / float64(n))))
	col = clamp(col, 0, n-1)
	return g.baseBin[row] + int64(col), nil
}

// PixelSpanForBin returns the half-open range [startX, endX) of pixel columns
// touched by bin, which is expected to lie in row.
//
// If the first bin of row is already greater than bin, the bin is located in
// the previous row, whose first bin index is then taken as one past its
// nominal value.
func (g *Grid) PixelSpanForBin(row int, bin int64) (startX, endX int, err error) {
	if !g.ValidRow(row) {
		return 0, 0, fmt.Errorf("%w: %d", ErrRowIndex, row)
	}
	n := g.numCols[row]
	first := g.baseBin[row]
	if first > bin {
		if row == 0 {
			return 0, 0, fmt.Errorf("%w: %d", ErrBinIndex, bin)
		}
		n = g.numCols[row-1]
		first = g.baseBin[row-1] + 1
	}

	binIndexInRow := float64(bin - first)
	extent := 360.0 / float64(n)
	smallest := binIndexInRow * extent
	largest := smallest + extent
	pixelSize := g.PixelSizeX()
	startX = int(math.Floor(smallest / pixelSize))
	endX = int(math.Ceil(largest / pixelSize))
	return startX, endX, nil
}

// ColumnRange returns the half-open range of in-row bin columns whose pixel
// spans may intersect pixel columns [x0, x0+width). The range is padded by one
// column on each side so that rounding never drops an intersecting bin;
// callers clip painted spans to the requested columns anyway.
func (g *Grid) ColumnRange(row, x0, width int) (start, end int, err error) {
	if !g.ValidRow(row) {
		return 0, 0, fmt.Errorf("%w: %d", ErrRowIndex, row)
	}
	n := g.numCols[row]
	if width <= 0 {
		return 0, 0, nil
	}
	pixelSize := g.PixelSizeX()
	binWidth := 360.0 / float64(n)
	left := float64(x0) * pixelSize
	right := float64(x0+width) * pixelSize

	start = clamp(int(math.Floor(left/binWidth))-1, 0, n)
	end = clamp(int(math.Ceil(right/binWidth))+1, 0, n)
	if start > end {
		start = end
	}
	return start, end, nil
}

// RowOf returns the row containing bin.
func (g *Grid) RowOf(bin int64) (int, error) {
	if bin < 0 || bin >= g.numBins {
		return 0, fmt.Errorf("%w: %d", ErrBinIndex, bin)
	}
	// first row whose base exceeds bin, minus one
	row := sort.Search(g.numRows, func(i int) bool {
		return g.baseBin[i] > bin
	}) - 1
	return row, nil
}

// BinAt returns the id of the bin containing ll.
func (g *Grid) BinAt(ll s2.LatLng) int64 {
	ll = ll.Normalized()
	lat := ll.Lat.Degrees()
	lon := ll.Lng.Degrees()

	row := clamp(int((lat+90)*float64(g.numRows)/180), 0, g.numRows-1)
	n := g.numCols[row]
	col := clamp(int((lon+180)*float64(n)/360), 0, n-1)
	return g.baseBin[row] + int64(col)
}

// Center returns the centre of bin.
func (g *Grid) Center(bin int64) (s2.LatLng, error) {
	row, err := g.RowOf(bin)
	if err != nil {
		return s2.LatLng{}, err
	}
	col := bin - g.baseBin[row]
	lon := -180 + (float64(col)+0.5)*360/float64(g.numCols[row])
	return s2.LatLng{
		Lat: s1.Angle(g.latBin[row]) * s1.Degree,
		Lng: s1.Angle(lon) * s1.Degree,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
