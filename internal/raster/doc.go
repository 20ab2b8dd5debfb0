// Package raster paints the bins of a binned product onto a plate carrée
// pixel raster.
//
// The raster of a grid with H rows is 2H pixels wide and H pixels high. Pixel
// row y shows grid row H-y-1, so north is up. Every bin covers one or more
// whole pixel columns; see grid.Grid.PixelSpanForBin.
//
// [Assemble] fills a caller-owned [Buffer] for one rectangular region. Pixels
// that no stored bin covers keep the fill value of the band.
package raster

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'l3bin.raster'
func tracer() tracing.Trace {
	return tracing.Select("l3bin.raster")
}
