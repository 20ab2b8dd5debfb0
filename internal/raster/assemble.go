package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/robert-malhotra/go-l3bin/internal/accessor"
	"github.com/robert-malhotra/go-l3bin/internal/grid"
)

var (
	// ErrSubsampling is returned for any step other than (1, 1).
	ErrSubsampling = errors.New("binned: sub-sampling not supported")

	// ErrBufferSize is returned when a buffer does not match its region.
	ErrBufferSize = errors.New("binned: buffer size does not match region")
)

// Request describes one region of one band to paint.
type Request struct {
	Grid     *grid.Grid
	Accessor accessor.Accessor
	Source   *accessor.Source
	Region   image.Rectangle
	Step     image.Point
}

// Assemble paints req.Region into buf, which must hold exactly
// Dx*Dy pixels. Pixel (x, y) of the region is written at index
// Dx*(y-y0) + (x-x0).
func Assemble(req Request, buf Buffer) error {
	if req.Step != image.Pt(1, 1) {
		return fmt.Errorf("%w: step %v", ErrSubsampling, req.Step)
	}
	r := req.Region
	x0, y0 := r.Min.X, r.Min.Y
	w, h := r.Dx(), r.Dy()
	if buf.Len() != w*h {
		return fmt.Errorf("%w: %d pixels for region %v", ErrBufferSize, buf.Len(), r)
	}
	src := req.Source
	buf.Fill(src.Fill())
	if w == 0 || h == 0 {
		return nil
	}
	tracer().Debugf("raster: band %s region %v", src.Band(), r)

	g, a := req.Grid, req.Accessor
	for y := y0; y < y0+h; y++ {
		row := g.NumRows() - y - 1
		if !g.ValidRow(row) || !a.HasRow(row) {
			continue
		}
		values, err := a.RowValues(row, src)
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		offset := w * (y - y0)
		end := a.EndBinIndex(row, x0, w)
		for pos := a.StartBinIndex(row, x0); pos < end; pos++ {
			if pos >= len(values) {
				return fmt.Errorf("%w: row %d: position %d beyond %d values",
					accessor.ErrFormat, row, pos, len(values))
			}
			v := values[pos]
			if src.IsFill(v) {
				continue
			}
			bin := a.BinIndexInGrid(pos, row)
			startX, endX, err := g.PixelSpanForBin(row, bin)
			if err != nil {
				return fmt.Errorf("row %d: bin %d: %w", row, bin, err)
			}
			startX = max(startX, x0)
			endX = min(endX, x0+w)
			for x := startX; x < endX; x++ {
				buf.Set(offset+x-x0, v)
			}
		}
	}
	return nil
}
