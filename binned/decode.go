package binned

import (
	"fmt"
	"image"

	"github.com/golang/geo/s2"

	"github.com/robert-malhotra/go-l3bin/internal/raster"
)

// DecodeRegion decodes region r of band into a new buffer of type dt. Only a
// step of (1, 1) is supported.
func (p *Product) DecodeRegion(band string, r image.Rectangle, step image.Point, dt DataType) (Buffer, error) {
	if step != image.Pt(1, 1) {
		return nil, fmt.Errorf("%w: step %v", ErrUnsupportedSubsampling, step)
	}
	r = r.Canon()
	buf, err := NewBuffer(dt, r.Dx()*r.Dy())
	if err != nil {
		return nil, err
	}
	if err := p.DecodeRegionInto(band, r, step, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeRegionInto decodes region r of band into buf, which must hold exactly
// r.Dx()*r.Dy() pixels in row-major order.
func (p *Product) DecodeRegionInto(band string, r image.Rectangle, step image.Point, buf Buffer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	e, ok := p.byName[band]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBand, band)
	}

	err := raster.Assemble(raster.Request{
		Grid:     p.grid,
		Accessor: p.acc,
		Source:   e.src,
		Region:   r.Canon(),
		Step:     step,
	}, buf)
	if err != nil {
		tracer().Errorf("binned: decoding %s %v: %v", band, r, err)
		return fmt.Errorf("decoding band %s: %w", band, err)
	}
	return nil
}

// ValueAt returns the value of band in the bin containing ll, or the fill
// value if the product stores nothing there.
func (p *Product) ValueAt(band string, ll s2.LatLng) (float32, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return 0, ErrClosed
	}
	e, ok := p.byName[band]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBand, band)
	}
	v, _, err := p.acc.ValueOf(p.grid.BinAt(ll), e.src)
	if err != nil {
		return e.src.Fill(), fmt.Errorf("reading band %s at %v: %w", band, ll, err)
	}
	return v, nil
}
