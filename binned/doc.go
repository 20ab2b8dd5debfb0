/*
Package binned reads Level-3 binned satellite products and renders their bands
as plate carrée rasters.

A binned product attaches geophysical values (chlorophyll, reflectances, ...)
to the bins of a global equal-area grid. Products come in two layouts: dense
products store one value per bin, sparse products store only the bins that
received data, together with a row index (bl_bin_num, bi_begin, bi_extent).
The layout is detected when the product is opened.

# Basic Usage

	p, err := binned.Open("A2024001.L3b_DAY_CHL.nc")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	for _, b := range p.Bands() {
		fmt.Println(b.Name, b.Unit)
	}

	// decode a 512 x 256 pixel window of band chlor_a
	buf, err := p.DecodeRegion("chlor_a", image.Rect(0, 0, 512, 256), image.Pt(1, 1), binned.Float32)

The raster of a product with H grid rows is 2H x H pixels, with pixel (0, 0) at
longitude -180, latitude +90. Pixels not covered by any stored bin hold the
fill value of the band.

# Caching

Decoded rows are cached for a short time (two seconds by default) so that
neighbouring tiles requested in quick succession share store reads. See
[WithCacheTTL] and [WithoutCache].

# Concurrency

A [Product] is safe for concurrent use. Reads from the underlying store are
serialised through one mutex per product.
*/
package binned

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'l3bin.binned'
func tracer() tracing.Trace {
	return tracing.Select("l3bin.binned")
}
