package binned

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robert-malhotra/go-l3bin/internal/accessor"
	"github.com/robert-malhotra/go-l3bin/internal/dtype"
	"github.com/robert-malhotra/go-l3bin/internal/grid"
	"github.com/robert-malhotra/go-l3bin/internal/linecache"
	"github.com/robert-malhotra/go-l3bin/store"
)

// AutoGrouping is the band grouping pattern of ocean colour products.
const AutoGrouping = "adg:aph:atot:bbp:bl_Rrs:chlor_a:Rrs:water"

// TileHeight is the height of the preferred decode tile.
const TileHeight = 64

const timeLayout = "200601021504"

type bandEntry struct {
	band Band
	src  *accessor.Source
}

// Product is an open binned product.
type Product struct {
	name        string
	productType string
	grid        *grid.Grid
	store       store.Store
	acc         accessor.Accessor
	bands       []*bandEntry
	byName      map[string]*bandEntry
	start, end  time.Time
	metadata    map[string]interface{}
	geo         GeoCoding

	mu     sync.RWMutex
	closed bool
}

// Open opens the binned product stored in the NetCDF file at path.
func Open(path string, opts ...Option) (*Product, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	nc, err := store.OpenNetCDFGroup(path, o.group)
	if err != nil {
		return nil, fmt.Errorf("opening product: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return OpenStore(nc, name, opts...)
}

// OpenStore opens the binned product held by s. The product owns s from then
// on: s is closed when the product is closed or when opening fails.
func OpenStore(s store.Store, name string, opts ...Option) (p *Product, err error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	s = store.Synchronize(s)
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	g, err := gridFor(s, o)
	if err != nil {
		return nil, err
	}

	var cache accessor.Cache = accessor.NopCache{}
	if !o.noCache {
		cache = linecache.New[accessor.Key, []float32](
			linecache.WithTTL(o.cacheTTL),
			linecache.WithSweepInterval(o.sweep),
		)
	}
	var acc accessor.Accessor
	if accessor.HasSparseIndex(s) {
		acc, err = accessor.NewSparse(g, s, cache)
	} else {
		acc, err = accessor.NewDense(g, s, cache)
	}
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("reading index of %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			acc.Close()
		}
	}()

	entries, err := discoverBands(s)
	if err != nil {
		return nil, fmt.Errorf("reading bands of %s: %w", name, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoBands, name)
	}

	p = &Product{
		name:     name,
		grid:     g,
		store:    s,
		acc:      acc,
		bands:    entries,
		byName:   make(map[string]*bandEntry, len(entries)),
		geo:      newGeoCoding(g.Width(), g.Height()),
		metadata: readMetadata(s),
	}
	for _, e := range entries {
		p.byName[e.band.Name] = e
	}
	if title, ok := s.Attribute("title"); ok {
		p.productType, _ = dtype.String(title)
	}
	p.start = parseTime(s, "time_coverage_start")
	p.end = parseTime(s, "time_coverage_end")

	tracer().Infof("binned: opened %s: %s grid of %d rows, %d bands", name, acc.Kind(), g.NumRows(), len(entries))
	return p, nil
}

// gridFor builds the grid of s. Explicit options win over the row count
// recorded in the product.
func gridFor(s store.Store, o *options) (*grid.Grid, error) {
	if len(o.rowCounts) > 0 {
		return grid.FromCounts(o.rowCounts)
	}
	if o.numRows > 0 {
		return grid.New(o.numRows)
	}
	return grid.New(numRowsOf(s))
}

// numRowsOf returns the number of grid rows recorded in s: the
// number_of_latitude_rows attribute of a "1D binned sinusoidal" grid mapping
// variable, else the length of the bin_index dimension, else the default.
func numRowsOf(s store.Store) int {
	for _, name := range s.Variables() {
		v, ok := s.Variable(name)
		if !ok {
			continue
		}
		mapping, ok := v.Attribute("grid_mapping_name")
		if !ok {
			continue
		}
		if m, _ := dtype.String(mapping); !strings.EqualFold(m, "1D binned sinusoidal") {
			continue
		}
		if raw, ok := v.Attribute("number_of_latitude_rows"); ok {
			if n, ok := dtype.Float64(raw); ok && n > 0 {
				return int(n)
			}
		}
		break
	}
	for _, d := range s.Dimensions() {
		if d.Name == "bin_index" && d.Len > 0 {
			return d.Len
		}
	}
	return grid.DefaultNumRows
}

// discoverBands returns a band for every variable laid out along the largest
// dimension of s. Multi-dimensional variables may have one further dimension
// longer than 1; they yield one band per index along it, suffixed "_<index>".
func discoverBands(s store.Store) ([]*bandEntry, error) {
	largest := 0
	for _, d := range s.Dimensions() {
		largest = max(largest, d.Len)
	}
	if largest == 0 {
		return nil, nil
	}

	var entries []*bandEntry
	for _, name := range s.Variables() {
		if accessor.IsIndexVariable(name) {
			continue
		}
		v, ok := s.Variable(name)
		if !ok {
			continue
		}
		dims := v.Dimensions()
		if len(dims) == 1 {
			if dims[0].Len != largest {
				continue
			}
			e, err := newBandEntry(v, name, 0, -1, -1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
			continue
		}

		binDim, auxDim := -1, -1
		for i, d := range dims {
			switch {
			case d.Len == largest:
				if binDim != -1 {
					return nil, fmt.Errorf("%w: variable %s has two bin dimensions", ErrFormat, name)
				}
				binDim = i
			case d.Len > 1:
				if auxDim != -1 {
					return nil, fmt.Errorf("%w: variable %s has two auxiliary dimensions", ErrFormat, name)
				}
				auxDim = i
			}
		}
		if binDim == -1 {
			continue
		}
		if auxDim == -1 {
			e, err := newBandEntry(v, name, binDim, -1, -1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
			continue
		}
		for i := 0; i < dims[auxDim].Len; i++ {
			e, err := newBandEntry(v, name+"_"+strconv.Itoa(i), binDim, auxDim, i)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func newBandEntry(v store.Variable, name string, binDim, auxDim, auxIndex int) (*bandEntry, error) {
	b := Band{
		Name:       name,
		DataType:   dataTypeFor(v.Type()),
		Wavelength: wavelengthFromName(v.Name()),
		Variable:   v.Name(),
		AuxIndex:   auxIndex,
	}
	for _, attr := range []string{"long_name", "description", "comment"} {
		if raw, ok := v.Attribute(attr); ok {
			if d, ok := dtype.String(raw); ok && d != "" {
				b.Description = d
				break
			}
		}
	}
	if raw, ok := v.Attribute("units"); ok {
		b.Unit, _ = dtype.String(raw)
	}
	if raw, ok := v.Attribute("_FillValue"); ok {
		b.FillValue, b.NoDataUsed = dtype.Float64(raw)
	}

	src, err := accessor.NewSliceSource(name, v, float32(b.FillValue), binDim, auxDim, max(auxIndex, 0))
	if err != nil {
		return nil, err
	}
	return &bandEntry{band: b, src: src}, nil
}

func readMetadata(s store.Store) map[string]interface{} {
	md := make(map[string]interface{})
	for _, name := range s.AttributeNames() {
		raw, ok := s.Attribute(name)
		if !ok {
			continue
		}
		if str, ok := raw.([]byte); ok {
			md[name], _ = dtype.String(str)
			continue
		}
		md[name] = raw
	}
	return md
}

// parseTime reads a time attribute such as "200801011200Z". The last
// character is dropped and the rest parsed as yyyyMMddHHmm; any trailing
// characters beyond the minutes are ignored. A missing or malformed value
// yields the zero time.
func parseTime(s store.Store, attr string) time.Time {
	raw, ok := s.Attribute(attr)
	if !ok {
		return time.Time{}
	}
	str, ok := dtype.String(raw)
	if !ok || str == "" {
		tracer().Errorf("binned: attribute %s is not a string: %v", attr, raw)
		return time.Time{}
	}
	str = str[:len(str)-1]
	if len(str) > len(timeLayout) {
		str = str[:len(timeLayout)]
	}
	t, err := time.Parse(timeLayout, str)
	if err != nil {
		tracer().Errorf("binned: cannot parse %s: %v", attr, err)
		return time.Time{}
	}
	return t
}

// Name returns the product name, by default the file name without extension.
func (p *Product) Name() string { return p.name }

// Type returns the product type taken from the title attribute.
func (p *Product) Type() string { return p.productType }

// Width returns the raster width in pixels.
func (p *Product) Width() int { return p.grid.Width() }

// Height returns the raster height in pixels, which equals the number of grid
// rows.
func (p *Product) Height() int { return p.grid.Height() }

// NumBins returns the number of bins in the grid.
func (p *Product) NumBins() int64 { return p.grid.NumBins() }

// Layout returns "dense" or "sparse".
func (p *Product) Layout() string { return p.acc.Kind() }

// StartTime returns the start of the time coverage. The zero time means the
// product does not record it.
func (p *Product) StartTime() time.Time { return p.start }

// EndTime returns the end of the time coverage.
func (p *Product) EndTime() time.Time { return p.end }

// AutoGrouping returns the band grouping pattern.
func (p *Product) AutoGrouping() string { return AutoGrouping }

// PreferredTileSize returns the tile size decodes are most efficient for: full
// raster rows, TileHeight rows at a time.
func (p *Product) PreferredTileSize() image.Point {
	return image.Pt(p.Width(), TileHeight)
}

// GeoCoding returns the pixel to lat/lon mapping of the raster.
func (p *Product) GeoCoding() GeoCoding { return p.geo }

// Metadata returns the global attributes of the product.
func (p *Product) Metadata() map[string]interface{} {
	md := make(map[string]interface{}, len(p.metadata))
	for k, v := range p.metadata {
		md[k] = v
	}
	return md
}

// Bands returns the bands in storage order.
func (p *Product) Bands() []Band {
	bands := make([]Band, len(p.bands))
	for i, e := range p.bands {
		bands[i] = e.band
	}
	return bands
}

// Band returns the named band.
func (p *Product) Band(name string) (Band, bool) {
	for _, e := range p.bands {
		if e.band.Name == name {
			return e.band, true
		}
	}
	return Band{}, false
}

// Close releases the product and its store. It is safe to call Close more
// than once.
func (p *Product) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.byName = nil

	err := p.acc.Close()
	if serr := p.store.Close(); err == nil {
		err = serr
	}
	tracer().Debugf("binned: closed %s", p.name)
	return err
}
