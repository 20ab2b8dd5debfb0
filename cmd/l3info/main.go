// Diagnostic tool for inspecting Level-3 binned products
package main

import (
	"flag"
	"fmt"
	"image"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/geo/s2"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"github.com/robert-malhotra/go-l3bin/binned"
)

var (
	debugFlag  = flag.Bool("debug", false, "trace to stderr")
	bandFlag   = flag.String("band", "", "band to decode")
	regionFlag = flag.String("region", "", "region to decode as x,y,w,h (default: first tile)")
	pointFlag  = flag.String("point", "", "print the band value at lat,lon")
	groupFlag  = flag.String("group", "/", "NetCDF group holding the product")
	rowsFlag   = flag.Int("rows", 0, "override the number of grid rows")
	noCache    = flag.Bool("nocache", false, "disable the row cache")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: l3info [flags] <file.nc>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if *debugFlag {
		tracing.SetTraceSelector(newTraceSelector(tracing.LevelDebug))
	}

	filename := flag.Arg(0)
	opts := []binned.Option{binned.WithGroup(*groupFlag)}
	if *rowsFlag > 0 {
		opts = append(opts, binned.WithNumRows(*rowsFlag))
	}
	if *noCache {
		opts = append(opts, binned.WithoutCache())
	}

	p, err := binned.Open(filename, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to open product: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	printProduct(p)

	if *bandFlag == "" {
		return
	}
	if _, ok := p.Band(*bandFlag); !ok {
		fmt.Fprintf(os.Stderr, "ERROR: no band %q\n", *bandFlag)
		os.Exit(1)
	}
	if *pointFlag != "" {
		if err := printPoint(p, *bandFlag, *pointFlag); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
	}
	if err := printRegion(p, *bandFlag, *regionFlag); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

// traceSelector hands out one Go logger backed tracer per key, all at the
// same level.
type traceSelector struct {
	level tracing.TraceLevel

	mu      sync.Mutex
	tracers map[string]tracing.Trace
}

func newTraceSelector(level tracing.TraceLevel) *traceSelector {
	return &traceSelector{level: level, tracers: make(map[string]tracing.Trace)}
}

func (ts *traceSelector) Select(key string) tracing.Trace {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.tracers[key]
	if !ok {
		t = gologadapter.New()
		t.SetTraceLevel(ts.level)
		ts.tracers[key] = t
	}
	return t
}

func printProduct(p *binned.Product) {
	fmt.Printf("=== Product %s ===\n\n", p.Name())
	fmt.Printf("Type:    %s\n", p.Type())
	fmt.Printf("Layout:  %s\n", p.Layout())
	fmt.Printf("Raster:  %d x %d pixels, %d bins\n", p.Width(), p.Height(), p.NumBins())
	if t := p.StartTime(); !t.IsZero() {
		fmt.Printf("Start:   %s\n", t.Format("2006-01-02 15:04"))
	}
	if t := p.EndTime(); !t.IsZero() {
		fmt.Printf("End:     %s\n", t.Format("2006-01-02 15:04"))
	}
	gc := p.GeoCoding()
	fmt.Printf("Pixel:   %.5f x %.5f degrees\n", gc.PixelSizeX, gc.PixelSizeY)
	fmt.Println()

	fmt.Printf("Bands (%d):\n", len(p.Bands()))
	for _, b := range p.Bands() {
		fmt.Printf("  %-24s %-8s", b.Name, b.DataType)
		if b.NoDataUsed {
			fmt.Printf(" fill=%g", b.FillValue)
		}
		if b.Unit != "" {
			fmt.Printf(" unit=%s", b.Unit)
		}
		if b.Wavelength != 0 {
			fmt.Printf(" wavelength=%d", b.Wavelength)
		}
		fmt.Println()
	}
}

func printPoint(p *binned.Product, band, arg string) error {
	v, err := parseFloats(arg, 2)
	if err != nil {
		return fmt.Errorf("point %q: %w", arg, err)
	}
	ll := s2.LatLngFromDegrees(v[0], v[1])
	value, err := p.ValueAt(band, ll)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s at %s: %g\n", band, ll, value)
	return nil
}

func printRegion(p *binned.Product, band, arg string) error {
	tile := p.PreferredTileSize()
	r := image.Rect(0, 0, tile.X, min(tile.Y, p.Height()))
	if arg != "" {
		v, err := parseFloats(arg, 4)
		if err != nil {
			return fmt.Errorf("region %q: %w", arg, err)
		}
		x, y, w, h := int(v[0]), int(v[1]), int(v[2]), int(v[3])
		r = image.Rect(x, y, x+w, y+h)
	}

	b, _ := p.Band(band)
	buf, err := p.DecodeRegion(band, r, image.Pt(1, 1), binned.Float32)
	if err != nil {
		return err
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	valid := 0
	for i := 0; i < buf.Len(); i++ {
		v := float64(buf.Float(i))
		if v == b.FillValue || math.IsNaN(v) {
			continue
		}
		valid++
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	fmt.Printf("\nRegion %v of %s:\n", r, band)
	fmt.Printf("  Pixels: %d, valid: %d\n", buf.Len(), valid)
	if valid > 0 {
		fmt.Printf("  Min: %g, max: %g\n", lo, hi)
	}
	return nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated values", n)
	}
	out := make([]float64, n)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
