package binned

import (
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/robert-malhotra/go-l3bin/internal/raster"
)

// DataType is the element type of a band or a pixel buffer.
type DataType = raster.DataType

// Data types.
const (
	Float32 = raster.Float32
	Int32   = raster.Int32
	Float64 = raster.Float64
)

// Buffer is a flat row-major pixel buffer filled by DecodeRegionInto.
type Buffer = raster.Buffer

// Buffer implementations.
type (
	Float32Buffer = raster.Float32Buffer
	Int32Buffer   = raster.Int32Buffer
)

// NewBuffer allocates a pixel buffer. Only Float32 and Int32 buffers exist;
// any other data type returns ErrFormat.
func NewBuffer(dt DataType, n int) (Buffer, error) {
	return raster.NewBuffer(dt, n)
}

// Band describes one geophysical band of a product.
type Band struct {
	Name        string
	Description string
	Unit        string

	// FillValue marks pixels without data. NoDataUsed is false if the
	// variable carries no _FillValue attribute, in which case 0 is used.
	FillValue  float64
	NoDataUsed bool

	DataType   DataType
	Wavelength int

	// Variable is the store variable holding the band. AuxIndex is the index
	// along its auxiliary dimension, or -1.
	Variable string
	AuxIndex int
}

// wavelengthFromName returns the first integer part of an underscore
// separated band name, such as 443 for "Rrs_443", or 0.
func wavelengthFromName(name string) int {
	for _, part := range strings.Split(name, "_") {
		if n, err := strconv.Atoi(part); err == nil {
			return n
		}
	}
	return 0
}

// dataTypeFor maps a store element type to the data type of a band.
func dataTypeFor(goType string) DataType {
	switch goType {
	case "float32":
		return Float32
	case "float64":
		return Float64
	}
	return Int32
}

// GeoCoding maps pixel coordinates to geographic coordinates. Products use a
// WGS84 plate carrée with the upper left corner of pixel (0, 0) at
// (Easting, Northing).
type GeoCoding struct {
	Width, Height int
	Easting       float64
	Northing      float64
	PixelSizeX    float64
	PixelSizeY    float64
}

func newGeoCoding(width, height int) GeoCoding {
	return GeoCoding{
		Width:      width,
		Height:     height,
		Easting:    -180,
		Northing:   90,
		PixelSizeX: 360 / float64(width),
		PixelSizeY: 180 / float64(height),
	}
}

// LatLng returns the geographic position of image coordinates (x, y). Pixel
// centres lie at half-integer coordinates.
func (gc GeoCoding) LatLng(x, y float64) s2.LatLng {
	return s2.LatLng{
		Lat: s1.Angle(gc.Northing-y*gc.PixelSizeY) * s1.Degree,
		Lng: s1.Angle(gc.Easting+x*gc.PixelSizeX) * s1.Degree,
	}
}

// Pixel returns the image coordinates of ll.
func (gc GeoCoding) Pixel(ll s2.LatLng) (x, y float64) {
	ll = ll.Normalized()
	x = (ll.Lng.Degrees() - gc.Easting) / gc.PixelSizeX
	y = (gc.Northing - ll.Lat.Degrees()) / gc.PixelSizeY
	return x, y
}

// PixelAt returns the pixel containing ll, clamped to the image.
func (gc GeoCoding) PixelAt(ll s2.LatLng) (x, y int) {
	fx, fy := gc.Pixel(ll)
	x = int(math.Floor(fx))
	y = int(math.Floor(fy))
	x = min(max(x, 0), gc.Width-1)
	y = min(max(y, 0), gc.Height-1)
	return x, y
}
