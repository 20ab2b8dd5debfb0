package raster

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/go-l3bin/internal/accessor"
)

// DataType is the element type of a band or a pixel buffer.
type DataType int

// Data types.
const (
	Float32 DataType = iota
	Int32
	Float64
)

func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Float64:
		return "float64"
	}
	return fmt.Sprintf("DataType(%d)", int(dt))
}

// Buffer is a flat row-major pixel buffer.
type Buffer interface {
	DataType() DataType
	Len() int
	Fill(v float32)
	Set(i int, v float32)
	Float(i int) float32
}

// NewBuffer allocates a buffer of n pixels. Only Float32 and Int32 buffers
// exist.
func NewBuffer(dt DataType, n int) (Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("raster: negative buffer size %d", n)
	}
	switch dt {
	case Float32:
		return make(Float32Buffer, n), nil
	case Int32:
		return make(Int32Buffer, n), nil
	}
	return nil, fmt.Errorf("%w: no pixel buffer for data type %s", accessor.ErrFormat, dt)
}

// Float32Buffer holds float32 pixels.
type Float32Buffer []float32

func (b Float32Buffer) DataType() DataType { return Float32 }
func (b Float32Buffer) Len() int { return len(b) }
func (b Float32Buffer) Set(i int, v float32) { b[i] = v }
func (b Float32Buffer) Float(i int) float32 { return b[i] }

func (b Float32Buffer) Fill(v float32) {
	for i := range b {
		b[i] = v
	}
}

// Int32Buffer holds int32 pixels. Values are rounded to the nearest integer,
// the fill value is truncated toward zero.
type Int32Buffer []int32

func (b Int32Buffer) DataType() DataType { return Int32 }
func (b Int32Buffer) Len() int { return len(b) }
func (b Int32Buffer) Set(i int, v float32) { b[i] = toInt32(math.Round(float64(v))) }
func (b Int32Buffer) Float(i int) float32 { return float32(b[i]) }

func (b Int32Buffer) Fill(v float32) {
	iv := toInt32(math.Trunc(float64(v)))
	for i := range b {
		b[i] = iv
	}
}

func toInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}
