package accessor

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/go-l3bin/internal/dtype"
	"github.com/robert-malhotra/go-l3bin/store"
)

// Source binds a band to the store variable holding its values. A variable
// with more than one dimension is read along its bin dimension, with the
// auxiliary dimension (if any) fixed to one index.
type Source struct {
	band     string
	v        store.Variable
	fill     float32
	binDim   int
	binLen   int
	auxDim   int
	auxIndex int
	origin   []int
	shape    []int
}

// NewSource binds band to a variable whose first dimension is the bin
// dimension. Any further dimensions must have length 1.
func NewSource(band string, v store.Variable, fill float32) (*Source, error) {
	return NewSliceSource(band, v, fill, 0, -1, 0)
}

// NewSliceSource binds band to index auxIndex of dimension auxDim of v, read
// along dimension binDim. auxDim < 0 means the variable has no auxiliary
// dimension. All other dimensions must have length 1.
func NewSliceSource(band string, v store.Variable, fill float32, binDim, auxDim, auxIndex int) (*Source, error) {
	dims := store.Shape(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: band %s: variable %s is a scalar", ErrFormat, band, v.Name())
	}
	if binDim < 0 || binDim >= len(dims) || auxDim >= len(dims) || auxDim == binDim {
		return nil, fmt.Errorf("%w: band %s: invalid dimension selection bin=%d aux=%d for %v",
			ErrFormat, band, binDim, auxDim, dims)
	}

	src := &Source{
		band:     band,
		v:        v,
		fill:     fill,
		binDim:   binDim,
		binLen:   dims[binDim],
		auxDim:   auxDim,
		auxIndex: auxIndex,
		origin:   make([]int, len(dims)),
		shape:    make([]int, len(dims)),
	}
	for i, n := range dims {
		switch {
		case i == binDim:
		case i == auxDim:
			if auxIndex < 0 || auxIndex >= n {
				return nil, fmt.Errorf("%w: band %s: index %d outside dimension of length %d",
					ErrFormat, band, auxIndex, n)
			}
			src.origin[i] = auxIndex
			src.shape[i] = 1
		case n != 1:
			return nil, fmt.Errorf("%w: band %s: unexpected dimension %d of length %d", ErrFormat, band, i, n)
		default:
			src.shape[i] = 1
		}
	}
	return src, nil
}

// Band returns the band name.
func (s *Source) Band() string { return s.band }

// Variable returns the bound store variable.
func (s *Source) Variable() store.Variable { return s.v }

// Fill returns the fill value of the band.
func (s *Source) Fill() float32 { return s.fill }

// Len returns the length of the bin dimension.
func (s *Source) Len() int { return s.binLen }

// IsFill reports whether v equals the fill value. A NaN fill value matches
// every NaN.
func (s *Source) IsFill(v float32) bool {
	if v == s.fill {
		return true
	}
	return math.IsNaN(float64(s.fill)) && math.IsNaN(float64(v))
}

// read reads n values starting at bin position start.
func (s *Source) read(start, n int) ([]float32, error) {
	origin := append([]int(nil), s.origin...)
	shape := append([]int(nil), s.shape...)
	origin[s.binDim] = start
	shape[s.binDim] = n

	var (
		raw interface{}
		err error
	)
	if len(origin) == 1 && start == 0 && n == s.binLen {
		raw, err = s.v.ReadAll()
	} else {
		raw, err = s.v.ReadSlice(origin, shape)
	}
	if err != nil {
		return nil, fmt.Errorf("band %s: reading [%d:%d]: %w", s.band, start, start+n, err)
	}
	values, err := dtype.ToFloat32(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: band %s: %v", ErrFormat, s.band, err)
	}
	if len(values) != n {
		return nil, fmt.Errorf("%w: band %s: read %d values, expected %d", ErrFormat, s.band, len(values), n)
	}
	return values, nil
}
