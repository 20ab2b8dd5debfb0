// Package store defines the variable store the binned reader decodes from,
// together with an in-memory store and a NetCDF store.
//
// A store is a flat collection of named, typed arrays (variables) with named
// dimensions and scalar attributes, the common denominator of NetCDF classic,
// NetCDF4 and HDF5 containers. Arrays are returned as interface{} holding a
// flat typed slice in row-major order ([]int32, []float32, ...).
//
// Stores are not assumed to be safe for concurrent use. [Synchronize] wraps a
// store so that every call goes through one mutex owned by the wrapper.
package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a variable or attribute does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")

	// ErrSlice is returned when a slice request does not fit the variable.
	ErrSlice = errors.New("store: invalid slice")
)

// Dimension is a named array dimension.
type Dimension struct {
	Name string
	Len  int
}

// Store is an open array container.
type Store interface {
	// Variables lists the variable names in storage order.
	Variables() []string

	// Variable returns the named variable.
	Variable(name string) (Variable, bool)

	// Dimensions lists all dimensions of the container.
	Dimensions() []Dimension

	// Attribute returns a global attribute.
	Attribute(name string) (interface{}, bool)

	// AttributeNames lists the global attributes in storage order.
	AttributeNames() []string

	// Close releases the container.
	Close() error
}

// Variable is a named n-dimensional array inside a store.
type Variable interface {
	Name() string

	// Type returns the Go name of the element type, such as "float32".
	Type() string

	// Dimensions returns the variable's dimensions, slowest varying first.
	Dimensions() []Dimension

	// Attribute returns a variable attribute.
	Attribute(name string) (interface{}, bool)

	// ReadAll reads the whole variable as a flat typed slice.
	ReadAll() (interface{}, error)

	// ReadSlice reads the hyperslab starting at origin with the given shape
	// as a flat typed slice.
	ReadSlice(origin, shape []int) (interface{}, error)
}

// Shape returns the dimension lengths of v.
func Shape(v Variable) []int {
	dims := v.Dimensions()
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = d.Len
	}
	return shape
}

// CheckSlice validates a hyperslab request against a variable shape.
func CheckSlice(name string, dims, origin, shape []int) error {
	if len(origin) != len(dims) || len(shape) != len(dims) {
		return fmt.Errorf("%w: %s has rank %d, got origin rank %d and shape rank %d",
			ErrSlice, name, len(dims), len(origin), len(shape))
	}
	for i := range dims {
		if origin[i] < 0 || shape[i] < 0 || origin[i]+shape[i] > dims[i] {
			return fmt.Errorf("%w: %s dimension %d: origin=%d + shape=%d > size=%d",
				ErrSlice, name, i, origin[i], shape[i], dims[i])
		}
	}
	return nil
}
