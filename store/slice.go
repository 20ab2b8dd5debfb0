package store

import (
	"fmt"
	"reflect"
)

// Hyperslab extracts the block at origin with the given shape from a flat
// row-major array of the given dimensions. The result has the same element
// type as data.
func Hyperslab(data interface{}, dims, origin, shape []int) (interface{}, error) {
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: data is %T, not a slice", ErrSlice, data)
	}
	if err := CheckSlice("array", dims, origin, shape); err != nil {
		return nil, err
	}

	total := 1
	for _, n := range dims {
		total *= n
	}
	if rv.Len() != total {
		return nil, fmt.Errorf("%w: array holds %d elements, dimensions %v need %d", ErrSlice, rv.Len(), dims, total)
	}

	count := 1
	for _, n := range shape {
		count *= n
	}
	out := reflect.MakeSlice(rv.Type(), count, count)
	if count == 0 {
		return out.Interface(), nil
	}

	// One dimension: a plain sub-slice.
	if len(dims) == 1 {
		reflect.Copy(out, rv.Slice(origin[0], origin[0]+shape[0]))
		return out.Interface(), nil
	}

	strides := make([]int, len(dims))
	strides[len(dims)-1] = 1
	for i := len(dims) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * dims[i+1]
	}
	copyRecursive(out, rv, origin, shape, strides, 0, 0, 0)
	return out.Interface(), nil
}

// copyRecursive walks the selected block dimension by dimension and copies
// each innermost run contiguously. It returns the next output index.
func copyRecursive(out, src reflect.Value, origin, shape, strides []int, srcIdx, outIdx, dim int) int {
	srcIdx += origin[dim] * strides[dim]
	if dim == len(shape)-1 {
		n := shape[dim]
		reflect.Copy(out.Slice(outIdx, outIdx+n), src.Slice(srcIdx, srcIdx+n))
		return outIdx + n
	}
	for i := 0; i < shape[dim]; i++ {
		outIdx = copyRecursive(out, src, origin, shape, strides, srcIdx+i*strides[dim], outIdx, dim+1)
	}
	return outIdx
}
