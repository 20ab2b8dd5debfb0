package dtype

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// ToFloat32 converts a numeric array (or scalar) to []float32.
// A []float32 input is returned without copying.
func ToFloat32(v interface{}) ([]float32, error) {
	switch s := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil value")
	case []float32:
		return s, nil
	case []float64:
		out := make([]float32, len(s))
		for i, f := range s {
			out[i] = float32(f)
		}
		return out, nil
	case []int32:
		out := make([]float32, len(s))
		for i, n := range s {
			out[i] = float32(n)
		}
		return out, nil
	}

	flat, _, err := Flatten(v)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(flat)
	out := make([]float32, rv.Len())
	for i := range out {
		f, err := elemFloat64(rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// ToInt64 converts an integer array (or scalar) to []int64. Floating-point
// elements are accepted when they hold integral values.
func ToInt64(v interface{}) ([]int64, error) {
	switch s := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil value")
	case []int64:
		return s, nil
	case []int32:
		out := make([]int64, len(s))
		for i, n := range s {
			out[i] = int64(n)
		}
		return out, nil
	}

	flat, _, err := Flatten(v)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(flat)
	out := make([]int64, rv.Len())
	for i := range out {
		e := rv.Index(i)
		switch e.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out[i] = e.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u := e.Uint()
			if u > math.MaxInt64 {
				return nil, fmt.Errorf("element %d: %d overflows int64", i, u)
			}
			out[i] = int64(u)
		case reflect.Float32, reflect.Float64:
			f := e.Float()
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("element %d: %v is not integral", i, f)
			}
			out[i] = int64(f)
		default:
			return nil, fmt.Errorf("element %d: unsupported kind %s", i, e.Kind())
		}
	}
	return out, nil
}

// Flatten converts nested slices to a single flat slice in row-major order and
// returns the shape of the input. Scalars become one-element slices with an
// empty shape. All sub-slices at the same depth must have equal length.
func Flatten(v interface{}) (interface{}, []int, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, nil, fmt.Errorf("nil value")
	}

	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		out := reflect.MakeSlice(reflect.SliceOf(rv.Type()), 1, 1)
		out.Index(0).Set(rv)
		return out.Interface(), nil, nil
	}

	// Walk down the first element to find the shape and the element type.
	var shape []int
	t := rv.Type()
	cur := rv
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		if t.Elem().Kind() == reflect.Uint8 && t.Kind() == reflect.Slice && len(shape) > 0 {
			// [][]byte is an array of byte strings, not a byte matrix
			break
		}
		shape = append(shape, cur.Len())
		t = t.Elem()
		if cur.Len() > 0 {
			cur = cur.Index(0)
		} else {
			cur = reflect.Zero(t)
		}
	}

	if len(shape) == 1 {
		if rv.Kind() == reflect.Slice {
			return v, shape, nil
		}
		out := reflect.MakeSlice(reflect.SliceOf(t), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(rv.Index(i))
		}
		return out.Interface(), shape, nil
	}

	total := 1
	for _, n := range shape {
		total *= n
	}
	out := reflect.MakeSlice(reflect.SliceOf(t), 0, total)
	out, err := flattenRecursive(rv, shape, 0, out)
	if err != nil {
		return nil, nil, err
	}
	return out.Interface(), shape, nil
}

// flattenRecursive appends the elements of v at depth dim to out.
func flattenRecursive(v reflect.Value, shape []int, dim int, out reflect.Value) (reflect.Value, error) {
	if v.Len() != shape[dim] {
		return out, fmt.Errorf("ragged array: dimension %d has length %d, expected %d", dim, v.Len(), shape[dim])
	}
	if dim == len(shape)-1 {
		for i := 0; i < v.Len(); i++ {
			out = reflect.Append(out, v.Index(i))
		}
		return out, nil
	}
	for i := 0; i < v.Len(); i++ {
		var err error
		out, err = flattenRecursive(v.Index(i), shape, dim+1, out)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Float64 returns a numeric scalar, or the first element of a numeric array.
func Float64(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return 0, false
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return 0, false
		}
		rv = rv.Index(0)
	}
	f, err := elemFloat64(rv)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String returns a string scalar. Byte slices are treated as null-padded
// character arrays; for string slices the first element is returned.
func String(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return strings.TrimRight(string(s), "\x00 "), true
	case []string:
		if len(s) == 0 {
			return "", false
		}
		return s[0], true
	}
	return "", false
}

func elemFloat64(e reflect.Value) (float64, error) {
	switch e.Kind() {
	case reflect.Float32, reflect.Float64:
		return e.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(e.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(e.Uint()), nil
	case reflect.Interface:
		if e.IsNil() {
			return 0, fmt.Errorf("nil element")
		}
		return elemFloat64(e.Elem())
	default:
		return 0, fmt.Errorf("unsupported kind %s", e.Kind())
	}
}
