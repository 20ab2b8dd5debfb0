package store

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/robert-malhotra/go-l3bin/internal/dtype"
)

// Mem is an in-memory store. It is used for synthetic products and test
// fixtures, and counts the reads issued against each variable.
//
// Variables are added with AddVariable before the store is handed to a
// reader; Mem itself only guards its read counters against concurrent use.
type Mem struct {
	dims     []Dimension
	dimIndex map[string]int
	vars     []*memVariable
	varIndex map[string]*memVariable
	attrs    map[string]interface{}
	attrKeys []string
	closed   atomic.Bool

	mu    sync.Mutex
	reads map[string]int
}

// NewMem creates an empty in-memory store.
func NewMem() *Mem {
	return &Mem{
		dimIndex: make(map[string]int),
		varIndex: make(map[string]*memVariable),
		attrs:    make(map[string]interface{}),
		reads:    make(map[string]int),
	}
}

// AddDimension declares a dimension. Redeclaring a dimension with a different
// length is an error.
func (m *Mem) AddDimension(name string, n int) error {
	if i, ok := m.dimIndex[name]; ok {
		if m.dims[i].Len != n {
			return fmt.Errorf("dimension %q already has length %d", name, m.dims[i].Len)
		}
		return nil
	}
	if n < 0 {
		return fmt.Errorf("dimension %q: negative length %d", name, n)
	}
	m.dimIndex[name] = len(m.dims)
	m.dims = append(m.dims, Dimension{Name: name, Len: n})
	return nil
}

// AddVariable adds a variable over the named dimensions. values is a flat
// row-major slice or nested slices; undeclared dimensions are declared from
// the shape of nested values, or from the length of a flat one-dimensional
// slice.
func (m *Mem) AddVariable(name string, dimNames []string, values interface{}, attrs map[string]interface{}) error {
	if _, ok := m.varIndex[name]; ok {
		return fmt.Errorf("variable %q already exists", name)
	}

	flat, shape, err := dtype.Flatten(values)
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}
	if len(shape) == len(dimNames) {
		for i, dn := range dimNames {
			if err := m.AddDimension(dn, shape[i]); err != nil {
				return fmt.Errorf("variable %q: %w", name, err)
			}
		}
	}

	dims := make([]Dimension, len(dimNames))
	total := 1
	for i, dn := range dimNames {
		idx, ok := m.dimIndex[dn]
		if !ok {
			return fmt.Errorf("variable %q: unknown dimension %q", name, dn)
		}
		dims[i] = m.dims[idx]
		total *= dims[i].Len
	}
	if n := reflect.ValueOf(flat).Len(); n != total {
		return fmt.Errorf("variable %q: %d values for dimensions %v", name, n, dims)
	}

	if attrs == nil {
		attrs = make(map[string]interface{})
	}
	v := &memVariable{store: m, name: name, dims: dims, data: flat, attrs: attrs}
	m.vars = append(m.vars, v)
	m.varIndex[name] = v
	return nil
}

// SetAttribute sets a global attribute.
func (m *Mem) SetAttribute(name string, value interface{}) {
	if _, ok := m.attrs[name]; !ok {
		m.attrKeys = append(m.attrKeys, name)
	}
	m.attrs[name] = value
}

// Reads returns the number of ReadAll and ReadSlice calls issued against the
// named variable.
func (m *Mem) Reads(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[name]
}

// TotalReads returns the number of reads issued against all variables.
func (m *Mem) TotalReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.reads {
		total += n
	}
	return total
}

// Closed reports whether Close has been called.
func (m *Mem) Closed() bool {
	return m.closed.Load()
}

// Variables implements Store.
func (m *Mem) Variables() []string {
	names := make([]string, len(m.vars))
	for i, v := range m.vars {
		names[i] = v.name
	}
	return names
}

// Variable implements Store.
func (m *Mem) Variable(name string) (Variable, bool) {
	v, ok := m.varIndex[name]
	if !ok {
		return nil, false
	}
	return v, true
}

// Dimensions implements Store.
func (m *Mem) Dimensions() []Dimension {
	return append([]Dimension(nil), m.dims...)
}

// Attribute implements Store.
func (m *Mem) Attribute(name string) (interface{}, bool) {
	v, ok := m.attrs[name]
	return v, ok
}

// AttributeNames implements Store.
func (m *Mem) AttributeNames() []string {
	return append([]string(nil), m.attrKeys...)
}

// Close implements Store.
func (m *Mem) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *Mem) countRead(name string) {
	m.mu.Lock()
	m.reads[name]++
	m.mu.Unlock()
}

type memVariable struct {
	store *Mem
	name  string
	dims  []Dimension
	data  interface{}
	attrs map[string]interface{}
}

func (v *memVariable) Name() string { return v.name }

func (v *memVariable) Type() string {
	return reflect.TypeOf(v.data).Elem().String()
}

func (v *memVariable) Dimensions() []Dimension {
	return append([]Dimension(nil), v.dims...)
}

func (v *memVariable) Attribute(name string) (interface{}, bool) {
	a, ok := v.attrs[name]
	return a, ok
}

func (v *memVariable) ReadAll() (interface{}, error) {
	if v.store.Closed() {
		return nil, ErrClosed
	}
	v.store.countRead(v.name)
	src := reflect.ValueOf(v.data)
	out := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
	reflect.Copy(out, src)
	return out.Interface(), nil
}

func (v *memVariable) ReadSlice(origin, shape []int) (interface{}, error) {
	if v.store.Closed() {
		return nil, ErrClosed
	}
	dims := Shape(v)
	if err := CheckSlice(v.name, dims, origin, shape); err != nil {
		return nil, err
	}
	v.store.countRead(v.name)
	return Hyperslab(v.data, dims, origin, shape)
}
