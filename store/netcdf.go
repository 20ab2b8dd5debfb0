package store

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/robert-malhotra/go-l3bin/internal/dtype"
)

// NetCDF is a store backed by a NetCDF classic or NetCDF4/HDF5 file.
type NetCDF struct {
	path   string
	root   api.Group
	group  api.Group
	sub    bool
	names  []string
	dims   []Dimension
	byName map[string]int
	closed bool
}

// OpenNetCDF opens the root group of a NetCDF file.
func OpenNetCDF(path string) (*NetCDF, error) {
	return OpenNetCDFGroup(path, "/")
}

// OpenNetCDFGroup opens a NetCDF file and exposes the variables of one group.
// Use "/" for the root group.
func OpenNetCDFGroup(path, group string) (*NetCDF, error) {
	root, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	g := root
	if group != "" && group != "/" {
		g, err = root.GetGroup(group)
		if err != nil {
			root.Close()
			return nil, fmt.Errorf("opening group %q in %s: %w", group, path, err)
		}
	}

	nc := &NetCDF{
		path:   path,
		root:   root,
		group:  g,
		sub:    group != "" && group != "/",
		names:  g.ListVariables(),
		byName: make(map[string]int),
	}
	if err := nc.scanDimensions(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("scanning dimensions of %s: %w", path, err)
	}
	return nc, nil
}

// Path returns the file path.
func (nc *NetCDF) Path() string {
	return nc.path
}

// scanDimensions derives dimension lengths from the variables, since the
// NetCDF API only names the dimensions of each variable. The outermost
// dimension of a variable has the variable's length; inner dimensions are
// measured on its first outer element.
func (nc *NetCDF) scanDimensions() error {
	lengths := make(map[string]int)
	var order []string
	record := func(name string, n int) {
		if _, ok := lengths[name]; !ok {
			order = append(order, name)
			lengths[name] = n
		}
	}

	for _, name := range nc.names {
		vg, err := nc.group.GetVarGetter(name)
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		dimNames := vg.Dimensions()
		if len(dimNames) == 0 {
			continue
		}
		record(dimNames[0], int(vg.Len()))
		if len(dimNames) == 1 {
			continue
		}

		known := true
		for _, dn := range dimNames[1:] {
			if _, ok := lengths[dn]; !ok {
				known = false
			}
		}
		if known {
			continue
		}
		if vg.Len() == 0 {
			for _, dn := range dimNames[1:] {
				record(dn, 0)
			}
			continue
		}
		first, err := vg.GetSlice(0, 1)
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		_, shape, err := dtype.Flatten(first)
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		if len(shape) != len(dimNames) {
			return fmt.Errorf("variable %q: rank %d does not match dimensions %v", name, len(shape), dimNames)
		}
		for i, dn := range dimNames[1:] {
			record(dn, shape[i+1])
		}
	}

	nc.dims = make([]Dimension, len(order))
	for i, name := range order {
		nc.dims[i] = Dimension{Name: name, Len: lengths[name]}
		nc.byName[name] = i
	}
	return nil
}

// Variables implements Store.
func (nc *NetCDF) Variables() []string {
	if nc.closed {
		return nil
	}
	return append([]string(nil), nc.names...)
}

// Variable implements Store.
func (nc *NetCDF) Variable(name string) (Variable, bool) {
	if nc.closed {
		return nil, false
	}
	vg, err := nc.group.GetVarGetter(name)
	if err != nil {
		return nil, false
	}
	dimNames := vg.Dimensions()
	dims := make([]Dimension, len(dimNames))
	for i, dn := range dimNames {
		idx, ok := nc.byName[dn]
		if !ok {
			return nil, false
		}
		dims[i] = nc.dims[idx]
	}
	return &ncVariable{nc: nc, name: name, vg: vg, dims: dims}, true
}

// Dimensions implements Store.
func (nc *NetCDF) Dimensions() []Dimension {
	return append([]Dimension(nil), nc.dims...)
}

// Attribute implements Store.
func (nc *NetCDF) Attribute(name string) (interface{}, bool) {
	if nc.closed {
		return nil, false
	}
	attrs := nc.group.Attributes()
	if attrs == nil {
		return nil, false
	}
	return attrs.Get(name)
}

// AttributeNames implements Store.
func (nc *NetCDF) AttributeNames() []string {
	if nc.closed {
		return nil
	}
	attrs := nc.group.Attributes()
	if attrs == nil {
		return nil
	}
	return attrs.Keys()
}

// Close implements Store.
func (nc *NetCDF) Close() error {
	if nc.closed {
		return nil
	}
	nc.closed = true
	if nc.sub {
		nc.group.Close()
	}
	nc.root.Close()
	return nil
}

type ncVariable struct {
	nc   *NetCDF
	name string
	vg   api.VarGetter
	dims []Dimension
}

func (v *ncVariable) Name() string { return v.name }

func (v *ncVariable) Type() string { return v.vg.GoType() }

func (v *ncVariable) Dimensions() []Dimension {
	return append([]Dimension(nil), v.dims...)
}

func (v *ncVariable) Attribute(name string) (interface{}, bool) {
	attrs := v.vg.Attributes()
	if attrs == nil {
		return nil, false
	}
	return attrs.Get(name)
}

func (v *ncVariable) ReadAll() (interface{}, error) {
	if v.nc.closed {
		return nil, ErrClosed
	}
	values, err := v.vg.Values()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", v.name, err)
	}
	flat, _, err := dtype.Flatten(values)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", v.name, err)
	}
	return flat, nil
}

func (v *ncVariable) ReadSlice(origin, shape []int) (interface{}, error) {
	if v.nc.closed {
		return nil, ErrClosed
	}
	dims := Shape(v)
	if err := CheckSlice(v.name, dims, origin, shape); err != nil {
		return nil, err
	}
	if len(dims) == 0 {
		return v.ReadAll()
	}

	// The API slices along the outermost dimension only; inner dimensions are
	// cut from the returned block.
	block, err := v.vg.GetSlice(int64(origin[0]), int64(origin[0]+shape[0]))
	if err != nil {
		return nil, fmt.Errorf("reading %s[%d:%d]: %w", v.name, origin[0], origin[0]+shape[0], err)
	}
	flat, _, err := dtype.Flatten(block)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", v.name, err)
	}
	if len(dims) == 1 {
		return flat, nil
	}

	blockDims := append([]int{shape[0]}, dims[1:]...)
	blockOrigin := append([]int{0}, origin[1:]...)
	return Hyperslab(flat, blockDims, blockOrigin, shape)
}
