// Package dtype converts the loosely typed values handed out by a variable
// store into the concrete Go types the decoder works with.
//
// Stores return arrays as interface{} holding a typed slice ([]int16,
// []float64, ...), nested slices for multi-dimensional variables ([][]float32),
// or plain scalars for attributes. Band values are decoded as float32 and
// index arrays as int64, whatever their on-disk type.
//
// # Type Mapping
//
//	Store value            | Conversion
//	-----------------------|----------------------------------------
//	[]float32              | returned as is by [ToFloat32]
//	[]intN, []uintN, []f64 | element-wise conversion
//	[][]T, [][][]T, ...    | flattened in row-major order first
//	scalar T               | treated as a one-element slice
//	string, []byte         | [String] only
//
// # Key Functions
//
//   - [ToFloat32]: any numeric array to []float32
//   - [ToInt64]: any integer (or integral float) array to []int64
//   - [Flatten]: nested slices to a flat slice plus shape
//   - [Float64], [String]: scalar attribute access
package dtype
