// Package tensor provides a dense, shaped numeric buffer used to move pixel
// data between the container codec and an encoder.
//
// A Tensor owns its backing slice. Every operation that produces a new shape
// or element type returns a fresh Tensor with its own copy of the data, laid
// out row-major (last dimension fastest-varying).
package tensor

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const (
	Uint8 DType = iota
	Float64
)

// DType is the element type of a Tensor.
type DType int

func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// Tensor is a dense buffer with an explicit shape. Exactly one of u8 and f64
// is populated, according to dtype.
type Tensor struct {
	shape []int
	dtype DType
	u8    []uint8
	f64   []float64
}

// ShapeError reports a shape that does not fit the element count it is
// applied to.
type ShapeError struct {
	Op    string
	Shape []int
	Len   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("tensor %s: shape %v does not hold %d elements", e.Op, e.Shape, e.Len)
}

// -------- CONSTRUCTORS ------- //

// FromUint8 copies data into a new uint8 tensor of the given shape.
func FromUint8(data []uint8, shape ...int) (*Tensor, error) {
	n, err := volume("new", shape, len(data))
	if err != nil {
		return nil, err
	}
	buf := make([]uint8, n)
	copy(buf, data)
	return &Tensor{shape: cloneShape(shape), dtype: Uint8, u8: buf}, nil
}

// FromFloat64 copies data into a new float64 tensor of the given shape.
func FromFloat64(data []float64, shape ...int) (*Tensor, error) {
	n, err := volume("new", shape, len(data))
	if err != nil {
		return nil, err
	}
	buf := make([]float64, n)
	copy(buf, data)
	return &Tensor{shape: cloneShape(shape), dtype: Float64, f64: buf}, nil
}

// Zeros allocates a zero-filled tensor.
func Zeros(dtype DType, shape ...int) (*Tensor, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, &ShapeError{Op: "zeros", Shape: cloneShape(shape), Len: -1}
		}
		n *= d
	}
	t := &Tensor{shape: cloneShape(shape), dtype: dtype}
	switch dtype {
	case Uint8:
		t.u8 = make([]uint8, n)
	case Float64:
		t.f64 = make([]float64, n)
	default:
		return nil, fmt.Errorf("tensor zeros: unsupported dtype %v", dtype)
	}
	return t, nil
}

// ------- ACCESSORS ------ //

// Shape returns a copy of the tensor's dimensions.
func (t *Tensor) Shape() []int { return cloneShape(t.shape) }

// Rank is the number of dimensions.
func (t *Tensor) Rank() int { return len(t.shape) }

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int { return t.shape[i] }

func (t *Tensor) DType() DType { return t.dtype }

// Len is the total number of elements.
func (t *Tensor) Len() int {
	if t.dtype == Uint8 {
		return len(t.u8)
	}
	return len(t.f64)
}

// Uint8s returns a copy of the elements of a uint8 tensor.
func (t *Tensor) Uint8s() []uint8 {
	if t.dtype != Uint8 {
		panic("tensor: Uint8s on " + t.dtype.String() + " tensor")
	}
	out := make([]uint8, len(t.u8))
	copy(out, t.u8)
	return out
}

// Float64s returns a copy of the elements of a float64 tensor.
func (t *Tensor) Float64s() []float64 {
	if t.dtype != Float64 {
		panic("tensor: Float64s on " + t.dtype.String() + " tensor")
	}
	out := make([]float64, len(t.f64))
	copy(out, t.f64)
	return out
}

// Row returns a copy of the i-th slab along the outermost dimension as
// float64 values, whatever the element type.
func (t *Tensor) Row(i int) []float64 {
	if len(t.shape) == 0 {
		panic("tensor: Row on scalar")
	}
	stride := t.stride0()
	out := make([]float64, stride)
	start := i * stride
	if t.dtype == Uint8 {
		for j, v := range t.u8[start : start+stride] {
			out[j] = float64(v)
		}
		return out
	}
	copy(out, t.f64[start:start+stride])
	return out
}

// ------- TRANSFORMS ------ //

// Reshape returns a copy of t with a new shape holding the same number of
// elements in the same order. At most one dimension may be -1, in which case
// it is inferred.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	shape = cloneShape(shape)
	infer := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1 && infer == -1:
			infer = i
		case d < 0:
			return nil, &ShapeError{Op: "reshape", Shape: shape, Len: t.Len()}
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || t.Len()%known != 0 {
			return nil, &ShapeError{Op: "reshape", Shape: shape, Len: t.Len()}
		}
		shape[infer] = t.Len() / known
	}
	if t.dtype == Uint8 {
		out, err := FromUint8(t.u8, shape...)
		if err != nil {
			return nil, &ShapeError{Op: "reshape", Shape: shape, Len: t.Len()}
		}
		return out, nil
	}
	out, err := FromFloat64(t.f64, shape...)
	if err != nil {
		return nil, &ShapeError{Op: "reshape", Shape: shape, Len: t.Len()}
	}
	return out, nil
}

// AsFloat64 returns a float64 copy of t.
func (t *Tensor) AsFloat64() *Tensor {
	out := &Tensor{shape: cloneShape(t.shape), dtype: Float64, f64: make([]float64, t.Len())}
	if t.dtype == Float64 {
		copy(out.f64, t.f64)
		return out
	}
	for i, v := range t.u8 {
		out.f64[i] = float64(v)
	}
	return out
}

// Scale returns a float64 copy of t with every element multiplied by s.
func (t *Tensor) Scale(s float64) *Tensor {
	out := t.AsFloat64()
	floats.Scale(s, out.f64)
	return out
}

// Head returns a copy of the first n entries along the outermost dimension.
// n larger than the dimension is clamped.
func (t *Tensor) Head(n int) (*Tensor, error) {
	if len(t.shape) == 0 {
		return nil, &ShapeError{Op: "head", Shape: nil, Len: t.Len()}
	}
	if n < 0 {
		return nil, fmt.Errorf("tensor head: negative count %d", n)
	}
	if n > t.shape[0] {
		n = t.shape[0]
	}
	shape := cloneShape(t.shape)
	shape[0] = n
	end := n * t.stride0()
	if t.dtype == Uint8 {
		return FromUint8(t.u8[:end], shape...)
	}
	return FromFloat64(t.f64[:end], shape...)
}

// MinMax returns the smallest and largest element over the whole tensor.
func (t *Tensor) MinMax() (lo, hi float64, err error) {
	if t.Len() == 0 {
		return 0, 0, fmt.Errorf("tensor minmax: empty tensor %v", t.shape)
	}
	if t.dtype == Float64 {
		return floats.Min(t.f64), floats.Max(t.f64), nil
	}
	lo, hi = 255, 0
	for _, v := range t.u8 {
		f := float64(v)
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	return lo, hi, nil
}

// Equal reports whether a and b have the same dtype, shape and elements.
func Equal(a, b *Tensor) bool {
	if a.dtype != b.dtype || len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	if a.dtype == Uint8 {
		return string(a.u8) == string(b.u8)
	}
	return floats.Equal(a.f64, b.f64)
}

func (t *Tensor) String() string {
	dims := make([]string, len(t.shape))
	for i, d := range t.shape {
		dims[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("Tensor[%s](%s)", t.dtype, strings.Join(dims, "x"))
}

// ------ HELPERS ------

func (t *Tensor) stride0() int {
	s := 1
	for _, d := range t.shape[1:] {
		s *= d
	}
	return s
}

func volume(op string, shape []int, n int) (int, error) {
	v := 1
	for _, d := range shape {
		if d < 0 {
			return 0, &ShapeError{Op: op, Shape: cloneShape(shape), Len: n}
		}
		v *= d
	}
	if v != n {
		return 0, &ShapeError{Op: op, Shape: cloneShape(shape), Len: n}
	}
	return v, nil
}

func cloneShape(shape []int) []int {
	out := make([]int, len(shape))
	copy(out, shape)
	return out
}
