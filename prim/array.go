package prim

import (
	"fmt"

	"github.com/simon-lentz/anf/immutable"
	"github.com/simon-lentz/anf/internal/value"
)

// Array is the reference array value: a row-major float64 buffer with an
// explicit shape. It exists so the array primitives can be exercised
// end-to-end; it makes no performance claims.
type Array struct {
	shape []int
	data  []float64
}

// NewArray constructs an array, validating that the shape's element count
// matches the data length.
func NewArray(shape []int, data []float64) (*Array, error) {
	if n := elemCount(shape); n != len(data) {
		return nil, fmt.Errorf("prim: shape %v wants %d elements, got %d", shape, n, len(data))
	}
	return &Array{shape: append([]int(nil), shape...), data: append([]float64(nil), data...)}, nil
}

// Shape returns a copy of the array's shape.
func (a *Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.shape) }

// Data returns a copy of the backing buffer in row-major order.
func (a *Array) Data() []float64 {
	return append([]float64(nil), a.data...)
}

// Equal reports shape and element equality.
func (a *Array) Equal(b *Array) bool {
	if len(a.shape) != len(b.shape) || len(a.data) != len(b.data) {
		return false
	}
	for i, d := range a.shape {
		if b.shape[i] != d {
			return false
		}
	}
	for i, v := range a.data {
		if b.data[i] != v {
			return false
		}
	}
	return true
}

func elemCount(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// strides returns row-major strides for shape.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// shapeOf converts a runtime tuple of integers into a shape vector.
func shapeOf(v any) ([]int, error) {
	tup, ok := v.(immutable.Slice)
	if !ok {
		return nil, fmt.Errorf("prim: shape must be a tuple, got %T", v)
	}
	shape := make([]int, tup.Len())
	for i := range tup.Len() {
		d, ok := value.GetInt64(tup.Get(i).Unwrap())
		if !ok {
			return nil, fmt.Errorf("prim: shape element %d is not an integer", i)
		}
		shape[i] = int(d)
	}
	return shape, nil
}

// shapeTuple renders a shape vector as a runtime tuple.
func shapeTuple(shape []int) immutable.Slice {
	elems := make([]any, len(shape))
	for i, d := range shape {
		elems[i] = int64(d)
	}
	return immutable.WrapSlice(elems)
}
