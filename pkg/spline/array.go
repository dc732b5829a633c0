package spline

import "fmt"

// Array is a dense float64 array of up to four dimensions, stored row-major
// with the last axis varying fastest. It is the container for both regularly
// sampled signals and their spline coefficient representations.
type Array struct {
	// Data holds the samples in row-major order.
	Data []float64

	// Dims holds the extent of each axis, slowest first.
	Dims []int
}

// NewArray allocates a zeroed array with the given dimensions.
func NewArray(dims ...int) *Array {
	size := 1
	for _, d := range dims {
		if d < 1 {
			panic(fmt.Sprintf("spline: non-positive dimension %d", d))
		}
		size *= d
	}
	return &Array{
		Data: make([]float64, size),
		Dims: append([]int(nil), dims...),
	}
}

// Wrap builds an array around existing data without copying. The data length
// must match the product of the dimensions.
func Wrap(data []float64, dims ...int) (*Array, error) {
	size := 1
	for _, d := range dims {
		size *= d
	}
	if size != len(data) {
		return nil, fmt.Errorf("spline: data length %d does not match dims %v", len(data), dims)
	}
	return &Array{Data: data, Dims: append([]int(nil), dims...)}, nil
}

// Size returns the total number of elements.
func (a *Array) Size() int {
	size := 1
	for _, d := range a.Dims {
		size *= d
	}
	return size
}

// strides returns the element stride of each axis, slowest first.
func (a *Array) strides() []int {
	s := make([]int, len(a.Dims))
	acc := 1
	for i := len(a.Dims) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= a.Dims[i]
	}
	return s
}

// sameShape reports whether a and b have identical dimensions.
func sameShape(a, b *Array) bool {
	if len(a.Dims) != len(b.Dims) {
		return false
	}
	for i := range a.Dims {
		if a.Dims[i] != b.Dims[i] {
			return false
		}
	}
	return true
}

// checkDims panics unless the array has exactly n axes. The samplers treat a
// dimensionality mismatch as a programmer error rather than a recoverable
// condition.
func (a *Array) checkDims(n int) {
	if len(a.Dims) != n {
		panic(fmt.Sprintf("spline: %d-dimensional sample of a %d-dimensional array", n, len(a.Dims)))
	}
}
