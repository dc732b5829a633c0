// Package spline implements the cubic B-spline coefficient transform and
// interpolation of regularly sampled signals, following the recursive
// algorithm described in M. Unser, "Splines: a perfect fit for signal/image
// processing", IEEE Signal Processing Magazine, 1999.
//
// The direct transform converts samples into coefficients such that the
// cubic-spline interpolant reproduces the original samples exactly at the
// integer grid points. Multi-dimensional arrays are transformed separably,
// one axis at a time.
package spline

import (
	"fmt"
	"math"
)

// pole is the single pole of the cubic B-spline direct filter, sqrt(3)-2.
const pole = -0.26794919243112270647

// gain is the overall filter gain (1-z)(1-1/z) for the cubic pole.
const gain = 6.0

// horizonTol bounds the truncation error of the causal boundary sum.
const horizonTol = 1e-12

// Transform computes the cubic spline coefficients of src into res. Both
// arrays must have the same shape; res may alias src for an in-place
// transform. Axes of length 1 are passed through unchanged.
func Transform(res, src *Array) error {
	if !sameShape(res, src) {
		return fmt.Errorf("spline: coefficient shape %v does not match signal shape %v", res.Dims, src.Dims)
	}
	if &res.Data[0] != &src.Data[0] {
		copy(res.Data, src.Data)
	}

	strides := res.strides()
	scratch := make([]float64, maxDim(res.Dims))
	for axis := range res.Dims {
		filterAxis(res, axis, strides, scratch)
	}
	return nil
}

// filterAxis applies the 1D coefficient filter along one axis of a, visiting
// every line in turn through a strided gather/scatter.
func filterAxis(a *Array, axis int, strides []int, scratch []float64) {
	n := a.Dims[axis]
	if n < 2 {
		return
	}
	stride := strides[axis]
	line := scratch[:n]

	lines := a.Size() / n
	for l := 0; l < lines; l++ {
		start := lineStart(a.Dims, strides, axis, l)
		for k, idx := 0, start; k < n; k, idx = k+1, idx+stride {
			line[k] = a.Data[idx]
		}
		transform1d(line)
		for k, idx := 0, start; k < n; k, idx = k+1, idx+stride {
			a.Data[idx] = line[k]
		}
	}
}

// lineStart returns the linear offset of the l-th line along axis, where
// lines are enumerated in row-major order over the remaining axes.
func lineStart(dims, strides []int, axis, l int) int {
	start := 0
	for i := len(dims) - 1; i >= 0; i-- {
		if i == axis {
			continue
		}
		start += (l % dims[i]) * strides[i]
		l /= dims[i]
	}
	return start
}

// transform1d runs the causal/anticausal recursion in place on one line.
func transform1d(c []float64) {
	n := len(c)
	for k := range c {
		c[k] *= gain
	}
	c[0] = initialCausal(c)
	for k := 1; k < n; k++ {
		c[k] += pole * c[k-1]
	}
	c[n-1] = initialAnticausal(c)
	for k := n - 2; k >= 0; k-- {
		c[k] = pole * (c[k+1] - c[k])
	}
}

// initialCausal computes the first causal coefficient under mirror boundary
// conditions. For long signals the geometric sum is truncated at the horizon
// where the pole power falls below tolerance; short signals use the exact
// closed form over the full mirrored period.
func initialCausal(c []float64) float64 {
	n := len(c)
	horizon := int(math.Ceil(math.Log(horizonTol) / math.Log(-pole)))
	if horizon < n {
		zk := pole
		sum := c[0]
		for k := 1; k < horizon; k++ {
			sum += zk * c[k]
			zk *= pole
		}
		return sum
	}
	zk := pole
	zn := math.Pow(pole, float64(n-1))
	sum := c[0] + zn*c[n-1]
	zn *= zn / pole
	for k := 1; k < n-1; k++ {
		sum += (zk + zn) * c[k]
		zk *= pole
		zn /= pole
	}
	return sum / (1 - math.Pow(pole, float64(2*n-2)))
}

// initialAnticausal computes the last anticausal coefficient under mirror
// boundary conditions.
func initialAnticausal(c []float64) float64 {
	n := len(c)
	return (pole / (pole*pole - 1)) * (pole*c[n-2] + c[n-1])
}

func maxDim(dims []int) int {
	m := 1
	for _, d := range dims {
		if d > m {
			m = d
		}
	}
	return m
}
