package spline

import "math"

// Basis evaluates the centered cubic B-spline basis function at x. The basis
// is symmetric, piecewise cubic, and supported on |x| < 2.
func Basis(x float64) float64 {
	t := math.Abs(x)
	switch {
	case t < 1:
		return 2.0/3.0 - t*t + 0.5*t*t*t
	case t < 2:
		d := 2 - t
		return d * d * d / 6.0
	default:
		return 0
	}
}

// mirror reflects index k into [0, n) with period 2(n-1), the boundary
// extension matching the coefficient transform.
func mirror(k, n int) int {
	if n == 1 {
		return 0
	}
	p := 2 * (n - 1)
	k %= p
	if k < 0 {
		k += p
	}
	if k >= n {
		k = p - k
	}
	return k
}

// tap holds the four basis weights and mirrored coefficient indices covering
// one real-valued coordinate along one axis.
type tap struct {
	idx [4]int
	w   [4]float64
}

func makeTap(x float64, n int) tap {
	var t tap
	nx := int(math.Floor(x))
	for k := 0; k < 4; k++ {
		q := nx - 1 + k
		t.idx[k] = mirror(q, n)
		t.w[k] = Basis(x - float64(q))
	}
	return t
}

// Sample1 evaluates the spline interpolant of a 1D coefficient array at x.
// Coordinates outside [0, n-1] are resolved by mirror extension; callers that
// want zero-fill outside the grid must test the range themselves.
func Sample1(coef *Array, x float64) float64 {
	coef.checkDims(1)
	tx := makeTap(x, coef.Dims[0])
	var s float64
	for k := 0; k < 4; k++ {
		s += tx.w[k] * coef.Data[tx.idx[k]]
	}
	return s
}

// Sample2 evaluates the spline interpolant of a 2D coefficient array at (x,y).
func Sample2(coef *Array, x, y float64) float64 {
	coef.checkDims(2)
	tx := makeTap(x, coef.Dims[0])
	ty := makeTap(y, coef.Dims[1])
	ny := coef.Dims[1]
	var s float64
	for i := 0; i < 4; i++ {
		row := tx.idx[i] * ny
		var sy float64
		for j := 0; j < 4; j++ {
			sy += ty.w[j] * coef.Data[row+ty.idx[j]]
		}
		s += tx.w[i] * sy
	}
	return s
}

// Sample3 evaluates the spline interpolant of a 3D coefficient array at
// (x,y,z).
func Sample3(coef *Array, x, y, z float64) float64 {
	coef.checkDims(3)
	tx := makeTap(x, coef.Dims[0])
	ty := makeTap(y, coef.Dims[1])
	tz := makeTap(z, coef.Dims[2])
	ny, nz := coef.Dims[1], coef.Dims[2]
	var s float64
	for i := 0; i < 4; i++ {
		plane := tx.idx[i] * ny * nz
		var sy float64
		for j := 0; j < 4; j++ {
			row := plane + ty.idx[j]*nz
			var sz float64
			for k := 0; k < 4; k++ {
				sz += tz.w[k] * coef.Data[row+tz.idx[k]]
			}
			sy += ty.w[j] * sz
		}
		s += tx.w[i] * sy
	}
	return s
}

// Sample4 evaluates the spline interpolant of a 4D coefficient array at
// (x,y,z,t).
func Sample4(coef *Array, x, y, z, t float64) float64 {
	coef.checkDims(4)
	tx := makeTap(x, coef.Dims[0])
	ty := makeTap(y, coef.Dims[1])
	tz := makeTap(z, coef.Dims[2])
	tt := makeTap(t, coef.Dims[3])
	ny, nz, nt := coef.Dims[1], coef.Dims[2], coef.Dims[3]
	var s float64
	for i := 0; i < 4; i++ {
		cube := tx.idx[i] * ny * nz * nt
		var sy float64
		for j := 0; j < 4; j++ {
			plane := cube + ty.idx[j]*nz*nt
			var sz float64
			for k := 0; k < 4; k++ {
				row := plane + tz.idx[k]*nt
				var st float64
				for l := 0; l < 4; l++ {
					st += tt.w[l] * coef.Data[row+tt.idx[l]]
				}
				sz += tz.w[k] * st
			}
			sy += ty.w[j] * sz
		}
		s += tx.w[i] * sy
	}
	return s
}
