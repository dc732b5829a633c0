package spline

import (
	"math"
	"testing"
)

// TestBasisProperties verifies the cubic B-spline basis function: symmetry,
// compact support and partition of unity over integer shifts.
func TestBasisProperties(t *testing.T) {
	if got := Basis(0); math.Abs(got-2.0/3.0) > 1e-12 {
		t.Errorf("Basis(0) = %v, want 2/3", got)
	}
	if got := Basis(1); math.Abs(got-1.0/6.0) > 1e-12 {
		t.Errorf("Basis(1) = %v, want 1/6", got)
	}
	if got := Basis(2); got != 0 {
		t.Errorf("Basis(2) = %v, want 0", got)
	}
	if got := Basis(2.5); got != 0 {
		t.Errorf("Basis(2.5) = %v, want 0", got)
	}

	for _, x := range []float64{0.1, 0.5, 0.9, 1.3, 1.9} {
		if math.Abs(Basis(x)-Basis(-x)) > 1e-15 {
			t.Errorf("Basis not symmetric at %v", x)
		}
	}

	// Partition of unity: the shifted basis functions sum to 1 at any x.
	for _, x := range []float64{0.0, 0.25, 0.5, 0.75, 0.99} {
		sum := 0.0
		for k := -2; k <= 2; k++ {
			sum += Basis(x - float64(k))
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("partition of unity failed at %v: sum = %v", x, sum)
		}
	}
}

func TestMirror(t *testing.T) {
	cases := []struct {
		k, n, want int
	}{
		{0, 5, 0},
		{4, 5, 4},
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{8, 5, 0},
		{9, 5, 1},
		{-3, 2, 1},
		{7, 1, 0},
	}
	for _, c := range cases {
		if got := mirror(c.k, c.n); got != c.want {
			t.Errorf("mirror(%d, %d) = %d, want %d", c.k, c.n, got, c.want)
		}
	}
}

// TestRoundTrip1D verifies the invertibility guarantee of the coefficient
// transform: sampling the interpolant at every integer grid point recovers
// the original signal. Lengths on both sides of the truncation horizon are
// covered.
func TestRoundTrip1D(t *testing.T) {
	for _, n := range []int{8, 16, 21, 64, 129} {
		src := NewArray(n)
		for i := range src.Data {
			src.Data[i] = math.Sin(0.7*float64(i)) + 0.3*float64(i%5)
		}
		coef := NewArray(n)
		if err := Transform(coef, src); err != nil {
			t.Fatalf("Transform failed for n=%d: %v", n, err)
		}
		for i := 0; i < n; i++ {
			got := Sample1(coef, float64(i))
			if math.Abs(got-src.Data[i]) > 1e-9 {
				t.Errorf("n=%d: round trip at %d: got %v, want %v", n, i, got, src.Data[i])
			}
		}
	}
}

// TestRoundTrip3D verifies the separable transform on a volume.
func TestRoundTrip3D(t *testing.T) {
	nx, ny, nz := 6, 9, 12
	src := NewArray(nx, ny, nz)
	for i := range src.Data {
		src.Data[i] = math.Cos(0.3 * float64(i))
	}
	coef := NewArray(nx, ny, nz)
	if err := Transform(coef, src); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				want := src.Data[(x*ny+y)*nz+z]
				got := Sample3(coef, float64(x), float64(y), float64(z))
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("round trip at (%d,%d,%d): got %v, want %v", x, y, z, got, want)
				}
			}
		}
	}
}

// TestRoundTrip2D4D covers the remaining sampler dimensionalities.
func TestRoundTrip2D4D(t *testing.T) {
	src2 := NewArray(7, 11)
	for i := range src2.Data {
		src2.Data[i] = float64((i*13)%17) - 8
	}
	coef2 := NewArray(7, 11)
	if err := Transform(coef2, src2); err != nil {
		t.Fatalf("2D transform failed: %v", err)
	}
	for x := 0; x < 7; x++ {
		for y := 0; y < 11; y++ {
			want := src2.Data[x*11+y]
			got := Sample2(coef2, float64(x), float64(y))
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("2D round trip at (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}

	src4 := NewArray(4, 5, 4, 6)
	for i := range src4.Data {
		src4.Data[i] = math.Sin(0.11 * float64(i))
	}
	coef4 := NewArray(4, 5, 4, 6)
	if err := Transform(coef4, src4); err != nil {
		t.Fatalf("4D transform failed: %v", err)
	}
	for x := 0; x < 4; x++ {
		for y := 0; y < 5; y++ {
			for z := 0; z < 4; z++ {
				for w := 0; w < 6; w++ {
					want := src4.Data[((x*5+y)*4+z)*6+w]
					got := Sample4(coef4, float64(x), float64(y), float64(z), float64(w))
					if math.Abs(got-want) > 1e-9 {
						t.Errorf("4D round trip at (%d,%d,%d,%d): got %v, want %v", x, y, z, w, got, want)
					}
				}
			}
		}
	}
}

// TestLinearReproduction verifies that the interpolant reproduces a linear
// ramp at fractional interior coordinates, where mirror boundary effects
// cannot reach.
func TestLinearReproduction(t *testing.T) {
	n := 32
	src := NewArray(n)
	for i := range src.Data {
		src.Data[i] = 2.5*float64(i) + 1
	}
	coef := NewArray(n)
	if err := Transform(coef, src); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	for _, x := range []float64{8.25, 12.5, 15.75, 20.1} {
		want := 2.5*x + 1
		got := Sample1(coef, x)
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("linear reproduction at %v: got %v, want %v", x, got, want)
		}
	}
}

// TestTransformInPlace verifies that res may alias src.
func TestTransformInPlace(t *testing.T) {
	n := 16
	a := NewArray(n)
	want := make([]float64, n)
	for i := range a.Data {
		a.Data[i] = float64(i * i % 7)
		want[i] = a.Data[i]
	}
	if err := Transform(a, a); err != nil {
		t.Fatalf("in-place transform failed: %v", err)
	}
	for i := 0; i < n; i++ {
		got := Sample1(a, float64(i))
		if math.Abs(got-want[i]) > 1e-9 {
			t.Errorf("in-place round trip at %d: got %v, want %v", i, got, want[i])
		}
	}
}

// TestTransformShapeMismatch verifies the fail-fast contract on shape
// mismatches.
func TestTransformShapeMismatch(t *testing.T) {
	if err := Transform(NewArray(4, 4), NewArray(4, 5)); err == nil {
		t.Error("expected error for mismatched shapes")
	}
	if err := Transform(NewArray(8), NewArray(2, 4)); err == nil {
		t.Error("expected error for mismatched dimensionality")
	}
}

func TestWrap(t *testing.T) {
	data := make([]float64, 12)
	if _, err := Wrap(data, 3, 4); err != nil {
		t.Errorf("Wrap rejected matching dims: %v", err)
	}
	if _, err := Wrap(data, 3, 5); err == nil {
		t.Error("Wrap accepted mismatched dims")
	}
}
