package volume

import (
	"math"
	"testing"
)

func TestBinnedAccessors(t *testing.T) {
	v := NewBinned(2, 3, 4)
	if !v.IsMasked(0, 0, 0) {
		t.Error("new binned volume must start fully masked")
	}
	v.Set(1, 2, 3, 7)
	if v.At(1, 2, 3) != 7 {
		t.Errorf("At(1,2,3) = %d, want 7", v.At(1, 2, 3))
	}
	if v.IsMasked(1, 2, 3) {
		t.Error("voxel masked after Set")
	}
	v.SetMasked(1, 2, 3)
	if !v.IsMasked(1, 2, 3) {
		t.Error("voxel not masked after SetMasked")
	}
	if v.Len() != 24 {
		t.Errorf("Len = %d, want 24", v.Len())
	}
}

func TestSetNegativeBinPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Set with a negative bin must panic")
		}
	}()
	NewBinned(1, 1, 1).Set(0, 0, 0, -3)
}

func TestMaxBin(t *testing.T) {
	v := NewBinned(2, 2, 2)
	if v.MaxBin() != Masked {
		t.Errorf("MaxBin of fully masked volume = %d, want %d", v.MaxBin(), Masked)
	}
	v.Set(0, 0, 0, 3)
	v.Set(1, 1, 1, 9)
	if v.MaxBin() != 9 {
		t.Errorf("MaxBin = %d, want 9", v.MaxBin())
	}
}

// TestPaddedBorder verifies that every border cell of the padded volume reads
// as masked and the interior is copied through at the +1 offset.
func TestPaddedBorder(t *testing.T) {
	src := NewBinned(3, 3, 3)
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 3; z++ {
				src.Set(x, y, z, int16(x+y+z))
			}
		}
	}
	p := NewPadded(src)

	nx, ny, nz := p.InteriorDims()
	if nx != 3 || ny != 3 || nz != 3 {
		t.Fatalf("InteriorDims = (%d,%d,%d), want (3,3,3)", nx, ny, nz)
	}

	// The cell with low corner (0,0,0) touches only border cells except
	// its (1,1,1) neighbor, which is interior voxel (0,0,0).
	corners := p.Gather(0, 0, 0)
	for k := 0; k < 7; k++ {
		if corners[k] >= 0 {
			t.Errorf("corner %d of cell (0,0,0) = %d, want masked", k, corners[k])
		}
	}
	if corners[7] != 0 {
		t.Errorf("corner 7 of cell (0,0,0) = %d, want 0", corners[7])
	}

	// An interior cell reads the expected eight neighbors, z fastest.
	corners = p.Gather(1, 1, 1)
	want := [8]int16{0, 1, 1, 2, 1, 2, 2, 3}
	if corners != want {
		t.Errorf("Gather(1,1,1) = %v, want %v", corners, want)
	}

	if p.MaxBin() != 6 {
		t.Errorf("MaxBin = %d, want 6", p.MaxBin())
	}
}

func TestDense(t *testing.T) {
	d := NewDense(2, 3, 4)
	d.Set(1, 2, 3, 2.5)
	if d.At(1, 2, 3) != 2.5 {
		t.Errorf("At(1,2,3) = %v, want 2.5", d.At(1, 2, 3))
	}
	if d.Data[(1*3+2)*4+3] != 2.5 {
		t.Error("Set did not write the row-major slot")
	}
}

// TestQuantize verifies the linear min/max bin mapping and threshold
// masking.
func TestQuantize(t *testing.T) {
	d := NewDense(1, 1, 5)
	copy(d.Data, []float64{0, 25, 50, 75, 100})

	b, err := Quantize(d, 5, 0)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}
	for z, want := range []int16{0, 1, 2, 3, 4} {
		if got := b.At(0, 0, z); got != want {
			t.Errorf("bin at z=%d: got %d, want %d", z, got, want)
		}
	}

	// Threshold masks low voxels and shifts the valid range.
	b, err = Quantize(d, 2, 30)
	if err != nil {
		t.Fatalf("Quantize with threshold failed: %v", err)
	}
	if !b.IsMasked(0, 0, 0) || !b.IsMasked(0, 0, 1) {
		t.Error("voxels below threshold not masked")
	}
	if b.At(0, 0, 2) != 0 || b.At(0, 0, 4) != 1 {
		t.Errorf("thresholded bins = %d, %d; want 0, 1", b.At(0, 0, 2), b.At(0, 0, 4))
	}
}

func TestQuantizeDegenerate(t *testing.T) {
	// Constant volume: everything lands in bin 0.
	d := NewDense(2, 2, 2)
	for i := range d.Data {
		d.Data[i] = math.Pi
	}
	b, err := Quantize(d, 16, 0)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 2; z++ {
				if b.At(x, y, z) != 0 {
					t.Errorf("constant volume bin at (%d,%d,%d) = %d, want 0", x, y, z, b.At(x, y, z))
				}
			}
		}
	}

	// Fully masked input stays fully masked.
	for i := range d.Data {
		d.Data[i] = -1
	}
	b, err = Quantize(d, 16, 0)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}
	if b.MaxBin() != Masked {
		t.Error("fully thresholded volume must stay masked")
	}

	if _, err := Quantize(d, 0, 0); err == nil {
		t.Error("Quantize accepted a zero bin count")
	}
}
