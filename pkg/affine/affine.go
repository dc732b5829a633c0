// Package affine implements the voxel-to-voxel affine transforms used to map
// source-grid coordinates into a target grid during registration. A transform
// is a 3x4 real matrix applied to integer voxel coordinates, producing
// continuous coordinates in the target grid.
package affine

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transform is a 3x4 affine matrix stored row-major: three rows of
// [a b c d], each mapping (x,y,z) to a*x+b*y+c*z+d.
type Transform [12]float64

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	}
}

// Translation returns a pure translation by (dx,dy,dz).
func Translation(dx, dy, dz float64) Transform {
	return Transform{
		1, 0, 0, dx,
		0, 1, 0, dy,
		0, 0, 1, dz,
	}
}

// FromMatrix builds a transform from a 3x4 matrix, or from a 4x4 homogeneous
// matrix whose last row is ignored. Any other shape is an error.
func FromMatrix(m mat.Matrix) (Transform, error) {
	var t Transform
	r, c := m.Dims()
	if c != 4 || (r != 3 && r != 4) {
		return t, fmt.Errorf("affine: expected a 3x4 or 4x4 matrix, got %dx%d", r, c)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			t[4*i+j] = m.At(i, j)
		}
	}
	return t, nil
}

// Apply maps the integer voxel coordinates (x,y,z) to continuous target-grid
// coordinates. It is a pure function, defined for any finite input.
func (t *Transform) Apply(x, y, z int) (tx, ty, tz float64) {
	fx, fy, fz := float64(x), float64(y), float64(z)
	tx = t[0]*fx + t[1]*fy + t[2]*fz + t[3]
	ty = t[4]*fx + t[5]*fy + t[6]*fz + t[7]
	tz = t[8]*fx + t[9]*fy + t[10]*fz + t[11]
	return tx, ty, tz
}

// Compose returns the transform equivalent to applying b first, then a.
func Compose(a, b Transform) Transform {
	am := a.homogeneous()
	bm := b.homogeneous()
	var cm mat.Dense
	cm.Mul(am, bm)
	t, _ := FromMatrix(&cm)
	return t
}

// Matrix returns the transform as a 4x4 homogeneous gonum matrix, with
// [0 0 0 1] appended as the last row.
func (t *Transform) Matrix() *mat.Dense {
	return t.homogeneous()
}

func (t *Transform) homogeneous() *mat.Dense {
	data := make([]float64, 16)
	copy(data, t[:])
	data[15] = 1
	return mat.NewDense(4, 4, data)
}
