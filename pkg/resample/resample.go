// Package resample produces a fully resampled 3D volume under an affine
// voxel transform, evaluating the input at sub-voxel precision through its
// cubic spline coefficient representation.
package resample

import (
	"fmt"
	"sync"

	"voxelreg/pkg/affine"
	"voxelreg/pkg/spline"
	"voxelreg/pkg/volume"
)

// Resample fills every voxel of out by mapping its coordinates through t
// into the grid of in and sampling the cubic spline interpolant there.
// Coordinates falling outside [0, dim-1] on any axis write zero. The output
// shape is independent of the input shape.
func Resample(out, in *volume.Dense, t affine.Transform) error {
	coef, err := coefficients(in)
	if err != nil {
		return err
	}
	fillRange(out, coef, in, t, 0, out.Nx)
	return nil
}

// ResampleParallel behaves like Resample with the output partitioned into
// slabs along the slowest axis, one worker per slab. Workers write disjoint
// output regions, so the result is identical to the sequential one.
func ResampleParallel(out, in *volume.Dense, t affine.Transform, workers int) error {
	if workers < 1 {
		return fmt.Errorf("resample: worker count %d < 1", workers)
	}
	if workers == 1 || out.Nx < 2*workers {
		return Resample(out, in, t)
	}
	coef, err := coefficients(in)
	if err != nil {
		return err
	}

	slab := (out.Nx + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		x0 := w * slab
		x1 := x0 + slab
		if x1 > out.Nx {
			x1 = out.Nx
		}
		if x0 >= x1 {
			continue
		}
		wg.Add(1)
		go func(x0, x1 int) {
			defer wg.Done()
			fillRange(out, coef, in, t, x0, x1)
		}(x0, x1)
	}
	wg.Wait()
	return nil
}

// coefficients computes the spline coefficient array of in.
func coefficients(in *volume.Dense) (*spline.Array, error) {
	src, err := spline.Wrap(in.Data, in.Nx, in.Ny, in.Nz)
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	coef := spline.NewArray(in.Nx, in.Ny, in.Nz)
	if err := spline.Transform(coef, src); err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	return coef, nil
}

func fillRange(out *volume.Dense, coef *spline.Array, in *volume.Dense, t affine.Transform, x0, x1 int) {
	ddx := float64(in.Nx - 1)
	ddy := float64(in.Ny - 1)
	ddz := float64(in.Nz - 1)
	for x := x0; x < x1; x++ {
		for y := 0; y < out.Ny; y++ {
			for z := 0; z < out.Nz; z++ {
				tx, ty, tz := t.Apply(x, y, z)
				v := 0.0
				if tx >= 0 && tx <= ddx &&
					ty >= 0 && ty <= ddy &&
					tz >= 0 && tz <= ddz {
					v = spline.Sample3(coef, tx, ty, tz)
				}
				out.Set(x, y, z, v)
			}
		}
	}
}
