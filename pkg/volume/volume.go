// Package volume holds the 3D intensity containers used by the registration
// core: dense float64 volumes as handed in by the image layer, quantized
// (binned) volumes consumed by the joint histogram, and the padded reference
// volume whose one-voxel border keeps the interpolation inner loop free of
// bounds checks.
//
// Voxels are stored row-major with z varying fastest. Masked voxels are
// represented by a sentinel bin value that only this package's accessors
// interpret; callers use IsMasked and SetMasked rather than testing the
// numeric range themselves.
package volume

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Masked is the bin value marking an invalid voxel. Masked voxels are
// excluded from histogram accumulation and never selected as interpolation
// neighbors.
const Masked int16 = -1

// Dense is a 3D float64 volume in row-major order (z fastest), the raw form
// supplied by the surrounding image layer.
type Dense struct {
	// Data is the voxel data as a 1D array in row-major order.
	Data []float64

	// Nx, Ny, Nz are the volume dimensions in voxels.
	Nx, Ny, Nz int
}

// NewDense allocates a zeroed dense volume.
func NewDense(nx, ny, nz int) *Dense {
	return &Dense{
		Data: make([]float64, nx*ny*nz),
		Nx:   nx, Ny: ny, Nz: nz,
	}
}

// At returns the voxel value at (x,y,z).
func (d *Dense) At(x, y, z int) float64 {
	return d.Data[(x*d.Ny+y)*d.Nz+z]
}

// Set stores a voxel value at (x,y,z).
func (d *Dense) Set(x, y, z int, v float64) {
	d.Data[(x*d.Ny+y)*d.Nz+z] = v
}

// Binned is a 3D volume of discretized intensity bins, the form consumed by
// the joint histogram builder. Bin values lie in [0, bins) for valid voxels;
// invalid voxels carry the masked sentinel.
type Binned struct {
	data       []int16
	nx, ny, nz int
}

// NewBinned allocates a binned volume with every voxel masked.
func NewBinned(nx, ny, nz int) *Binned {
	data := make([]int16, nx*ny*nz)
	for i := range data {
		data[i] = Masked
	}
	return &Binned{data: data, nx: nx, ny: ny, nz: nz}
}

// Dims returns the volume dimensions.
func (v *Binned) Dims() (nx, ny, nz int) { return v.nx, v.ny, v.nz }

// Len returns the total voxel count.
func (v *Binned) Len() int { return len(v.data) }

// At returns the bin at (x,y,z); the result is only meaningful when the voxel
// is not masked.
func (v *Binned) At(x, y, z int) int16 {
	return v.data[(x*v.ny+y)*v.nz+z]
}

// Set stores a bin value at (x,y,z). Negative bins are a programmer error;
// use SetMasked to invalidate a voxel.
func (v *Binned) Set(x, y, z int, bin int16) {
	if bin < 0 {
		panic(fmt.Sprintf("volume: negative bin %d at (%d,%d,%d); use SetMasked", bin, x, y, z))
	}
	v.data[(x*v.ny+y)*v.nz+z] = bin
}

// SetMasked marks the voxel at (x,y,z) invalid.
func (v *Binned) SetMasked(x, y, z int) {
	v.data[(x*v.ny+y)*v.nz+z] = Masked
}

// IsMasked reports whether the voxel at (x,y,z) is invalid.
func (v *Binned) IsMasked(x, y, z int) bool {
	return v.data[(x*v.ny+y)*v.nz+z] < 0
}

// MaxBin returns the largest bin value present, or -1 when every voxel is
// masked.
func (v *Binned) MaxBin() int16 {
	max := Masked
	for _, b := range v.data {
		if b > max {
			max = b
		}
	}
	return max
}

// Padded is a binned reference volume carrying a one-voxel masked border on
// every face. The border is established at construction and never mutated,
// so neighbor gathers with coordinates in the padded range need no bounds
// checks: out-of-grid neighbors simply read as masked.
type Padded struct {
	data       []int16
	nx, ny, nz int // interior dimensions
}

// NewPadded copies src into a freshly allocated padded volume.
func NewPadded(src *Binned) *Padded {
	nx, ny, nz := src.Dims()
	px, py, pz := nx+2, ny+2, nz+2
	data := make([]int16, px*py*pz)
	for i := range data {
		data[i] = Masked
	}
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			srcRow := (x*ny + y) * nz
			dstRow := ((x+1)*py+y+1)*pz + 1
			copy(data[dstRow:dstRow+nz], src.data[srcRow:srcRow+nz])
		}
	}
	return &Padded{data: data, nx: nx, ny: ny, nz: nz}
}

// InteriorDims returns the dimensions of the unpadded volume.
func (p *Padded) InteriorDims() (nx, ny, nz int) { return p.nx, p.ny, p.nz }

// MaxBin returns the largest bin value present in the interior, or -1 when
// every voxel is masked.
func (p *Padded) MaxBin() int16 {
	max := Masked
	for _, b := range p.data {
		if b > max {
			max = b
		}
	}
	return max
}

// Gather returns the eight cell intensities of the unit cube whose low corner
// is (cx,cy,cz) in padded coordinates, ordered with z varying fastest:
// (0,0,0), (0,0,1), (0,1,0), (0,1,1), (1,0,0), (1,0,1), (1,1,0), (1,1,1).
// The low corner must lie in [0, dim] on each axis so that the high corner
// stays within the padded grid.
func (p *Padded) Gather(cx, cy, cz int) [8]int16 {
	pz := p.nz + 2
	py := p.ny + 2
	uz := 1
	uy := pz
	ux := py * pz
	off := cx*ux + cy*uy + cz
	return [8]int16{
		p.data[off],
		p.data[off+uz],
		p.data[off+uy],
		p.data[off+uy+uz],
		p.data[off+ux],
		p.data[off+ux+uz],
		p.data[off+ux+uy],
		p.data[off+ux+uy+uz],
	}
}

// Quantize maps the raw intensities of d onto bins [0, bins) by linear
// min/max scaling, the discretization step the histogram builder expects.
// Voxels with intensity below threshold are masked. When the valid intensity
// range is degenerate every valid voxel lands in bin 0.
func Quantize(d *Dense, bins int, threshold float64) (*Binned, error) {
	if bins < 1 || bins > 32768 {
		return nil, fmt.Errorf("volume: bin count %d outside [1, 32768]", bins)
	}
	lo, hi := 0.0, 0.0
	valid := make([]float64, 0, len(d.Data))
	for _, v := range d.Data {
		if v >= threshold {
			valid = append(valid, v)
		}
	}
	if len(valid) > 0 {
		lo = floats.Min(valid)
		hi = floats.Max(valid)
	}

	out := NewBinned(d.Nx, d.Ny, d.Nz)
	if len(valid) == 0 {
		return out, nil
	}
	scale := 0.0
	if hi > lo {
		scale = float64(bins-1) / (hi - lo)
	}
	for i, v := range d.Data {
		if v < threshold {
			continue // stays masked
		}
		out.data[i] = int16((v-lo)*scale + 0.5)
	}
	return out, nil
}
