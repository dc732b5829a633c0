// Package histogram builds the joint intensity histogram between a binned
// source volume and a padded reference volume under an affine voxel
// transform. Each valid source voxel is mapped into the reference grid and
// votes its intensity co-occurrence into the histogram through one of three
// interpolation strategies: partial-volume weighting (Maes et al., IEEE TMI
// 1997), trilinear-nearest, or stochastic drawing.
package histogram

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"voxelreg/pkg/affine"
	"voxelreg/pkg/volume"
)

// Mode selects the interpolation strategy used to turn one transformed voxel
// into histogram votes. The strategy is resolved once per build call, not per
// voxel.
type Mode int

const (
	// PartialVolume distributes each voxel's unit mass fractionally over
	// the surviving neighbor bins by trilinear weight, yielding a
	// continuous, differentiable histogram.
	PartialVolume Mode = iota

	// TrilinearNearest rounds the trilinear weighted-mean neighbor
	// intensity to the nearest bin and votes a full unit there.
	TrilinearNearest

	// Stochastic draws a single neighbor with probability proportional to
	// its trilinear weight and votes a full unit there. Requires a seed.
	Stochastic
)

func (m Mode) String() string {
	switch m {
	case PartialVolume:
		return "pv"
	case TrilinearNearest:
		return "tri"
	case Stochastic:
		return "rand"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options controls a single histogram build.
type Options struct {
	// Mode is the interpolation strategy.
	Mode Mode

	// Seed seeds the generator for the stochastic mode. The generator is
	// owned by the build call; two builds with equal inputs and seed
	// produce identical histograms.
	Seed uint64

	// Step is the source-voxel subsampling stride per axis. Zero or
	// negative entries mean 1 (every voxel).
	Step [3]int
}

func (o Options) step() (sx, sy, sz int) {
	sx, sy, sz = o.Step[0], o.Step[1], o.Step[2]
	if sx < 1 {
		sx = 1
	}
	if sy < 1 {
		sy = 1
	}
	if sz < 1 {
		sz = 1
	}
	return sx, sy, sz
}

// Hist is a dense joint histogram of non-negative real counts, indexed
// [i][j] with i in [0,clampI) source bins and j in [0,clampJ) reference
// bins.
type Hist struct {
	counts         []float64
	clampI, clampJ int
}

// New allocates a zeroed clampI x clampJ histogram.
func New(clampI, clampJ int) *Hist {
	if clampI < 1 || clampJ < 1 {
		panic(fmt.Sprintf("histogram: non-positive clamp %dx%d", clampI, clampJ))
	}
	return &Hist{
		counts: make([]float64, clampI*clampJ),
		clampI: clampI,
		clampJ: clampJ,
	}
}

// ClampI returns the number of source bins.
func (h *Hist) ClampI() int { return h.clampI }

// ClampJ returns the number of reference bins.
func (h *Hist) ClampJ() int { return h.clampJ }

// At returns the count at (i,j).
func (h *Hist) At(i, j int) float64 { return h.counts[i*h.clampJ+j] }

// Add increments the count at (i,j) by w.
func (h *Hist) Add(i, j int, w float64) { h.counts[i*h.clampJ+j] += w }

// Counts exposes the underlying row-major count buffer.
func (h *Hist) Counts() []float64 { return h.counts }

// Sum returns the total accumulated mass.
func (h *Hist) Sum() float64 { return floats.Sum(h.counts) }

// Reset zeroes every count.
func (h *Hist) Reset() {
	for i := range h.counts {
		h.counts[i] = 0
	}
}

// MarginalI sums the histogram over the reference axis into dst, which must
// have length clampI, and returns the total mass.
func (h *Hist) MarginalI(dst []float64) float64 {
	if len(dst) != h.clampI {
		panic(fmt.Sprintf("histogram: marginal buffer length %d, want %d", len(dst), h.clampI))
	}
	sum := 0.0
	for i := 0; i < h.clampI; i++ {
		row := h.counts[i*h.clampJ : (i+1)*h.clampJ]
		s := floats.Sum(row)
		dst[i] = s
		sum += s
	}
	return sum
}

// MarginalJ sums the histogram over the source axis into dst, which must
// have length clampJ, and returns the total mass.
func (h *Hist) MarginalJ(dst []float64) float64 {
	if len(dst) != h.clampJ {
		panic(fmt.Sprintf("histogram: marginal buffer length %d, want %d", len(dst), h.clampJ))
	}
	for j := range dst {
		dst[j] = 0
	}
	sum := 0.0
	for i := 0; i < h.clampI; i++ {
		row := h.counts[i*h.clampJ : (i+1)*h.clampJ]
		for j, c := range row {
			dst[j] += c
			sum += c
		}
	}
	return sum
}

// Build zeroes h and accumulates intensity co-occurrences for every source
// voxel (subject to the subsampling stride) whose intensity is valid and
// whose transformed location lands inside the reference interpolation
// neighborhood. Bin values exceeding the histogram clamps are a programmer
// error and fail fast before any accumulation.
func (h *Hist) Build(src *volume.Binned, ref *volume.Padded, t affine.Transform, opts Options) error {
	if err := h.checkClamps(src, ref); err != nil {
		return err
	}
	h.Reset()
	strat := newStrategy(opts.Mode, opts.Seed)
	nx, _, _ := src.Dims()
	h.buildRange(src, ref, t, opts, strat, 0, nx)
	return nil
}

// BuildParallel behaves like Build but partitions the source volume into
// slabs along the slowest axis, accumulates a private histogram per worker,
// and merges the partial histograms by summation. Summation order differs
// from the sequential build, so partial-volume counts match only within
// floating-point tolerance; trilinear and stochastic counts are integral and
// match exactly in total mass. In stochastic mode worker w draws from a
// generator seeded with Seed+w, so results are reproducible for a fixed
// worker count.
func (h *Hist) BuildParallel(src *volume.Binned, ref *volume.Padded, t affine.Transform, opts Options, workers int) error {
	if workers < 1 {
		return fmt.Errorf("histogram: worker count %d < 1", workers)
	}
	nx, _, _ := src.Dims()
	if workers == 1 || nx < 2*workers {
		return h.Build(src, ref, t, opts)
	}
	if err := h.checkClamps(src, ref); err != nil {
		return err
	}
	h.Reset()

	locals := make([]*Hist, workers)
	slab := (nx + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		x0 := w * slab
		x1 := x0 + slab
		if x1 > nx {
			x1 = nx
		}
		if x0 >= x1 {
			continue
		}
		local := New(h.clampI, h.clampJ)
		locals[w] = local
		wg.Add(1)
		go func(w, x0, x1 int, local *Hist) {
			defer wg.Done()
			strat := newStrategy(opts.Mode, opts.Seed+uint64(w))
			local.buildRange(src, ref, t, opts, strat, x0, x1)
		}(w, x0, x1, local)
	}
	wg.Wait()

	for _, local := range locals {
		if local != nil {
			floats.Add(h.counts, local.counts)
		}
	}
	return nil
}

func (h *Hist) checkClamps(src *volume.Binned, ref *volume.Padded) error {
	if max := src.MaxBin(); int(max) >= h.clampI {
		return fmt.Errorf("histogram: source bin %d exceeds clampI %d", max, h.clampI)
	}
	if max := ref.MaxBin(); int(max) >= h.clampJ {
		return fmt.Errorf("histogram: reference bin %d exceeds clampJ %d", max, h.clampJ)
	}
	return nil
}

// buildRange accumulates source voxels with x in [x0,x1). The neighbor
// enumeration, weight decomposition and bounds test mirror the reference
// formulation: a transformed point contributes when each coordinate lies in
// (-1, dim), and neighbors falling on the masked padding border drop out of
// the vote without redistribution.
func (h *Hist) buildRange(src *volume.Binned, ref *volume.Padded, t affine.Transform, opts Options, strat strategy, x0, x1 int) {
	_, ny, nz := src.Dims()
	dimX, dimY, dimZ := ref.InteriorDims()
	fdx, fdy, fdz := float64(dimX), float64(dimY), float64(dimZ)
	sx, sy, sz := opts.step()

	var jnn [8]int16
	var wts [8]float64

	for x := x0; x < x1; x += sx {
		for y := 0; y < ny; y += sy {
			for z := 0; z < nz; z += sz {
				i := src.At(x, y, z)
				if i < 0 {
					continue
				}
				tx, ty, tz := t.Apply(x, y, z)
				if tx <= -1 || tx >= fdx ||
					ty <= -1 || ty >= fdy ||
					tz <= -1 || tz >= fdz {
					continue
				}

				// Floor coordinates in the padded grid, hence +1.
				cx := int(math.Floor(tx)) + 1
				cy := int(math.Floor(ty)) + 1
				cz := int(math.Floor(tz)) + 1

				wx := float64(cx) - tx
				wy := float64(cy) - ty
				wz := float64(cz) - tz
				wxwy := wx * wy
				wxwz := wx * wz
				wywz := wy * wz

				w0 := wxwy * wz
				w2 := wxwz - w0
				w3 := wx - wxwy - w2
				w4 := wywz - w0

				corners := ref.Gather(cx, cy, cz)
				weights := [8]float64{
					w0,
					wxwy - w0,
					w2,
					w3,
					w4,
					wy - wxwy - w4,
					wz - wxwz - w4,
					1 - w3 - wy - wz + wywz,
				}

				// Keep only unmasked neighbors; masked weight is
				// dropped, not redistributed.
				nn := 0
				for k, j := range corners {
					if j >= 0 {
						jnn[nn] = j
						wts[nn] = weights[k]
						nn++
					}
				}
				if nn > 0 {
					strat.vote(h, int(i), jnn[:nn], wts[:nn])
				}
			}
		}
	}
}

// strategy turns one voxel's surviving neighbors into histogram votes.
type strategy interface {
	vote(h *Hist, i int, jnn []int16, w []float64)
}

func newStrategy(m Mode, seed uint64) strategy {
	switch m {
	case TrilinearNearest:
		return triStrategy{}
	case Stochastic:
		return &randStrategy{rng: rand.New(rand.NewSource(seed))}
	default:
		return pvStrategy{}
	}
}

type pvStrategy struct{}

func (pvStrategy) vote(h *Hist, i int, jnn []int16, w []float64) {
	row := h.counts[i*h.clampJ : (i+1)*h.clampJ]
	for k, j := range jnn {
		row[j] += w[k]
	}
}

type triStrategy struct{}

func (triStrategy) vote(h *Hist, i int, jnn []int16, w []float64) {
	sumW := 0.0
	jm := 0.0
	for k, j := range jnn {
		sumW += w[k]
		jm += w[k] * float64(j)
	}
	if sumW > 0 {
		h.counts[i*h.clampJ+int(jm/sumW+0.5)]++
	}
}

type randStrategy struct {
	rng *rand.Rand
}

func (s *randStrategy) vote(h *Hist, i int, jnn []int16, w []float64) {
	draw := floats.Sum(w) * s.rng.Float64()
	k := 0
	cum := 0.0
	for ; k < len(w); k++ {
		cum += w[k]
		if cum > draw {
			break
		}
	}
	if k == len(w) {
		k = len(w) - 1
	}
	h.counts[i*h.clampJ+int(jnn[k])]++
}
