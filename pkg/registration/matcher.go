// Package registration evaluates histogram-based similarity scores between a
// source and a target volume under proposed affine transforms. It is the
// inner loop of an iterative registration driver: an external optimizer
// proposes transforms and reads back scores; this package owns the joint
// histogram, the interpolation strategy and the statistic.
package registration

import (
	"fmt"

	"voxelreg/pkg/affine"
	"voxelreg/pkg/config"
	"voxelreg/pkg/histogram"
	"voxelreg/pkg/similarity"
	"voxelreg/pkg/volume"
)

// Params holds the matcher configuration.
type Params struct {
	// SourceBins and TargetBins are the histogram clamp sizes.
	SourceBins int
	TargetBins int

	// Interpolation selects the histogram accumulation strategy.
	Interpolation histogram.Mode

	// Measure names the similarity statistic: cc, cr, crl1, je, ce, mi,
	// nmi or smi. The smi measure needs a prior set with SetPrior before
	// the first evaluation.
	Measure string

	// Seed seeds the stochastic interpolation mode.
	Seed uint64

	// Subsampling is the source-voxel stride per axis; zero entries mean 1.
	Subsampling [3]int

	// NumCores is the worker count for histogram accumulation; values
	// below 2 keep the build sequential.
	NumCores int
}

// Matcher evaluates similarity scores for one source/target pair. The source
// and target are fixed at construction; only the transform varies between
// evaluations.
type Matcher struct {
	params  Params
	source  *volume.Binned
	target  *volume.Padded
	hist    *histogram.Hist
	measure similarity.Measure
	prior   *histogram.Hist
}

// NewMatcher builds a matcher over a binned source and target. The target is
// copied into its padded form once, up front.
func NewMatcher(source, target *volume.Binned, p Params) (*Matcher, error) {
	if p.SourceBins < 1 || p.TargetBins < 1 {
		return nil, fmt.Errorf("registration: non-positive bin counts %dx%d", p.SourceBins, p.TargetBins)
	}
	if int(source.MaxBin()) >= p.SourceBins {
		return nil, fmt.Errorf("registration: source bin %d exceeds %d bins", source.MaxBin(), p.SourceBins)
	}
	if int(target.MaxBin()) >= p.TargetBins {
		return nil, fmt.Errorf("registration: target bin %d exceeds %d bins", target.MaxBin(), p.TargetBins)
	}
	m := &Matcher{
		params: p,
		source: source,
		target: volume.NewPadded(target),
		hist:   histogram.New(p.SourceBins, p.TargetBins),
	}
	if p.Measure != "smi" {
		measure, err := similarity.ByName(p.Measure)
		if err != nil {
			return nil, err
		}
		m.measure = measure
	}
	return m, nil
}

// SetPrior installs the reference joint distribution used by the smi
// measure. The prior must match the histogram shape.
func (m *Matcher) SetPrior(f *histogram.Hist) error {
	if f.ClampI() != m.params.SourceBins || f.ClampJ() != m.params.TargetBins {
		return fmt.Errorf("registration: prior shape %dx%d does not match %dx%d",
			f.ClampI(), f.ClampJ(), m.params.SourceBins, m.params.TargetBins)
	}
	m.prior = f
	return nil
}

// Eval accumulates the joint histogram under t and returns the configured
// similarity score.
func (m *Matcher) Eval(t affine.Transform) (float64, error) {
	opts := histogram.Options{
		Mode: m.params.Interpolation,
		Seed: m.params.Seed,
		Step: m.params.Subsampling,
	}
	var err error
	if m.params.NumCores > 1 {
		err = m.hist.BuildParallel(m.source, m.target, t, opts, m.params.NumCores)
	} else {
		err = m.hist.Build(m.source, m.target, t, opts)
	}
	if err != nil {
		return 0, err
	}

	if m.params.Measure == "smi" {
		if m.prior == nil {
			return 0, fmt.Errorf("registration: smi measure requires a prior; call SetPrior first")
		}
		return similarity.SupervisedMutualInformation(m.hist, m.prior)
	}
	return m.measure(m.hist), nil
}

// Histogram exposes the joint histogram accumulated by the last Eval. The
// buffer is reused across evaluations.
func (m *Matcher) Histogram() *histogram.Hist {
	return m.hist
}

// FromConfig quantizes two raw volumes according to cfg and builds a matcher
// from them.
func FromConfig(cfg *config.Config, source, target *volume.Dense) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := interpolationMode(cfg.Histogram.Interpolation)
	if err != nil {
		return nil, err
	}
	src, err := volume.Quantize(source, cfg.Histogram.SourceBins, cfg.Quantization.Threshold)
	if err != nil {
		return nil, err
	}
	tgt, err := volume.Quantize(target, cfg.Histogram.TargetBins, cfg.Quantization.Threshold)
	if err != nil {
		return nil, err
	}
	return NewMatcher(src, tgt, Params{
		SourceBins:    cfg.Histogram.SourceBins,
		TargetBins:    cfg.Histogram.TargetBins,
		Interpolation: mode,
		Measure:       cfg.Similarity.Measure,
		Seed:          cfg.Histogram.Seed,
		Subsampling:   cfg.Histogram.Subsampling,
		NumCores:      cfg.Processing.NumCores,
	})
}

func interpolationMode(name string) (histogram.Mode, error) {
	switch name {
	case "pv":
		return histogram.PartialVolume, nil
	case "tri":
		return histogram.TrilinearNearest, nil
	case "rand":
		return histogram.Stochastic, nil
	default:
		return 0, fmt.Errorf("registration: unknown interpolation %q (want pv, tri or rand)", name)
	}
}
