// Package similarity computes histogram-based similarity statistics between
// two images: correlation coefficient, correlation ratio (L2 and L1),
// entropy-based measures (joint and conditional entropy, mutual information,
// normalized mutual information per Studholme 1998) and supervised mutual
// information (Roche 2001).
//
// Every statistic is a pure function of a fixed joint histogram. Degenerate
// inputs — empty histograms, zero variance, zero marginal mass — yield a
// defined zero result rather than an error or NaN.
package similarity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"voxelreg/pkg/histogram"
)

// tiny floors the argument of every logarithm so that empty bins contribute
// log(tiny) instead of -Inf.
const tiny = 1e-30

func safelog(x float64) float64 {
	if x > tiny {
		return math.Log(x)
	}
	return math.Log(tiny)
}

// CorrelationCoefficient returns the squared Pearson correlation between the
// source and reference bin indices weighted by the histogram counts. The
// result lies in [0,1]; zero total mass or a zero variance product yields 0.
func CorrelationCoefficient(h *histogram.Hist) float64 {
	n := h.Sum()
	if n <= 0 {
		return 0
	}
	clampI, clampJ := h.ClampI(), h.ClampJ()
	size := clampI * clampJ
	xi := make([]float64, size)
	xj := make([]float64, size)
	for i := 0; i < clampI; i++ {
		for j := 0; j < clampJ; j++ {
			xi[i*clampJ+j] = float64(i)
			xj[i*clampJ+j] = float64(j)
		}
	}
	// The (n-1) normalization shared by the weighted covariance and
	// variances cancels in the ratio, leaving the population-moment form
	// cov^2/(varI*varJ). The ratio is invariant under uniform weight
	// scaling, so a total mass of exactly 1 is rescaled to keep the shared
	// factor nonzero.
	w := h.Counts()
	if n == 1 {
		w = make([]float64, size)
		floats.AddScaled(w, 2, h.Counts())
	}
	cov := stat.Covariance(xi, xj, w)
	varI := stat.Variance(xi, w)
	varJ := stat.Variance(xj, w)
	prod := varI * varJ
	if !(prod > 0) {
		return 0
	}
	return cov * cov / prod
}

// CorrelationRatio returns the L2 correlation ratio of the source intensity
// given the reference intensity: one minus the ratio of mean conditional
// variance to total variance. The result lies in [0,1]; zero mass or zero
// total variance yields 0.
func CorrelationRatio(h *histogram.Hist) float64 {
	clampI, clampJ := h.ClampI(), h.ClampJ()
	var na, mean, variance, cvar float64

	for j := 0; j < clampJ; j++ {
		var nJ, mJ, vJ float64
		for i := 0; i < clampI; i++ {
			c := h.At(i, j)
			nJ += c
			ic := float64(i) * c
			mJ += ic
			vJ += float64(i) * ic
		}
		if nJ > 0 {
			na += nJ
			mean += mJ
			variance += vJ
			mJ /= nJ
			vJ = vJ/nJ - mJ*mJ
			cvar += nJ * vJ
		}
	}

	if na <= 0 {
		return 0
	}
	mean /= na
	variance = variance/na - mean*mean
	cvar /= na
	if variance <= 0 {
		return 0
	}
	return 1 - cvar/variance
}

// CorrelationRatioL1 is the L1 analogue of the correlation ratio, built from
// median absolute deviations instead of variances and squared for
// comparability with the L2 form.
func CorrelationRatioL1(h *histogram.Hist) float64 {
	clampI, clampJ := h.ClampI(), h.ClampJ()
	counts := h.Counts()
	var na, cdev float64

	for j := 0; j < clampJ; j++ {
		_, dJ, nJ := l1Moments(counts[j:], clampI, clampJ)
		cdev += nJ * dJ
		na += nJ
	}
	if na <= 0 {
		return 0
	}
	cdev /= na

	hI := make([]float64, clampI)
	h.MarginalI(hI)
	_, dev, _ := l1Moments(hI, clampI, 1)
	if dev == 0 {
		return 0
	}
	return 1 - (cdev*cdev)/(dev*dev)
}

// l1Moments walks a strided 1D histogram and returns its median index (the
// smallest index whose cumulative mass reaches half the total), the mean
// absolute deviation from that median, and the total mass.
func l1Moments(hist []float64, clamp, stride int) (median, dev, sum float64) {
	for i := 0; i < clamp; i++ {
		sum += hist[i*stride]
	}
	if sum == 0 {
		return 0, 0, 0
	}

	lim := 0.5 * sum
	i := 0
	cpdf := hist[0]
	auxdev := 0.0
	for cpdf < lim {
		i++
		cpdf += hist[i*stride]
		auxdev -= float64(i) * hist[i*stride]
	}

	// auxdev now holds -sum_{0<k<=med} k*h(k); fold in the boundary term,
	// then add the truncated mean above the median.
	median = float64(i)
	auxdev += (2*cpdf - sum) * median
	for k := i + 1; k < clamp; k++ {
		auxdev += float64(k) * hist[k*stride]
	}
	return median, auxdev / sum, sum
}

// Entropy returns the Shannon entropy of the normalized histogram counts,
// together with their total mass. Zero mass yields (0, 0).
func Entropy(counts []float64) (entropy, mass float64) {
	sum := floats.Sum(counts)
	if sum <= 0 {
		return 0, 0
	}
	e := 0.0
	for _, c := range counts {
		p := c / sum
		e -= p * safelog(p)
	}
	return e, sum
}

// JointEntropy returns the entropy of the joint histogram.
func JointEntropy(h *histogram.Hist) float64 {
	e, _ := Entropy(h.Counts())
	return e
}

// ConditionalEntropy returns the entropy of the source intensity given the
// reference intensity, H(I,J) - H(J).
func ConditionalEntropy(h *histogram.Hist) float64 {
	hJ := make([]float64, h.ClampJ())
	h.MarginalJ(hJ)
	entIJ, _ := Entropy(h.Counts())
	entJ, _ := Entropy(hJ)
	return entIJ - entJ
}

// MutualInformation returns H(I) + H(J) - H(I,J).
func MutualInformation(h *histogram.Hist) float64 {
	hI := make([]float64, h.ClampI())
	hJ := make([]float64, h.ClampJ())
	h.MarginalI(hI)
	h.MarginalJ(hJ)
	entI, _ := Entropy(hI)
	entJ, _ := Entropy(hJ)
	entIJ, _ := Entropy(h.Counts())
	return entI + entJ - entIJ
}

// NormalizedMutualInformation returns 2*(1 - H(I,J)/(H(I)+H(J))), the
// normalized form advocated by Studholme 1998, or 0 when the marginal
// entropies sum to zero.
func NormalizedMutualInformation(h *histogram.Hist) float64 {
	hI := make([]float64, h.ClampI())
	hJ := make([]float64, h.ClampJ())
	h.MarginalI(hI)
	h.MarginalJ(hJ)
	entI, _ := Entropy(hI)
	entJ, _ := Entropy(hJ)
	entIJ, _ := Entropy(h.Counts())
	den := entI + entJ
	if den <= 0 {
		return 0
	}
	return 2 * (1 - entIJ/den)
}

// SupervisedMutualInformation scores h against an auxiliary prior joint
// distribution f of the same shape, per Roche 2001:
// sum H[i][j]*log(F[i][j]/(fI[i]*fJ[j])) with F's marginals normalized by
// F's own total mass, divided by the total mass of h. Zero marginal products
// contribute a floored log term; a shape mismatch is an error.
func SupervisedMutualInformation(h, f *histogram.Hist) (float64, error) {
	if h.ClampI() != f.ClampI() || h.ClampJ() != f.ClampJ() {
		return 0, fmt.Errorf("similarity: prior shape %dx%d does not match histogram %dx%d",
			f.ClampI(), f.ClampJ(), h.ClampI(), h.ClampJ())
	}
	clampI, clampJ := h.ClampI(), h.ClampJ()
	fI := make([]float64, clampI)
	fJ := make([]float64, clampJ)
	f.MarginalI(fI)
	sumF := f.MarginalJ(fJ)

	var na, smi float64
	for i := 0; i < clampI; i++ {
		fi := fI[i] / sumF
		for j := 0; j < clampJ; j++ {
			hij := h.At(i, j)
			na += hij
			ratio := 0.0
			if p := fi * fJ[j]; p > 0 {
				ratio = f.At(i, j) / p
			}
			smi += hij * safelog(ratio)
		}
	}
	if na > 0 {
		smi /= na
	}
	return smi, nil
}
