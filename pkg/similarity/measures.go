package similarity

import (
	"fmt"
	"sort"

	"voxelreg/pkg/histogram"
)

// Measure is a similarity statistic over a joint histogram.
type Measure func(h *histogram.Hist) float64

var measures = map[string]Measure{
	"cc":   CorrelationCoefficient,
	"cr":   CorrelationRatio,
	"crl1": CorrelationRatioL1,
	"je":   JointEntropy,
	"ce":   ConditionalEntropy,
	"mi":   MutualInformation,
	"nmi":  NormalizedMutualInformation,
}

// ByName resolves a measure from its short name: cc, cr, crl1, je, ce, mi or
// nmi. Supervised mutual information ("smi") takes a prior histogram and is
// exposed as SupervisedMutualInformation instead.
func ByName(name string) (Measure, error) {
	m, ok := measures[name]
	if !ok {
		return nil, fmt.Errorf("similarity: unknown measure %q (have %v)", name, Names())
	}
	return m, nil
}

// Names lists the registered measure names in sorted order.
func Names() []string {
	names := make([]string, 0, len(measures))
	for name := range measures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
