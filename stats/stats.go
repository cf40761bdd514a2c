/*
Package stats provides sufficient statistics: incremental summaries of the
values a feature takes on the samples of each class, enough to evaluate binary
splits on that feature without keeping the samples.
*/
package stats

import (
	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/impurity"
	"github.com/pkg/errors"
)

// DefaultSplitPoints is the number of evenly spaced thresholds a
// Gaussian statistic evaluates between the extreme values it observed.
const DefaultSplitPoints = 10

/*
SufficientStatistic accumulates the values of one feature for the samples
that reach a leaf.

Its Add method takes a value and a label and updates the statistic. It returns
an error matching feature.ErrTypeMismatch if the value does not belong to the
domain of the feature, or feature.ErrSchemaMismatch if the label is out of
range, without modifying the statistic.

Its BestSplit method takes an impurity metric and returns the binary split of
the observed samples with the lowest weighted impurity, or nil if fewer than
two distinct values or fewer than two labels have been observed.

Its Count method returns the number of values added.
*/
type SufficientStatistic interface {
	Add(value interface{}, label int) error
	BestSplit(m impurity.Metric) *Split
	Count() int
}

/*
Split is a candidate binary split of the samples summarised by a
SufficientStatistic.
*/
type Split struct {
	// Criterion sends the samples that satisfy it right
	// and the rest left.
	Criterion feature.Criterion
	// Impurity is the impurity of each side of the split
	// weighted by its share of the samples.
	Impurity float64
	// Gain is the impurity of all the samples minus
	// Impurity, never negative.
	Gain float64
}

/*
New takes a feature, the number of classes and the number of split points for
continuous features, and returns a fresh SufficientStatistic for the feature:
a Gaussian for continuous features and a Counting for discrete ones. It
returns an error matching feature.ErrConfiguration for any other kind of
feature.
*/
func New(f feature.Feature, numClasses, splitPoints int) (SufficientStatistic, error) {
	switch f := f.(type) {
	case *feature.ContinuousFeature:
		return NewGaussian(f, numClasses, splitPoints), nil
	case *feature.DiscreteFeature:
		return NewCounting(f, numClasses), nil
	}
	return nil, errors.Wrapf(feature.ErrConfiguration, "no sufficient statistic for feature %s of type %T", f.Name(), f)
}

func validateLabel(f feature.Feature, label, numClasses int) error {
	if label < 0 || label >= numClasses {
		return errors.Wrapf(feature.ErrSchemaMismatch, "label %d for feature %s out of range [0, %d)", label, f.Name(), numClasses)
	}
	return nil
}

func observedLabels(totals []float64) int {
	var result int
	for _, c := range totals {
		if c > 0 {
			result++
		}
	}
	return result
}

func newSplit(m impurity.Metric, c feature.Criterion, totals []float64, weighted float64) *Split {
	gain := m.Impurity(totals) - weighted
	if gain < 0 {
		gain = 0
	}
	return &Split{Criterion: c, Impurity: weighted, Gain: gain}
}
