package stats

import (
	"sort"

	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/impurity"
	"github.com/pkg/errors"
)

/*
Counting is the SufficientStatistic for discrete features. It counts the
samples of each label for every observed value.
*/
type Counting struct {
	feature *feature.DiscreteFeature
	counts  map[string][]float64
	totals  []float64
	n       int
}

// NewCounting takes a discrete feature and the number of classes
// and returns an empty Counting statistic.
func NewCounting(f *feature.DiscreteFeature, numClasses int) *Counting {
	return &Counting{
		feature: f,
		counts:  make(map[string][]float64),
		totals:  make([]float64, numClasses),
	}
}

func (c *Counting) Add(value interface{}, label int) error {
	sv, ok := value.(string)
	if !ok {
		return errors.Wrapf(feature.ErrTypeMismatch, "discrete feature %s expects string value, got %T value", c.feature.Name(), value)
	}
	if err := validateLabel(c.feature, label, len(c.totals)); err != nil {
		return err
	}
	vc, ok := c.counts[sv]
	if !ok {
		vc = make([]float64, len(c.totals))
		c.counts[sv] = vc
	}
	vc[label]++
	c.totals[label]++
	c.n++
	return nil
}

func (c *Counting) Count() int {
	return c.n
}

// CountFor returns the number of samples with the given value and label
func (c *Counting) CountFor(value string, label int) float64 {
	vc, ok := c.counts[value]
	if !ok {
		return 0
	}
	return vc[label]
}

// Values returns the observed values in ascending order
func (c *Counting) Values() []string {
	values := make([]string, 0, len(c.counts))
	for v := range c.counts {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

/*
BestSplit evaluates, for every observed value in ascending order, the split
of the samples with that value (right) against the samples with any other
value (left), and returns the first one with the lowest weighted impurity.
*/
func (c *Counting) BestSplit(m impurity.Metric) *Split {
	if len(c.counts) < 2 || observedLabels(c.totals) < 2 {
		return nil
	}
	var best *Split
	left := make([]float64, len(c.totals))
	for _, v := range c.Values() {
		right := c.counts[v]
		for l := range left {
			left[l] = c.totals[l] - right[l]
		}
		w := impurity.Weighted(m, left, right)
		if best == nil || w < best.Impurity {
			best = newSplit(m, feature.NewDiscreteCriterion(c.feature, v), c.totals, w)
		}
	}
	return best
}
