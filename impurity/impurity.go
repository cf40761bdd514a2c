/*
Package impurity provides measures of how mixed the classes of a set of
samples are, computed from the number of samples of each class.
*/
package impurity

import (
	"math"

	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
)

/*
Metric is an interface for impurity measures.

Its Impurity method takes the counts of samples of each class and returns a
non-negative value that is 0 when at most one class has samples. The order of
the counts must not affect the result: implementations treat them as a
multiset.

Its Range method takes the number of classes and returns the difference
between the maximum and minimum values Impurity can return for them.
*/
type Metric interface {
	Name() string
	Impurity(counts []float64) float64
	Range(numClasses int) float64
}

/*
MetricFunc wraps a function computing impurity from class probabilities into
a Metric with the given name and range function.
*/
type MetricFunc struct {
	name      string
	f         func(probabilities []float64) float64
	rangeFunc func(numClasses int) float64
}

var (
	// Entropy is the information entropy in bits
	Entropy Metric = NewMetricFunc("entropy", entropy, func(numClasses int) float64 {
		if numClasses < 2 {
			return 1
		}
		return math.Log2(float64(numClasses))
	})
	// Gini is the Gini impurity
	Gini Metric = NewMetricFunc("gini", gini, func(int) float64 { return 1 })
)

/*
NewMetricFunc takes a name, a function on class probabilities and a range
function and returns a Metric. The Impurity method of the metric normalises
counts into probabilities (skipping empty classes) before calling f, and
returns 0 for an empty multiset.
*/
func NewMetricFunc(name string, f func([]float64) float64, rangeFunc func(int) float64) *MetricFunc {
	return &MetricFunc{name, f, rangeFunc}
}

func (mf *MetricFunc) Name() string {
	return mf.name
}

func (mf *MetricFunc) Impurity(counts []float64) float64 {
	var total float64
	for _, c := range counts {
		if c > 0 {
			total += c
		}
	}
	if total == 0 {
		return 0
	}
	probs := make([]float64, 0, len(counts))
	for _, c := range counts {
		if c > 0 {
			probs = append(probs, c/total)
		}
	}
	if len(probs) < 2 {
		return 0
	}
	return math.Max(0, mf.f(probs))
}

func (mf *MetricFunc) Range(numClasses int) float64 {
	return mf.rangeFunc(numClasses)
}

func (mf *MetricFunc) String() string {
	return mf.name
}

/*
ByName takes the name of a metric and returns it, or an error matching
feature.ErrConfiguration if there is no metric with that name.
*/
func ByName(name string) (Metric, error) {
	switch name {
	case Entropy.Name():
		return Entropy, nil
	case Gini.Name():
		return Gini, nil
	}
	return nil, errors.Wrapf(feature.ErrConfiguration, "unknown impurity metric %q", name)
}

/*
Weighted takes a metric and the class counts of the two sides of a split and
returns the impurity of each side weighted by its share of the samples.
*/
func Weighted(m Metric, left, right []float64) float64 {
	var nl, nr float64
	for _, c := range left {
		nl += c
	}
	for _, c := range right {
		nr += c
	}
	n := nl + nr
	if n == 0 {
		return 0
	}
	return nl/n*m.Impurity(left) + nr/n*m.Impurity(right)
}

func entropy(probs []float64) float64 {
	var result float64
	for _, p := range probs {
		result -= p * math.Log2(p)
	}
	return result
}

func gini(probs []float64) float64 {
	result := 1.0
	for _, p := range probs {
		result -= p * p
	}
	return result
}
