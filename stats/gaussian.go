package stats

import (
	"math"
	"sort"

	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/impurity"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
Gaussian is the SufficientStatistic for continuous features. It keeps the
count, mean and sum of squared deviations (Welford) of the values of each
label, and the extreme values observed, and models the values of each label
as a normal distribution.

Adding the same values in a different order yields the same statistic up to
rounding.
*/
type Gaussian struct {
	feature     *feature.ContinuousFeature
	splitPoints int
	counts      []float64
	means       []float64
	m2s         []float64
	min, max    float64
	n           int
}

/*
NewGaussian takes a continuous feature, the number of classes and a number of
split points and returns an empty Gaussian statistic. A non-positive number of
split points is replaced by DefaultSplitPoints.
*/
func NewGaussian(f *feature.ContinuousFeature, numClasses, splitPoints int) *Gaussian {
	if splitPoints <= 0 {
		splitPoints = DefaultSplitPoints
	}
	return &Gaussian{
		feature:     f,
		splitPoints: splitPoints,
		counts:      make([]float64, numClasses),
		means:       make([]float64, numClasses),
		m2s:         make([]float64, numClasses),
	}
}

func (g *Gaussian) Add(value interface{}, label int) error {
	fv, ok := value.(float64)
	if !ok || math.IsNaN(fv) || math.IsInf(fv, 0) {
		return errors.Wrapf(feature.ErrTypeMismatch, "continuous feature %s expects finite float64 value, got %T value %v", g.feature.Name(), value, value)
	}
	if err := validateLabel(g.feature, label, len(g.counts)); err != nil {
		return err
	}
	if g.n == 0 || fv < g.min {
		g.min = fv
	}
	if g.n == 0 || fv > g.max {
		g.max = fv
	}
	g.counts[label]++
	delta := fv - g.means[label]
	g.means[label] += delta / g.counts[label]
	g.m2s[label] += delta * (fv - g.means[label])
	g.n++
	return nil
}

func (g *Gaussian) Count() int {
	return g.n
}

// Range returns the minimum and maximum observed values
func (g *Gaussian) Range() (float64, float64) {
	return g.min, g.max
}

// LabelCount returns the number of values observed for the label
func (g *Gaussian) LabelCount(label int) float64 {
	return g.counts[label]
}

// Mean returns the mean of the values observed for the label
func (g *Gaussian) Mean(label int) float64 {
	return g.means[label]
}

// Variance returns the sample variance of the values observed for the label
func (g *Gaussian) Variance(label int) float64 {
	n := g.counts[label]
	if n < 2 {
		return 0
	}
	v := g.m2s[label] / (n - 1)
	if v < 0 {
		return 0
	}
	return v
}

// StdDev returns the sample standard deviation of the values observed for the label
func (g *Gaussian) StdDev(label int) float64 {
	return math.Sqrt(g.Variance(label))
}

func (g *Gaussian) BestSplit(m impurity.Metric) *Split {
	if g.n == 0 || g.min == g.max || observedLabels(g.counts) < 2 {
		return nil
	}
	var best *Split
	for _, t := range g.thresholds() {
		left, right := g.splitDistribution(t)
		w := impurity.Weighted(m, left, right)
		if best == nil || w < best.Impurity {
			best = newSplit(m, feature.NewContinuousCriterion(g.feature, t), g.counts, w)
		}
	}
	return best
}

// thresholds returns the candidate thresholds in ascending order: evenly
// spaced points strictly between min and max, and for every pair of labels
// the point an equal number of standard deviations away from both means.
func (g *Gaussian) thresholds() []float64 {
	candidates := make([]float64, 0, g.splitPoints)
	step := (g.max - g.min) / float64(g.splitPoints+1)
	for i := 1; i <= g.splitPoints; i++ {
		candidates = append(candidates, g.min+step*float64(i))
	}
	for a := range g.counts {
		if g.counts[a] == 0 {
			continue
		}
		for b := a + 1; b < len(g.counts); b++ {
			if g.counts[b] == 0 {
				continue
			}
			ma, mb := g.Mean(a), g.Mean(b)
			sa, sb := g.StdDev(a), g.StdDev(b)
			t := (ma + mb) / 2
			if sa > 0 && sb > 0 {
				t = (ma*sb + mb*sa) / (sa + sb)
			}
			if t > g.min && t <= g.max {
				candidates = append(candidates, t)
			}
		}
	}
	sort.Float64s(candidates)
	result := candidates[:0]
	for i, t := range candidates {
		if i == 0 || t != candidates[i-1] {
			result = append(result, t)
		}
	}
	return result
}

// splitDistribution estimates how many values of each label fall below the
// threshold (left) and at or above it (right).
func (g *Gaussian) splitDistribution(t float64) ([]float64, []float64) {
	left := make([]float64, len(g.counts))
	right := make([]float64, len(g.counts))
	for c, n := range g.counts {
		if n == 0 {
			continue
		}
		mean, sd := g.Mean(c), g.StdDev(c)
		if sd == 0 {
			if mean < t {
				left[c] = n
			}
		} else {
			left[c] = n * distuv.Normal{Mu: mean, Sigma: sd}.CDF(t)
		}
		right[c] = n - left[c]
	}
	return left, right
}
