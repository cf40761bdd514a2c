package tree

import (
	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/hoeffding"
	"github.com/pbanos/vfdt/impurity"
	"github.com/pbanos/vfdt/stats"
	"github.com/pkg/errors"
)

// SecondBest selects the gain of the runner-up attribute
// when a schema has a single feature.
type SecondBest int

const (
	// NegativeInfinity makes any positive gain on the only
	// feature beat the bound.
	NegativeInfinity SecondBest = iota
	// Zero requires the gain on the only feature to exceed
	// the bound.
	Zero
)

/*
Config holds the parameters of a tree. It is copied into the tree on
construction and never modified afterwards.
*/
type Config struct {
	// Metric measures the impurity of class counts.
	Metric impurity.Metric
	// Delta is the probability of choosing a split
	// feature that is not the best one, in (0, 1).
	Delta float64
	// TieBreak is the bound under which the best
	// feature is chosen even if the runner-up is
	// close to it.
	TieBreak float64
	// GracePeriod is the number of instances a leaf
	// receives between split checks (n_min).
	GracePeriod int
	// SplitPoints is the number of evenly spaced
	// thresholds evaluated on continuous features.
	SplitPoints int
	// Bound computes the Hoeffding bound. When nil the
	// bound for the range of Metric is used.
	Bound hoeffding.BoundFunc
	// SingleAttributeSecondBest is the runner-up gain
	// used with single-feature schemas.
	SingleAttributeSecondBest SecondBest
}

// DefaultConfig returns the configuration used when none is specified:
// entropy, a delta of 1e-7, a tie break of 0.05, a grace period of 200
// instances and 10 split points.
func DefaultConfig() Config {
	return Config{
		Metric:      impurity.Entropy,
		Delta:       1e-7,
		TieBreak:    0.05,
		GracePeriod: 200,
		SplitPoints: stats.DefaultSplitPoints,
	}
}

/*
Validate returns an error matching feature.ErrConfiguration if any parameter
of the configuration is out of its domain.
*/
func (c Config) Validate() error {
	if c.Metric == nil {
		return errors.Wrap(feature.ErrConfiguration, "no impurity metric")
	}
	if !(c.Delta > 0 && c.Delta < 1) {
		return errors.Wrapf(feature.ErrConfiguration, "delta %v out of (0, 1)", c.Delta)
	}
	if !(c.TieBreak >= 0) {
		return errors.Wrapf(feature.ErrConfiguration, "negative tie break %v", c.TieBreak)
	}
	if c.GracePeriod < 1 {
		return errors.Wrapf(feature.ErrConfiguration, "grace period %d is not positive", c.GracePeriod)
	}
	if c.SplitPoints < 1 {
		return errors.Wrapf(feature.ErrConfiguration, "split points %d is not positive", c.SplitPoints)
	}
	switch c.SingleAttributeSecondBest {
	case NegativeInfinity, Zero:
	default:
		return errors.Wrapf(feature.ErrConfiguration, "unknown second best policy %d", c.SingleAttributeSecondBest)
	}
	return nil
}

func (c Config) bound(n, numClasses int) float64 {
	if c.Bound != nil {
		return c.Bound(n, c.Delta)
	}
	return hoeffding.Bound(c.Metric.Range(numClasses), c.Delta, n)
}
