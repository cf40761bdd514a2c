package tree

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/stats"
	"github.com/pkg/errors"
)

/*
Leaf is a node that has not been split. It accumulates a sufficient statistic
per feature of the schema and the number of instances of each class it has
received since its creation.
*/
type Leaf struct {
	id          uint64
	depth       int
	schema      *feature.Schema
	lock        sync.RWMutex
	stats       []stats.SufficientStatistic
	classCounts []int
	n           int
	replaced    bool
}

/*
SplitDecision is the result of a positive split check on a leaf: the index of
the feature to split on and the criterion to split with, along with the
evidence that supported it.
*/
type SplitDecision struct {
	Attribute int
	Criterion feature.Criterion
	// Gain and SecondGain are the impurity reductions of the
	// best and runner-up features.
	Gain       float64
	SecondGain float64
	// Epsilon is the Hoeffding bound for N instances.
	Epsilon float64
	N       int
}

/*
NewLeaf takes a schema and the number of split points to evaluate on
continuous features and returns an empty leaf with a sufficient statistic for
every feature of the schema, or an error matching feature.ErrConfiguration if
a statistic cannot be built for some feature.
*/
func NewLeaf(schema *feature.Schema, splitPoints int) (*Leaf, error) {
	l := &Leaf{
		schema:      schema,
		stats:       make([]stats.SufficientStatistic, schema.Len()),
		classCounts: make([]int, schema.NumClasses()),
	}
	for i := range l.stats {
		ss, err := stats.New(schema.Feature(i), schema.NumClasses(), splitPoints)
		if err != nil {
			return nil, err
		}
		l.stats[i] = ss
	}
	return l, nil
}

// ID returns the identifier of the leaf in its tree
func (l *Leaf) ID() string {
	return strconv.FormatUint(l.id, 10)
}

// Depth returns the number of decision nodes above the leaf
func (l *Leaf) Depth() int {
	return l.depth
}

/*
AddInstance takes an instance and its label and folds them into the
statistics of the leaf. It returns an error matching
feature.ErrSchemaMismatch, without modifying the leaf, if the instance or the
label do not conform to the schema.
*/
func (l *Leaf) AddInstance(inst feature.Instance, label int) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.addInstance(inst, label)
}

/*
CheckSplit evaluates whether the leaf has gathered enough evidence to be
split according to the given configuration, and returns the split decision
or nil. It never modifies the leaf.

A split is chosen on the feature with the highest impurity reduction when
that reduction is positive and either it exceeds the runner-up's by more
than the Hoeffding bound, or the bound is below the tie break.
*/
func (l *Leaf) CheckSplit(c Config) (*SplitDecision, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.checkSplit(c)
}

// Count returns the number of instances the leaf has received
func (l *Leaf) Count() int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.n
}

// ClassCounts returns a copy of the number of instances of each class
func (l *Leaf) ClassCounts() []int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return append([]int(nil), l.classCounts...)
}

/*
Predict returns the label with the most instances on the leaf. Ties, including
the ones on an empty leaf, are resolved in favour of the smallest label.
*/
func (l *Leaf) Predict() int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return majority(l.classCounts)
}

// Distribution returns the relative frequency of each class on the leaf,
// or a uniform distribution if the leaf is empty.
func (l *Leaf) Distribution() []float64 {
	l.lock.RLock()
	defer l.lock.RUnlock()
	result := make([]float64, len(l.classCounts))
	for c, count := range l.classCounts {
		if l.n == 0 {
			result[c] = 1 / float64(len(result))
		} else {
			result[c] = float64(count) / float64(l.n)
		}
	}
	return result
}

func (l *Leaf) String() string {
	l.lock.RLock()
	defer l.lock.RUnlock()
	result := "{"
	for c, count := range l.classCounts {
		result = fmt.Sprintf("%s %s:%d", result, l.schema.LabelName(c), count)
	}
	return result + " }"
}

func (l *Leaf) addInstance(inst feature.Instance, label int) error {
	if err := l.schema.Validate(inst); err != nil {
		return err
	}
	if err := l.schema.ValidateLabel(label); err != nil {
		return err
	}
	for i, ss := range l.stats {
		if err := ss.Add(inst[i], label); err != nil {
			return errors.Wrapf(feature.ErrInvariantViolation, "leaf %s: statistic %d rejected a validated value: %v", l.ID(), i, err)
		}
	}
	l.classCounts[label]++
	l.n++
	return nil
}

func (l *Leaf) checkSplit(c Config) (*SplitDecision, error) {
	if err := l.checkInvariants(); err != nil {
		return nil, err
	}
	counts := make([]float64, len(l.classCounts))
	for i, cc := range l.classCounts {
		counts[i] = float64(cc)
	}
	im := c.Metric.Impurity(counts)
	gains := make([]float64, len(l.stats))
	splits := make([]*stats.Split, len(l.stats))
	for i, ss := range l.stats {
		s := ss.BestSplit(c.Metric)
		if s == nil {
			continue
		}
		g := im - s.Impurity
		if math.IsNaN(g) || math.IsInf(g, 0) {
			continue
		}
		splits[i] = s
		gains[i] = math.Max(0, g)
	}
	a1, g1, g2 := topTwo(gains, c.SingleAttributeSecondBest)
	if splits[a1] == nil || g1 <= 0 {
		return nil, nil
	}
	epsilon := c.bound(l.n, len(l.classCounts))
	if g1-g2 > epsilon || epsilon < c.TieBreak {
		return &SplitDecision{
			Attribute:  a1,
			Criterion:  splits[a1].Criterion,
			Gain:       g1,
			SecondGain: g2,
			Epsilon:    epsilon,
			N:          l.n,
		}, nil
	}
	return nil, nil
}

func (l *Leaf) checkInvariants() error {
	var total int
	for _, cc := range l.classCounts {
		total += cc
	}
	if total != l.n {
		return errors.Wrapf(feature.ErrInvariantViolation, "leaf %s: class counts add up to %d, leaf has %d instances", l.ID(), total, l.n)
	}
	for i, ss := range l.stats {
		if ss.Count() != l.n {
			return errors.Wrapf(feature.ErrInvariantViolation, "leaf %s: statistic %d has %d values, leaf has %d instances", l.ID(), i, ss.Count(), l.n)
		}
	}
	return nil
}

// topTwo returns the index and gain of the best feature and the gain of the
// runner-up. Ties go to the lowest index.
func topTwo(gains []float64, sb SecondBest) (int, float64, float64) {
	if len(gains) == 1 {
		if sb == Zero {
			return 0, gains[0], 0
		}
		return 0, gains[0], math.Inf(-1)
	}
	first, second := 0, -1
	for i := 1; i < len(gains); i++ {
		if gains[i] > gains[first] {
			first, second = i, first
		} else if second == -1 || gains[i] > gains[second] {
			second = i
		}
	}
	return first, gains[first], gains[second]
}

func majority(counts []int) int {
	var result int
	for c, count := range counts {
		if count > counts[result] {
			result = c
		}
	}
	return result
}
