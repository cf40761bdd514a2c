package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/impurity"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	value interface{}
	label int
}

func addAll(t *testing.T, ss SufficientStatistic, samples []sample) {
	for _, s := range samples {
		require.NoError(t, ss.Add(s.value, s.label))
	}
}

func TestNew(t *testing.T) {
	ss, err := New(feature.NewContinuousFeature("x"), 2, 0)
	require.NoError(t, err)
	assert.IsType(t, &Gaussian{}, ss)
	ss, err = New(feature.NewDiscreteFeature("c", nil), 2, 0)
	require.NoError(t, err)
	assert.IsType(t, &Counting{}, ss)
	_, err = New(nil, 2, 0)
	assert.True(t, errors.Is(err, feature.ErrConfiguration))
}

func TestGaussianMoments(t *testing.T) {
	g := NewGaussian(feature.NewContinuousFeature("x"), 2, 0)
	addAll(t, g, []sample{{2.0, 0}, {4.0, 0}, {4.0, 0}, {4.0, 0}, {5.0, 0}, {5.0, 0}, {7.0, 0}, {9.0, 0}, {-1.0, 1}})
	assert.Equal(t, 9, g.Count())
	assert.Equal(t, 8.0, g.LabelCount(0))
	assert.InDelta(t, 5.0, g.Mean(0), 1e-12)
	assert.InDelta(t, 32.0/7.0, g.Variance(0), 1e-12)
	assert.Equal(t, 0.0, g.Variance(1))
	min, max := g.Range()
	assert.Equal(t, -1.0, min)
	assert.Equal(t, 9.0, max)
}

func TestGaussianMomentsWithLargeOffset(t *testing.T) {
	const offset = 1.6e9
	g := NewGaussian(feature.NewContinuousFeature("x"), 2, 0)
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		require.NoError(t, g.Add(offset+v, 0))
	}
	assert.InDelta(t, offset+5, g.Mean(0), 1e-5)
	assert.InDelta(t, 32.0/7.0, g.Variance(0), 1e-4)
}

func TestGaussianRejectsInfinity(t *testing.T) {
	g := NewGaussian(feature.NewContinuousFeature("x"), 2, 0)
	require.NoError(t, g.Add(1.0, 0))
	require.NoError(t, g.Add(3.0, 1))
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		err := g.Add(v, 1)
		assert.True(t, errors.Is(err, feature.ErrTypeMismatch), "%v: got %v", v, err)
	}
	assert.Equal(t, 2, g.Count())
	min, max := g.Range()
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 3.0, max)
	s := g.BestSplit(impurity.Entropy)
	require.NotNil(t, s)
	assert.False(t, math.IsNaN(s.Gain))
}

func TestAddRejectsWithoutChanges(t *testing.T) {
	g := NewGaussian(feature.NewContinuousFeature("x"), 2, 0)
	require.NoError(t, g.Add(1.0, 0))
	err := g.Add("1", 0)
	assert.True(t, errors.Is(err, feature.ErrTypeMismatch))
	err = g.Add(2.0, 2)
	assert.True(t, errors.Is(err, feature.ErrSchemaMismatch))
	assert.Equal(t, 1, g.Count())
	assert.Equal(t, 1.0, g.LabelCount(0))
	assert.Equal(t, 0.0, g.LabelCount(1))
	min, max := g.Range()
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 1.0, max)

	c := NewCounting(feature.NewDiscreteFeature("c", nil), 2)
	require.NoError(t, c.Add("a", 1))
	err = c.Add(1.0, 0)
	assert.True(t, errors.Is(err, feature.ErrTypeMismatch))
	err = c.Add("b", -1)
	assert.True(t, errors.Is(err, feature.ErrSchemaMismatch))
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, []string{"a"}, c.Values())
}

func TestNoUsableSplit(t *testing.T) {
	testCases := []struct {
		name    string
		ss      SufficientStatistic
		samples []sample
	}{
		{"gaussian empty", NewGaussian(feature.NewContinuousFeature("x"), 2, 0), nil},
		{"gaussian single value", NewGaussian(feature.NewContinuousFeature("x"), 2, 0), []sample{{1.0, 0}, {1.0, 1}}},
		{"gaussian single label", NewGaussian(feature.NewContinuousFeature("x"), 2, 0), []sample{{1.0, 0}, {2.0, 0}}},
		{"counting single value", NewCounting(feature.NewDiscreteFeature("c", nil), 2), []sample{{"a", 0}, {"a", 1}}},
		{"counting single label", NewCounting(feature.NewDiscreteFeature("c", nil), 2), []sample{{"a", 1}, {"b", 1}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addAll(t, tc.ss, tc.samples)
			assert.Nil(t, tc.ss.BestSplit(impurity.Entropy))
		})
	}
}

func TestGaussianBestSplitSeparatesClasses(t *testing.T) {
	g := NewGaussian(feature.NewContinuousFeature("x"), 2, 0)
	addAll(t, g, []sample{{1.0, 0}, {2.0, 0}, {3.0, 0}, {7.0, 1}, {8.0, 1}, {9.0, 1}})
	s := g.BestSplit(impurity.Entropy)
	require.NotNil(t, s)
	c, ok := s.Criterion.(feature.ContinuousCriterion)
	require.True(t, ok)
	assert.InDelta(t, 5.0, c.Threshold(), 1e-9)
	assert.True(t, s.Gain > 0.9, "gain %v", s.Gain)
	assert.InDelta(t, 1.0-s.Impurity, s.Gain, 1e-12)
}

func TestGaussianPointMassesSplitBetweenThem(t *testing.T) {
	g := NewGaussian(feature.NewContinuousFeature("x"), 2, 0)
	addAll(t, g, []sample{{2.0, 0}, {2.0, 0}, {4.0, 1}, {4.0, 1}})
	s := g.BestSplit(impurity.Gini)
	require.NotNil(t, s)
	assert.InDelta(t, 0.0, s.Impurity, 1e-12)
	assert.InDelta(t, 0.5, s.Gain, 1e-12)
	ok, err := s.Criterion.SatisfiedBy(4.0)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Criterion.SatisfiedBy(2.0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountingBestSplit(t *testing.T) {
	c := NewCounting(feature.NewDiscreteFeature("color", nil), 3)
	addAll(t, c, []sample{
		{"red", 0}, {"red", 0}, {"red", 0},
		{"green", 1}, {"green", 2},
		{"blue", 1}, {"blue", 2},
	})
	s := c.BestSplit(impurity.Entropy)
	require.NotNil(t, s)
	assert.Equal(t, "red", s.Criterion.(feature.DiscreteCriterion).Value())
	assert.Equal(t, 1.0, c.CountFor("green", 1))
	assert.Equal(t, 0.0, c.CountFor("purple", 1))
}

func TestCountingTiesGoToSmallestValue(t *testing.T) {
	c := NewCounting(feature.NewDiscreteFeature("c", nil), 2)
	addAll(t, c, []sample{{"b", 1}, {"a", 0}, {"b", 1}, {"a", 0}})
	s := c.BestSplit(impurity.Entropy)
	require.NotNil(t, s)
	assert.Equal(t, "a", s.Criterion.(feature.DiscreteCriterion).Value())
	assert.InDelta(t, 1.0, s.Gain, 1e-12)
}

func TestSplitsNeverIncreaseImpurity(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for _, m := range []impurity.Metric{impurity.Entropy, impurity.Gini} {
		for i := 0; i < 50; i++ {
			g := NewGaussian(feature.NewContinuousFeature("x"), 3, 0)
			c := NewCounting(feature.NewDiscreteFeature("c", nil), 3)
			totals := make([]float64, 3)
			for j := 0; j < 60; j++ {
				l := r.Intn(3)
				totals[l]++
				require.NoError(t, g.Add(r.NormFloat64()+float64(l), l))
				require.NoError(t, c.Add(string(rune('a'+r.Intn(4))), l))
			}
			im := m.Impurity(totals)
			for _, ss := range []SufficientStatistic{g, c} {
				s := ss.BestSplit(m)
				require.NotNil(t, s)
				assert.LessOrEqual(t, s.Impurity, im+1e-9)
				assert.GreaterOrEqual(t, s.Gain, 0.0)
			}
		}
	}
}

func TestAccumulationIgnoresOrder(t *testing.T) {
	samples := []sample{}
	for i := 0; i < 40; i++ {
		samples = append(samples, sample{float64(i % 13), i % 2})
	}
	x := feature.NewContinuousFeature("x")
	g1 := NewGaussian(x, 2, 0)
	addAll(t, g1, samples)
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 5; i++ {
		r.Shuffle(len(samples), func(a, b int) { samples[a], samples[b] = samples[b], samples[a] })
		g2 := NewGaussian(x, 2, 0)
		addAll(t, g2, samples)
		assert.Equal(t, g1.Count(), g2.Count())
		for label := 0; label < 2; label++ {
			assert.Equal(t, g1.LabelCount(label), g2.LabelCount(label))
			assert.InDelta(t, g1.Mean(label), g2.Mean(label), 1e-9)
			assert.InDelta(t, g1.Variance(label), g2.Variance(label), 1e-9)
		}
		s1, s2 := g1.BestSplit(impurity.Entropy), g2.BestSplit(impurity.Entropy)
		require.NotNil(t, s1)
		require.NotNil(t, s2)
		th1 := s1.Criterion.(feature.ContinuousCriterion).Threshold()
		th2 := s2.Criterion.(feature.ContinuousCriterion).Threshold()
		assert.InDelta(t, th1, th2, 1e-9)
		assert.InDelta(t, s1.Gain, s2.Gain, 1e-9)
	}
}
