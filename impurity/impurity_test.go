package impurity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpurityValues(t *testing.T) {
	testCases := []struct {
		metric   Metric
		counts   []float64
		expected float64
	}{
		{Entropy, []float64{5, 5}, 1},
		{Entropy, []float64{10, 0}, 0},
		{Entropy, []float64{}, 0},
		{Entropy, []float64{2, 2, 2, 2}, 2},
		{Gini, []float64{5, 5}, 0.5},
		{Gini, []float64{0, 7}, 0},
		{Gini, []float64{1, 1, 1, 1}, 0.75},
	}
	for _, tc := range testCases {
		assert.InDelta(t, tc.expected, tc.metric.Impurity(tc.counts), 1e-12, "%v %v", tc.metric.Name(), tc.counts)
	}
}

func TestImpurityIgnoresCountOrder(t *testing.T) {
	counts := []float64{3, 9, 1, 4}
	reversed := []float64{4, 1, 9, 3}
	for _, m := range []Metric{Entropy, Gini} {
		assert.Equal(t, m.Impurity(counts), m.Impurity(reversed))
	}
}

func TestSplittingNeverIncreasesImpurity(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, m := range []Metric{Entropy, Gini} {
		for i := 0; i < 1000; i++ {
			left := make([]float64, 3)
			right := make([]float64, 3)
			all := make([]float64, 3)
			for c := range all {
				left[c] = float64(r.Intn(20))
				right[c] = float64(r.Intn(20))
				all[c] = left[c] + right[c]
			}
			assert.LessOrEqual(t, Weighted(m, left, right), m.Impurity(all)+1e-12)
		}
	}
}

func TestRange(t *testing.T) {
	assert.Equal(t, 1.0, Entropy.Range(2))
	assert.InDelta(t, math.Log2(3), Entropy.Range(3), 1e-12)
	assert.Equal(t, 1.0, Gini.Range(5))
}

func TestByName(t *testing.T) {
	m, err := ByName("gini")
	require.NoError(t, err)
	assert.True(t, m == Gini)
	_, err = ByName("variance")
	assert.True(t, errors.Is(err, feature.ErrConfiguration))
}
