package hoeffding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundDecreasesWithObservations(t *testing.T) {
	for _, delta := range []float64{1e-7, 0.05, 0.5} {
		previous := Bound(1, delta, 1)
		for n := 2; n < 5000; n += 7 {
			current := Bound(1, delta, n)
			assert.True(t, current < previous, "delta=%v n=%d: %v >= %v", delta, n, current, previous)
			previous = current
		}
	}
}

func TestBoundShrinksAsDeltaGrows(t *testing.T) {
	assert.True(t, Bound(1, 0.1, 100) < Bound(1, 0.01, 100))
}

func TestBoundValue(t *testing.T) {
	assert.InDelta(t, math.Sqrt(math.Log(20)/100), Bound(1, 0.05, 50), 1e-12)
	assert.InDelta(t, 2*Bound(1, 0.05, 50), ForRange(2)(50, 0.05), 1e-12)
	assert.True(t, math.IsInf(Bound(1, 0.05, 0), 1))
}
