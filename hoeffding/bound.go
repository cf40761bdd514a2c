/*
Package hoeffding computes the Hoeffding bound: with probability 1-delta, the
true mean of a random variable with the given range lies within epsilon of
the mean of n independent observations of it.
*/
package hoeffding

import "math"

// BoundFunc takes a number of observations and a delta and returns epsilon
type BoundFunc func(n int, delta float64) float64

/*
Bound takes the range of the observed variable, the allowed error probability
delta and the number of observations n and returns
sqrt(R² ln(1/delta) / 2n). It returns +Inf when n is not positive. For a
fixed delta, the bound strictly decreases as n grows.
*/
func Bound(valueRange, delta float64, n int) float64 {
	if n <= 0 {
		return math.Inf(1)
	}
	return math.Sqrt(valueRange * valueRange * math.Log(1/delta) / (2 * float64(n)))
}

// ForRange returns a BoundFunc for a variable with the given range
func ForRange(valueRange float64) BoundFunc {
	return func(n int, delta float64) float64 {
		return Bound(valueRange, delta, n)
	}
}
