package snapshot

import (
	"fmt"
)

/*
Prediction represents the prediction made by a leaf of a snapshot: the number
of instances of each class the leaf had received when the snapshot was taken.
*/
type Prediction struct {
	counts []int
	weight int
}

// PredictionError represents an error related with predictions
type PredictionError string

/*
ErrCannotPredict is the error returned by the Predict method of a snapshot
when the prediction cannot be made because the snapshot itself holds no
prediction for that kind of sample, as opposed to cases where the sample does
not conform to the schema or the nodes cannot be retrieved.
*/
const ErrCannotPredict = PredictionError("no prediction available for this kind of sample")

func (pe PredictionError) Error() string {
	return string(pe)
}

/*
NewPrediction takes the number of instances of each class on a leaf and
returns a prediction representing them.
*/
func NewPrediction(counts []int) *Prediction {
	p := &Prediction{counts: append([]int(nil), counts...)}
	for _, c := range counts {
		p.weight += c
	}
	return p
}

// Counts returns a copy of the number of instances of each class
func (p *Prediction) Counts() []int {
	return append([]int(nil), p.counts...)
}

/*
Weight returns the weight of the prediction: the number of instances the leaf
had received.
*/
func (p *Prediction) Weight() int {
	return p.weight
}

/*
Label returns the label with the most instances, the smallest one among the
tied ones.
*/
func (p *Prediction) Label() int {
	var result int
	for c, count := range p.counts {
		if count > p.counts[result] {
			result = c
		}
	}
	return result
}

/*
Probabilities returns the relative frequency of each class, or a uniform
distribution if the prediction has no weight.
*/
func (p *Prediction) Probabilities() []float64 {
	result := make([]float64, len(p.counts))
	for c, count := range p.counts {
		if p.weight == 0 {
			result[c] = 1 / float64(len(result))
		} else {
			result[c] = float64(count) / float64(p.weight)
		}
	}
	return result
}

func (p *Prediction) String() string {
	return fmt.Sprintf("%v", p.counts)
}
