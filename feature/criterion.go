package feature

import (
	"fmt"

	"github.com/pkg/errors"
)

/*
Criterion represents a binary test on the value of a feature.

Its SatisfiedBy method takes a value for the feature and returns a boolean
indicating if the value satisfies the criterion. Decision nodes send values
that satisfy their criterion to their right child and every other value to
their left child.

Its Feature method returns the feature on which the criterion is applied.
*/
type Criterion interface {
	Feature() Feature
	SatisfiedBy(value interface{}) (bool, error)
}

/*
ContinuousCriterion represents a threshold on a continuous feature: values
greater than or equal to the threshold satisfy it.
*/
type ContinuousCriterion interface {
	Criterion
	Threshold() float64
}

/*
DiscreteCriterion represents an equality test on a discrete feature: only
the value returned by its Value method satisfies it.
*/
type DiscreteCriterion interface {
	Criterion
	Value() string
}

type continuousCriterion struct {
	feature   *ContinuousFeature
	threshold float64
}

type discreteCriterion struct {
	feature *DiscreteFeature
	value   string
}

/*
NewContinuousCriterion takes a ContinuousFeature and a threshold and returns
a ContinuousCriterion satisfied by values greater than or equal to the
threshold.
*/
func NewContinuousCriterion(feature *ContinuousFeature, threshold float64) ContinuousCriterion {
	return &continuousCriterion{feature, threshold}
}

/*
NewDiscreteCriterion takes a DiscreteFeature and a value and returns a
DiscreteCriterion satisfied only by that value.
*/
func NewDiscreteCriterion(feature *DiscreteFeature, value string) DiscreteCriterion {
	return &discreteCriterion{feature, value}
}

/*
Feature returns the feature to which the constraint applies.
*/
func (cc *continuousCriterion) Feature() Feature {
	return cc.feature
}

/*
SatisfiedBy receives a value and returns true if it is a float64 greater
than or equal to the threshold of the criterion. Values that are not float64
produce an error matching ErrTypeMismatch.
*/
func (cc *continuousCriterion) SatisfiedBy(value interface{}) (bool, error) {
	fv, ok := value.(float64)
	if !ok {
		return false, errors.Wrapf(ErrTypeMismatch, "criterion on %s expects float64 value, got %T value", cc.feature.Name(), value)
	}
	return fv >= cc.threshold, nil
}

func (cc *continuousCriterion) Threshold() float64 {
	return cc.threshold
}

func (cc *continuousCriterion) String() string {
	return fmt.Sprintf("%s >= %f", cc.feature.Name(), cc.threshold)
}

/*
Feature returns the feature to which the constraint applies.
*/
func (dc *discreteCriterion) Feature() Feature {
	return dc.feature
}

/*
SatisfiedBy receives a value and returns true if it is a string equal to the
value on the criterion. Values that are not strings produce an error matching
ErrTypeMismatch.
*/
func (dc *discreteCriterion) SatisfiedBy(value interface{}) (bool, error) {
	sv, ok := value.(string)
	if !ok {
		return false, errors.Wrapf(ErrTypeMismatch, "criterion on %s expects string value, got %T value", dc.feature.Name(), value)
	}
	return dc.value == sv, nil
}

func (dc *discreteCriterion) Value() string {
	return dc.value
}

func (dc *discreteCriterion) String() string {
	return fmt.Sprintf("%s is %s", dc.feature.Name(), dc.value)
}
