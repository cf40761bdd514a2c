package feature

import (
	"math"

	"github.com/pkg/errors"
)

/*
Feature represents a property that can be observed
*/
type Feature interface {
	Name() string
	Valid(interface{}) (bool, error)
}

/*
DiscreteFeature represents a property that can be observed and that can only
take a value among a finite set. A DiscreteFeature without available values
accepts any string.
*/
type DiscreteFeature struct {
	name            string
	availableValues []string
}

/*
ContinuousFeature represents a property that can be observed and that can take
a numeric value
*/
type ContinuousFeature struct {
	name string
}

/*
NewDiscreteFeature takes a name string and a slice of available value strings
and returns a discrete feature with the given names and available values.
*/
func NewDiscreteFeature(name string, availableValues []string) *DiscreteFeature {
	return &DiscreteFeature{name, append([]string(nil), availableValues...)}
}

/*
NewContinuousFeature takes a name string and returns a continuous feature with
the given name.
*/
func NewContinuousFeature(name string) *ContinuousFeature {
	return &ContinuousFeature{name}
}

/*
Name returns a string with the name of the feature
*/
func (df *DiscreteFeature) Name() string {
	return df.name
}

/*
Valid receives an interface value and returns a boolean and an error. When the
value parameter is a string included in the available values of the feature
(or the feature declares no available values), the method returns true and nil.
Otherwise it returns false and an error matching ErrTypeMismatch describing the
reason.
*/
func (df *DiscreteFeature) Valid(value interface{}) (bool, error) {
	vs, ok := value.(string)
	if !ok {
		return false, errors.Wrapf(ErrTypeMismatch, "discrete feature %s expects string value, got %T value", df.Name(), value)
	}
	if len(df.availableValues) == 0 {
		return true, nil
	}
	for _, av := range df.availableValues {
		if av == vs {
			return true, nil
		}
	}
	return false, errors.Wrapf(ErrTypeMismatch, "discrete feature %s got unknown value %q", df.Name(), vs)
}

/*
AvailableValues returns a string slice with the values available for the feature
*/
func (df *DiscreteFeature) AvailableValues() []string {
	return df.availableValues
}

func (df *DiscreteFeature) String() string {
	return df.name
}

/*
Name returns a string with the name of the feature
*/
func (cf *ContinuousFeature) Name() string {
	return cf.name
}

/*
Valid receives an interface value and returns a boolean and an error. When the
value parameter is a finite float64 it returns true and nil, otherwise
it returns false and an error matching ErrTypeMismatch describing the reason.
*/
func (cf *ContinuousFeature) Valid(value interface{}) (bool, error) {
	fv, ok := value.(float64)
	if !ok {
		return false, errors.Wrapf(ErrTypeMismatch, "continuous feature %s expects float64 value, got %T value", cf.Name(), value)
	}
	if math.IsNaN(fv) {
		return false, errors.Wrapf(ErrTypeMismatch, "continuous feature %s got NaN", cf.Name())
	}
	if math.IsInf(fv, 0) {
		return false, errors.Wrapf(ErrTypeMismatch, "continuous feature %s got %v", cf.Name(), fv)
	}
	return true, nil
}

func (cf *ContinuousFeature) String() string {
	return cf.name
}
