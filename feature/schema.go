package feature

import (
	"fmt"

	"github.com/pkg/errors"
)

/*
Instance is an observation: one value per feature of a Schema, in the same
order. Continuous features take float64 values and discrete features take
string values.
*/
type Instance []interface{}

/*
Schema represents the ordered features observed on every instance of a
stream and the label feature whose values are the classes to predict.

A Schema is immutable once built; trees and their nodes share a pointer to
the same Schema.
*/
type Schema struct {
	features   []Feature
	label      *DiscreteFeature
	labelIndex map[string]int
}

/*
NewSchema takes a slice of features and a label feature and returns a Schema
or an error matching ErrConfiguration if the features are empty, contain a
feature that is neither continuous nor discrete, repeat a name, or if the
label feature has no values or repeats one.

Labels are identified by the position of their value in the available values
of the label feature.
*/
func NewSchema(features []Feature, label *DiscreteFeature) (*Schema, error) {
	if len(features) == 0 {
		return nil, errors.Wrap(ErrConfiguration, "schema needs at least one feature")
	}
	if label == nil || len(label.AvailableValues()) == 0 {
		return nil, errors.Wrap(ErrConfiguration, "schema needs a label feature with at least one value")
	}
	names := make(map[string]bool, len(features)+1)
	names[label.Name()] = true
	for i, f := range features {
		switch f.(type) {
		case *ContinuousFeature, *DiscreteFeature:
		default:
			return nil, errors.Wrapf(ErrConfiguration, "feature %d has unknown type %T", i, f)
		}
		if names[f.Name()] {
			return nil, errors.Wrapf(ErrConfiguration, "feature name %q is repeated", f.Name())
		}
		names[f.Name()] = true
	}
	labelIndex := make(map[string]int, len(label.AvailableValues()))
	for i, v := range label.AvailableValues() {
		if _, ok := labelIndex[v]; ok {
			return nil, errors.Wrapf(ErrConfiguration, "label value %q is repeated", v)
		}
		labelIndex[v] = i
	}
	return &Schema{
		features:   append([]Feature(nil), features...),
		label:      label,
		labelIndex: labelIndex,
	}, nil
}

// Len returns the number of features on the schema
func (s *Schema) Len() int {
	return len(s.features)
}

// Feature returns the feature at position i
func (s *Schema) Feature(i int) Feature {
	return s.features[i]
}

// Features returns a copy of the features of the schema
func (s *Schema) Features() []Feature {
	return append([]Feature(nil), s.features...)
}

// Index returns the position of the feature with the given name
// and whether it was found.
func (s *Schema) Index(name string) (int, bool) {
	for i, f := range s.features {
		if f.Name() == name {
			return i, true
		}
	}
	return -1, false
}

// Label returns the feature whose values are the classes to predict
func (s *Schema) Label() *DiscreteFeature {
	return s.label
}

// NumClasses returns the number of classes the label can take
func (s *Schema) NumClasses() int {
	return len(s.label.AvailableValues())
}

/*
LabelIndex takes a label value and returns its identifier or an error
matching ErrSchemaMismatch if the value is not a class of the schema.
*/
func (s *Schema) LabelIndex(value string) (int, error) {
	l, ok := s.labelIndex[value]
	if !ok {
		return -1, errors.Wrapf(ErrSchemaMismatch, "unknown %s label %q", s.label.Name(), value)
	}
	return l, nil
}

/*
LabelName takes a label identifier and returns its value. Identifiers out of
range are formatted as numbers.
*/
func (s *Schema) LabelName(l int) string {
	if l < 0 || l >= s.NumClasses() {
		return fmt.Sprintf("%d", l)
	}
	return s.label.AvailableValues()[l]
}

/*
ValidateLabel returns an error matching ErrSchemaMismatch if the given label
identifier is not in [0, NumClasses).
*/
func (s *Schema) ValidateLabel(l int) error {
	if l < 0 || l >= s.NumClasses() {
		return errors.Wrapf(ErrSchemaMismatch, "label %d out of range [0, %d)", l, s.NumClasses())
	}
	return nil
}

/*
Validate takes an instance and returns an error matching ErrSchemaMismatch if
it does not have exactly one value per feature, or an error matching
ErrTypeMismatch (itself an ErrSchemaMismatch) if a value is not valid for its
feature.
*/
func (s *Schema) Validate(inst Instance) error {
	if len(inst) != len(s.features) {
		return errors.Wrapf(ErrSchemaMismatch, "instance has %d values, schema has %d features", len(inst), len(s.features))
	}
	for i, f := range s.features {
		if ok, err := f.Valid(inst[i]); !ok {
			return errors.Wrapf(err, "value %d", i)
		}
	}
	return nil
}
