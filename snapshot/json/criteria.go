package json

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
)

/*
CriteriaEncodeDecoder is an interface for objects
that allow encoding criteria into slices of
bytes and decoding them back to criteria.
*/
type CriteriaEncodeDecoder interface {

	//Encode receives a feature.Criterion
	// and returns a slice of bytes with the criterion
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(feature.Criterion) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a feature.Criterion decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (feature.Criterion, error)
}

type jsonCriteriaEncodeDecoder []feature.Feature

type jsonCriterion struct {
	Type      string `json:"t"`
	Feature   string `json:"f"`
	Value     string `json:"v,omitempty"`
	Threshold string `json:"th,omitempty"`
}

// NewCriteriaEncodeDecoder takes a slice of feature.Feature and returns a
// CriteriaEncodeDecoder that marshals and unmarshals
// criteria into/from slices of bytes as JSON.
// Specifically, criteria are encoded as a JSON object
// with a "f" property set to the name of the feature
// of the criteria and a "t" property that can be one of
// "continuous" or "discrete":
//   - If the criteria is continuous it will have a "th"
//     property with the threshold for the feature, in
//     the shortest decimal form that parses back to it
//   - If the criteria is discrete it will have a "v"
//     property defining the specific value for the feature
func NewCriteriaEncodeDecoder(features []feature.Feature) CriteriaEncodeDecoder {
	return jsonCriteriaEncodeDecoder(features)
}

func (jced jsonCriteriaEncodeDecoder) Encode(fc feature.Criterion) ([]byte, error) {
	switch c := fc.(type) {
	case feature.ContinuousCriterion:
		return json.Marshal(&jsonCriterion{
			Type:      "continuous",
			Feature:   c.Feature().Name(),
			Threshold: strconv.FormatFloat(c.Threshold(), 'g', -1, 64),
		})
	case feature.DiscreteCriterion:
		return json.Marshal(&jsonCriterion{
			Type:    "discrete",
			Feature: c.Feature().Name(),
			Value:   c.Value(),
		})
	default:
		return nil, fmt.Errorf("unknown type of feature.Criterion %T", fc)
	}
}

func (jced jsonCriteriaEncodeDecoder) Decode(data []byte) (feature.Criterion, error) {
	jc := &jsonCriterion{}
	err := json.Unmarshal(data, jc)
	if err != nil {
		return nil, err
	}
	return jc.Criterion(jced)
}

func (jc *jsonCriterion) Criterion(features []feature.Feature) (feature.Criterion, error) {
	var f feature.Feature
	for _, feat := range features {
		if feat.Name() == jc.Feature {
			f = feat
			break
		}
	}
	if f == nil {
		return nil, errors.Wrapf(feature.ErrSchemaMismatch, "unknown feature '%s'", jc.Feature)
	}
	switch jc.Type {
	case "continuous":
		cf, ok := f.(*feature.ContinuousFeature)
		if !ok {
			return nil, errors.Wrapf(feature.ErrSchemaMismatch, "expected continuous feature for continuous criterion but found %T feature %v", f, f.Name())
		}
		th, err := strconv.ParseFloat(jc.Threshold, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing threshold for %s", f.Name())
		}
		return feature.NewContinuousCriterion(cf, th), nil
	case "discrete":
		df, ok := f.(*feature.DiscreteFeature)
		if !ok {
			return nil, errors.Wrapf(feature.ErrSchemaMismatch, "expected discrete feature for discrete criterion but found %T feature %v", f, f.Name())
		}
		return feature.NewDiscreteCriterion(df, jc.Value), nil
	}
	return nil, fmt.Errorf("unknown feature criterion type '%s'", jc.Type)
}
