/*
Package yaml provides methods to parse feature.Schema specifications
also known as metadata, from YAML documents.
*/
package yaml

import (
	"io/ioutil"

	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

type featureSpec struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Values []string `yaml:"values"`
}

type metadata struct {
	Features []featureSpec `yaml:"features"`
	Label    featureSpec   `yaml:"label"`
}

/*
ReadSchema takes a slice of bytes with a schema specification in YML and
returns the schema parsed from it or an error.
The YML is expected to be an object with two properties:
  - features: an ordered list of objects with a name and either a type of
    'continuous', or a type of 'discrete' and an optional list of values.
    A feature with values and no type is discrete.
  - label: an object with the name of the label and the list of its values.
*/
func ReadSchema(md []byte) (*feature.Schema, error) {
	m := &metadata{}
	err := yaml.Unmarshal(md, m)
	if err != nil {
		return nil, errors.Wrap(err, "parsing yml schema")
	}
	if len(m.Features) == 0 {
		return nil, errors.Wrap(feature.ErrConfiguration, "metadata has no feature information")
	}
	features := make([]feature.Feature, 0, len(m.Features))
	for i, fs := range m.Features {
		if fs.Name == "" {
			return nil, errors.Wrapf(feature.ErrConfiguration, "feature %d has no name", i)
		}
		switch fs.Type {
		case "continuous", "numerical":
			if len(fs.Values) > 0 {
				return nil, errors.Wrapf(feature.ErrConfiguration, "continuous feature %s cannot declare values", fs.Name)
			}
			features = append(features, feature.NewContinuousFeature(fs.Name))
		case "discrete", "nominal", "":
			if fs.Type == "" && len(fs.Values) == 0 {
				return nil, errors.Wrapf(feature.ErrConfiguration, "feature %s has neither type nor values", fs.Name)
			}
			features = append(features, feature.NewDiscreteFeature(fs.Name, fs.Values))
		default:
			return nil, errors.Wrapf(feature.ErrConfiguration, "feature %s has unknown type %q", fs.Name, fs.Type)
		}
	}
	if m.Label.Name == "" {
		return nil, errors.Wrap(feature.ErrConfiguration, "metadata has no label information")
	}
	return feature.NewSchema(features, feature.NewDiscreteFeature(m.Label.Name, m.Label.Values))
}

/*
ReadSchemaFromFile takes a filepath string, reads its contents and uses
ReadSchema to parse it and return the schema or an error.
If the file indicated by the filepath cannot be opened for reading an error
will be returned.
*/
func ReadSchemaFromFile(filepath string) (*feature.Schema, error) {
	md, err := ioutil.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading schema yml file %s", filepath)
	}
	s, err := ReadSchema(md)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing schema yml file %s", filepath)
	}
	return s, nil
}
