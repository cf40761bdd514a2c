package mongo

import (
	"testing"

	"github.com/pbanos/vfdt/dataset"
	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2/bson"
)

func testSchema(t *testing.T) *feature.Schema {
	s, err := feature.NewSchema(
		[]feature.Feature{
			feature.NewContinuousFeature("x"),
			feature.NewDiscreteFeature("color", []string{"red", "blue"}),
		},
		feature.NewDiscreteFeature("class", []string{"neg", "pos"}),
	)
	require.NoError(t, err)
	return s
}

func TestExample(t *testing.T) {
	s := &stream{schema: testSchema(t)}
	testCases := []struct {
		doc      bson.M
		expected *dataset.Example
	}{
		{bson.M{"_id": bson.NewObjectId(), "x": 1.5, "color": "red", "class": "pos"}, &dataset.Example{Instance: feature.Instance{1.5, "red"}, Label: 1}},
		{bson.M{"x": 3, "color": "blue", "class": int64(0)}, &dataset.Example{Instance: feature.Instance{3.0, "blue"}, Label: 0}},
		{bson.M{"x": "2.5", "color": "red", "class": 1}, &dataset.Example{Instance: feature.Instance{2.5, "red"}, Label: 1}},
		{bson.M{"x": 2.0, "color": "red", "class": nil}, &dataset.Example{Instance: feature.Instance{2.0, "red"}, Label: dataset.Unlabelled}},
	}
	for _, tc := range testCases {
		e, err := s.example(tc.doc)
		require.NoError(t, err, "%v", tc.doc)
		assert.Equal(t, tc.expected, e)
	}
}

func TestExampleMismatch(t *testing.T) {
	s := &stream{schema: testSchema(t)}
	for _, doc := range []bson.M{
		{"x": nil, "color": "red", "class": "pos"},
		{"x": 1.0, "class": "pos"},
		{"x": "big", "color": "red", "class": "pos"},
		{"x": true, "color": "red", "class": "pos"},
		{"x": 1.0, "color": "green", "class": "pos"},
		{"x": 1.0, "color": "red", "class": "maybe"},
		{"x": 1.0, "color": "red", "class": 2},
		{"x": 1.0, "color": "red", "class": 0.5},
	} {
		_, err := s.example(doc)
		assert.True(t, errors.Is(err, feature.ErrSchemaMismatch), "%v: %v", doc, err)
	}
}

func TestCheckFieldNames(t *testing.T) {
	assert.NoError(t, checkFieldNames(testSchema(t)))
	for _, name := range []string{"_id", "a.b", "$x"} {
		s, err := feature.NewSchema(
			[]feature.Feature{feature.NewContinuousFeature(name)},
			feature.NewDiscreteFeature("class", []string{"neg", "pos"}),
		)
		require.NoError(t, err)
		assert.True(t, errors.Is(checkFieldNames(s), feature.ErrConfiguration), name)
	}
}
