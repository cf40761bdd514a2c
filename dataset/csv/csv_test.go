package csv

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pbanos/vfdt/dataset"
	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestStream(t *testing.T) {
	doc := "color,class,x\nred,pos,1.5\nblue,neg,-2\n"
	s, err := NewStream(strings.NewReader(doc), testSchema(t))
	require.NoError(t, err)
	examples, err := dataset.ReadAll(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []*dataset.Example{
		{Instance: feature.Instance{1.5, "red"}, Label: 1},
		{Instance: feature.Instance{-2.0, "blue"}, Label: 0},
	}, examples)
	assert.NoError(t, s.Close())
}

func TestStreamWithoutLabel(t *testing.T) {
	s, err := NewStream(strings.NewReader("x,color\n3,blue\n"), testSchema(t))
	require.NoError(t, err)
	e, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dataset.Unlabelled, e.Label)
	assert.Equal(t, feature.Instance{3.0, "blue"}, e.Instance)
}

func TestStreamHeaderErrors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{"unknown column", "x,color,size,class\n"},
		{"missing feature", "x,class\n"},
		{"repeated feature", "x,color,x\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStream(strings.NewReader(tc.doc), testSchema(t))
			assert.True(t, errors.Is(err, feature.ErrConfiguration), "got %v", err)
		})
	}
	_, err := NewStream(strings.NewReader(""), testSchema(t))
	assert.Error(t, err)
}

func TestStreamSkipsBadRows(t *testing.T) {
	doc := strings.Join([]string{
		"x,color,class",
		"1,red,pos",
		"one,red,pos",
		"2,green,neg",
		"3,red,maybe",
		"?,red,neg",
		"inf,red,pos",
		"-Inf,blue,neg",
		"4,red",
		"5,blue,neg",
	}, "\n")
	s, err := NewStream(strings.NewReader(doc), testSchema(t))
	require.NoError(t, err)
	ctx := context.Background()
	e, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Label)
	for i := 0; i < 7; i++ {
		_, err = s.Next(ctx)
		assert.True(t, errors.Is(err, feature.ErrSchemaMismatch), "row %d: got %v", i, err)
		if i == 4 || i == 5 {
			assert.True(t, errors.Is(err, feature.ErrTypeMismatch), "row %d: got %v", i, err)
		}
	}
	e, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, feature.Instance{5.0, "blue"}, e.Instance)
	_, err = s.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, testSchema(t))
	require.NoError(t, err)
	require.NoError(t, w.Write(&dataset.Example{Instance: feature.Instance{0.25, "red"}, Label: 1}))
	require.NoError(t, w.Write(&dataset.Example{Instance: feature.Instance{nil, "blue"}, Label: dataset.Unlabelled}))
	err = w.Write(&dataset.Example{Instance: feature.Instance{1, "blue"}, Label: 0})
	assert.True(t, errors.Is(err, feature.ErrTypeMismatch))
	require.NoError(t, w.Flush())
	assert.Equal(t, 2, w.Count())
	assert.Equal(t, "x,color,class\n0.25,red,pos\n?,blue,?\n", buf.String())
}
