package dataset

import (
	"context"
	"io"
	"testing"

	"github.com/pbanos/vfdt/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceStream(t *testing.T) {
	examples := []*Example{
		{feature.Instance{1.0, "a"}, 0},
		{feature.Instance{2.0, "b"}, 1},
	}
	s := NewSliceStream(examples)
	e, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, e == examples[0])
	rest, err := ReadAll(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, examples[1:], rest)
	_, err = s.Next(context.Background())
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, s.Close())
}

func TestSliceStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSliceStream([]*Example{{feature.Instance{1.0}, 0}}).Next(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestExampleString(t *testing.T) {
	e := &Example{feature.Instance{1.5, "a"}, 1}
	assert.Equal(t, "[1.5 a] -> 1", e.String())
}
