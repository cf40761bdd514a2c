package vfdt

import (
	"context"
	"io"
	"math"
	"sync/atomic"
	"testing"

	"github.com/pbanos/vfdt/dataset"
	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/tree"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree(t *testing.T) *tree.Tree {
	s, err := feature.NewSchema(
		[]feature.Feature{feature.NewContinuousFeature("x")},
		feature.NewDiscreteFeature("class", []string{"low", "high"}),
	)
	require.NoError(t, err)
	c := tree.DefaultConfig()
	c.Delta = 0.05
	c.GracePeriod = 50
	tr, err := tree.New(s, c)
	require.NoError(t, err)
	return tr
}

func separated(n int) []*dataset.Example {
	examples := make([]*dataset.Example, 0, n)
	for i := 1; i <= n; i++ {
		_, frac := math.Modf(float64(i) * 1.6180339887498949)
		x := 10 * frac
		label := 0
		if x >= 5 {
			label = 1
		}
		examples = append(examples, &dataset.Example{Instance: feature.Instance{x}, Label: label})
	}
	return examples
}

// erroringStream returns the errors in place of the examples at their
// positions, then the rest of the examples.
type erroringStream struct {
	examples []*dataset.Example
	errs     map[int]error
	next     int
}

func (es *erroringStream) Next(ctx context.Context) (*dataset.Example, error) {
	if es.next >= len(es.examples) {
		return nil, io.EOF
	}
	i := es.next
	es.next++
	if err, ok := es.errs[i]; ok {
		return nil, err
	}
	return es.examples[i], nil
}

func (es *erroringStream) Close() error {
	return nil
}

func TestTrain(t *testing.T) {
	tr := testTree(t)
	report, err := Train(context.Background(), tr, dataset.NewSliceStream(separated(1000)), Options{Name: "train_test", Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), report.Read)
	assert.Equal(t, int64(1000), report.Inserted)
	assert.Equal(t, int64(0), report.Skipped)
	assert.True(t, report.Splits >= 1)
	assert.Equal(t, tr.Stats(), report.Tree)
	assert.Equal(t, report.Tree.Decisions, report.Splits)
	assert.Equal(t, int64(1000), tr.Stats().Instances)

	var hits int
	for _, e := range separated(1200)[1000:] {
		p, err := tr.Predict(e.Instance)
		require.NoError(t, err)
		if p == e.Label {
			hits++
		}
	}
	assert.True(t, hits >= 190, "%d hits out of 200", hits)
}

func TestTrainSkipsMismatches(t *testing.T) {
	examples := separated(100)
	examples[3] = &dataset.Example{Instance: feature.Instance{"3"}, Label: 0}
	examples[7] = &dataset.Example{Instance: feature.Instance{1.0}, Label: dataset.Unlabelled}
	s := &erroringStream{
		examples: examples,
		errs:     map[int]error{10: errors.Wrap(feature.ErrTypeMismatch, "line 12")},
	}
	report, err := Train(context.Background(), testTree(t), s, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(99), report.Read)
	assert.Equal(t, int64(97), report.Inserted)
	assert.Equal(t, int64(3), report.Skipped)
}

func TestTrainAbortsOnMismatch(t *testing.T) {
	examples := separated(100)
	examples[50] = &dataset.Example{Instance: feature.Instance{}, Label: 0}
	report, err := Train(context.Background(), testTree(t), dataset.NewSliceStream(examples), Options{Mismatch: MismatchAbort})
	assert.True(t, errors.Is(err, feature.ErrSchemaMismatch), "got %v", err)
	require.NotNil(t, report)
	assert.Equal(t, int64(0), report.Skipped)
	assert.True(t, report.Inserted <= 50)
}

func TestTrainAbortsOnStreamError(t *testing.T) {
	broken := errors.New("connection reset")
	s := &erroringStream{examples: separated(100), errs: map[int]error{20: broken}}
	report, err := Train(context.Background(), testTree(t), s, Options{Workers: 2})
	assert.Equal(t, broken, errors.Cause(err))
	assert.Equal(t, int64(20), report.Read)
	assert.True(t, report.Inserted <= 20)
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Train(ctx, testTree(t), dataset.NewSliceStream(separated(100)), Options{})
	assert.Equal(t, context.Canceled, errors.Cause(err))
}

func TestTrainCheckpoints(t *testing.T) {
	var calls int64
	opts := Options{
		Workers:         2,
		CheckpointEvery: 100,
		Checkpoint: func(ctx context.Context, tr *tree.Tree) error {
			atomic.AddInt64(&calls, 1)
			return nil
		},
	}
	_, err := Train(context.Background(), testTree(t), dataset.NewSliceStream(separated(450)), opts)
	require.NoError(t, err)
	assert.Equal(t, int64(5), atomic.LoadInt64(&calls))

	failure := errors.New("store down")
	opts.Checkpoint = func(ctx context.Context, tr *tree.Tree) error {
		return failure
	}
	_, err = Train(context.Background(), testTree(t), dataset.NewSliceStream(separated(450)), opts)
	assert.Equal(t, failure, errors.Cause(err))
}
