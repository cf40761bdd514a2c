/*
Package vfdt trains Hoeffding trees (Very Fast Decision Trees) from streams of
labelled examples.

The tree itself lives in the tree package; this package feeds it from a
dataset.Stream with a pool of workers, applies the policy for examples that
do not conform to the schema, and reports progress through logs and
prometheus metrics.
*/
package vfdt

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/pbanos/vfdt/dataset"
	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/tree"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log = logrus.WithField("component", "train")

// MismatchPolicy selects what training does with examples
// that do not conform to the schema of the tree.
type MismatchPolicy int

const (
	// MismatchSkip counts the example as skipped and
	// goes on with the next one.
	MismatchSkip MismatchPolicy = iota
	// MismatchAbort stops the training with the error.
	MismatchAbort
)

// DefaultModelName is the model label of the metrics
// of trainings without a name.
const DefaultModelName = "default"

/*
Options holds the parameters of a training.
*/
type Options struct {
	// Name identifies the model on metrics and logs
	Name string
	// Workers is the number of goroutines inserting
	// examples into the tree, 1 if not positive
	Workers int
	// Mismatch is the policy for examples that do not
	// conform to the schema
	Mismatch MismatchPolicy
	// Checkpoint, if set, is called with the tree every
	// CheckpointEvery examples read, while workers keep
	// inserting, and once more when the stream ends.
	Checkpoint      func(context.Context, *tree.Tree) error
	CheckpointEvery int
}

/*
Report summarises a training.
*/
type Report struct {
	// Read is the number of examples obtained from the
	// stream, Inserted the number that made it into the
	// tree and Skipped the number rejected, whether by the
	// stream or the tree, because of a schema mismatch.
	Read     int64
	Inserted int64
	Skipped  int64
	// Splits is the number of leaves split during the
	// training
	Splits int
	// Tree is the state of the tree at the end
	Tree     tree.Stats
	Duration time.Duration
}

type trainer struct {
	t         *tree.Tree
	opts      Options
	log       *logrus.Entry
	report    Report
	decisions int64
	metrics   struct {
		inserted, skipped, splits prometheus.Counter
		leaves, depth             prometheus.Gauge
		duration                  prometheus.Observer
	}
}

/*
Train takes a context, a tree, a stream of examples and training options and
inserts every example of the stream into the tree, returning a report when
the stream is exhausted.

Examples are read by a single goroutine and inserted by opts.Workers
goroutines. Examples that do not conform to the schema (errors matching
feature.ErrSchemaMismatch, from the stream or the tree) are skipped or abort
the training according to opts.Mismatch. Any other error aborts the training
and is returned along with the report of what was done until then. If the
given context times out or is cancelled, the training stops and the context
error is returned.

The stream is not closed by Train.
*/
func Train(ctx context.Context, t *tree.Tree, s dataset.Stream, opts Options) (*Report, error) {
	if opts.Name == "" {
		opts.Name = DefaultModelName
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	tr := &trainer{
		t:    t,
		opts: opts,
		log:  log.WithField("model", opts.Name),
	}
	tr.metrics.inserted = examplesTotalMetrics.WithLabelValues(opts.Name, "inserted")
	tr.metrics.skipped = examplesTotalMetrics.WithLabelValues(opts.Name, "skipped")
	tr.metrics.splits = splitsTotalMetrics.WithLabelValues(opts.Name)
	tr.metrics.leaves = leavesMetrics.WithLabelValues(opts.Name)
	tr.metrics.depth = depthMetrics.WithLabelValues(opts.Name)
	tr.metrics.duration = insertDurationMetrics.WithLabelValues(opts.Name)

	start := time.Now()
	before := t.Stats()
	tr.decisions = int64(before.Decisions)
	tr.metrics.leaves.Set(float64(before.Leaves))
	tr.metrics.depth.Set(float64(before.Depth))
	tr.log.WithFields(logrus.Fields{"workers": opts.Workers, "leaves": before.Leaves}).Info("training started")

	g, gctx := errgroup.WithContext(ctx)
	examples := make(chan *dataset.Example, opts.Workers)
	g.Go(func() error {
		defer close(examples)
		return tr.read(gctx, s, examples)
	})
	for i := 0; i < opts.Workers; i++ {
		g.Go(func() error {
			return tr.work(gctx, examples)
		})
	}
	err := g.Wait()
	if err == nil && opts.Checkpoint != nil {
		err = opts.Checkpoint(ctx, t)
		if err != nil {
			err = errors.Wrap(err, "checkpointing tree")
		}
	}

	report := tr.report
	report.Tree = t.Stats()
	report.Splits = report.Tree.Decisions - before.Decisions
	report.Duration = time.Since(start)
	fields := logrus.Fields{
		"read":     report.Read,
		"inserted": report.Inserted,
		"skipped":  report.Skipped,
		"splits":   report.Splits,
		"leaves":   report.Tree.Leaves,
		"depth":    report.Tree.Depth,
		"duration": report.Duration,
	}
	if err != nil {
		tr.log.WithFields(fields).WithError(err).Error("training aborted")
		return &report, err
	}
	tr.log.WithFields(fields).Info("training finished")
	return &report, nil
}

func (tr *trainer) read(ctx context.Context, s dataset.Stream, examples chan<- *dataset.Example) error {
	for {
		e, err := s.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err = tr.mismatch(err); err != nil {
				return errors.Wrap(err, "reading examples")
			}
			continue
		}
		read := atomic.AddInt64(&tr.report.Read, 1)
		select {
		case examples <- e:
		case <-ctx.Done():
			return ctx.Err()
		}
		if tr.opts.Checkpoint != nil && tr.opts.CheckpointEvery > 0 && read%int64(tr.opts.CheckpointEvery) == 0 {
			err = tr.opts.Checkpoint(ctx, tr.t)
			if err != nil {
				return errors.Wrapf(err, "checkpointing tree after %d examples", read)
			}
			tr.log.WithField("read", read).Debug("checkpoint")
		}
	}
}

func (tr *trainer) work(ctx context.Context, examples <-chan *dataset.Example) error {
	for e := range examples {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := tr.t.Insert(e.Instance, e.Label)
		tr.metrics.duration.Observe(time.Since(start).Seconds())
		if err != nil {
			if err = tr.mismatch(errors.Wrapf(err, "inserting %v", e)); err != nil {
				return err
			}
			continue
		}
		atomic.AddInt64(&tr.report.Inserted, 1)
		tr.metrics.inserted.Inc()
		tr.observeSplits()
	}
	return nil
}

// observeSplits accounts for the splits of the tree since the last call that
// observed any, whichever worker caused them.
func (tr *trainer) observeSplits() {
	st := tr.t.Stats()
	for {
		last := atomic.LoadInt64(&tr.decisions)
		if int64(st.Decisions) <= last {
			return
		}
		if atomic.CompareAndSwapInt64(&tr.decisions, last, int64(st.Decisions)) {
			tr.metrics.splits.Add(float64(int64(st.Decisions) - last))
			tr.metrics.leaves.Set(float64(st.Leaves))
			tr.metrics.depth.Set(float64(st.Depth))
			tr.log.WithFields(logrus.Fields{"leaves": st.Leaves, "depth": st.Depth, "instances": st.Instances}).Debug("leaf split")
			return
		}
	}
}

// mismatch returns nil if the error is a schema mismatch to skip, or the
// error otherwise.
func (tr *trainer) mismatch(err error) error {
	if !errors.Is(err, feature.ErrSchemaMismatch) || tr.opts.Mismatch == MismatchAbort {
		return err
	}
	atomic.AddInt64(&tr.report.Skipped, 1)
	tr.metrics.skipped.Inc()
	tr.log.WithError(err).Debug("skipped example")
	return nil
}
