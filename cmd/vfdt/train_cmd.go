package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pbanos/vfdt"
	"github.com/pbanos/vfdt/feature/yaml"
	"github.com/pbanos/vfdt/impurity"
	"github.com/pbanos/vfdt/snapshot"
	"github.com/pbanos/vfdt/snapshot/json"
	"github.com/pbanos/vfdt/tree"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

type trainCmdConfig struct {
	*rootCmdConfig
	metadataInput   string
	output          string
	name            string
	metric          string
	delta           float64
	tieBreak        float64
	gracePeriod     int
	splitPoints     int
	secondBest      string
	workers         int
	onMismatch      string
	checkpointEvery int
	metricsAddr     string
	stream          streamConfig
	redis           redisConfig
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	return (&trainCmdConfig{rootCmdConfig: rootConfig}).command()
}

func (tcc *trainCmdConfig) command() *cobra.Command {
	defaults := tree.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Grow a tree from a stream of examples",
		Long: `Grow a Hoeffding tree from a stream of labelled examples read from a CSV
file, a SQL query or a MongoDB collection, and write it in JSON format when
the stream ends.
The tree can be mirrored on a redis DB while it grows.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := tcc.Validate()
			if err != nil {
				exit(1, err)
			}
			err = tcc.runInContext(tcc.run)
			if err != nil {
				exit(2, err)
			}
		},
	}
	cmd.Flags().StringVarP(&(tcc.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features and the label of the examples (required)")
	cmd.Flags().StringVarP(&(tcc.output), "output", "o", "", "path to a file to which the tree will be written in JSON format (defaults to STDOUT)")
	cmd.Flags().StringVar(&(tcc.name), "name", vfdt.DefaultModelName, "name of the model on logs and metrics")
	cmd.Flags().StringVar(&(tcc.metric), "metric", defaults.Metric.Name(), "impurity metric used to evaluate splits: entropy or gini")
	cmd.Flags().Float64Var(&(tcc.delta), "delta", defaults.Delta, "probability of splitting on a feature that is not the best one")
	cmd.Flags().Float64Var(&(tcc.tieBreak), "tie-break", defaults.TieBreak, "bound under which a leaf splits on the best feature even if the runner-up is close")
	cmd.Flags().IntVar(&(tcc.gracePeriod), "grace-period", defaults.GracePeriod, "number of examples a leaf receives between split checks")
	cmd.Flags().IntVar(&(tcc.splitPoints), "split-points", defaults.SplitPoints, "number of evenly spaced thresholds evaluated on continuous features")
	cmd.Flags().StringVar(&(tcc.secondBest), "single-feature-second-best", "negative-infinity", "runner-up gain on schemas with a single feature: negative-infinity or zero")
	cmd.Flags().IntVarP(&(tcc.workers), "workers", "w", 1, "number of goroutines inserting examples into the tree")
	cmd.Flags().StringVar(&(tcc.onMismatch), "on-mismatch", "skip", "what to do with examples that do not match the metadata: skip or abort")
	cmd.Flags().IntVar(&(tcc.checkpointEvery), "checkpoint-every", 1000, "number of examples between updates of the tree mirrored on redis")
	cmd.Flags().StringVar(&(tcc.metricsAddr), "metrics-addr", "", "address on which to serve prometheus metrics on /metrics while training")
	tcc.stream.addFlags(cmd, "to learn from")
	tcc.redis.addFlags(cmd)
	return cmd
}

func (tcc *trainCmdConfig) Validate() error {
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if tcc.workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", tcc.workers)
	}
	if tcc.redis.enabled() && tcc.checkpointEvery < 1 {
		return fmt.Errorf("checkpoint-every must be positive, got %d", tcc.checkpointEvery)
	}
	if _, err := tcc.mismatchPolicy(); err != nil {
		return err
	}
	if _, err := tcc.treeConfig(); err != nil {
		return err
	}
	return tcc.stream.Validate()
}

func (tcc *trainCmdConfig) treeConfig() (tree.Config, error) {
	c := tree.DefaultConfig()
	m, err := impurity.ByName(tcc.metric)
	if err != nil {
		return c, err
	}
	c.Metric = m
	c.Delta = tcc.delta
	c.TieBreak = tcc.tieBreak
	c.GracePeriod = tcc.gracePeriod
	c.SplitPoints = tcc.splitPoints
	switch tcc.secondBest {
	case "negative-infinity":
		c.SingleAttributeSecondBest = tree.NegativeInfinity
	case "zero":
		c.SingleAttributeSecondBest = tree.Zero
	default:
		return c, fmt.Errorf("unknown single-feature-second-best %q", tcc.secondBest)
	}
	return c, c.Validate()
}

func (tcc *trainCmdConfig) mismatchPolicy() (vfdt.MismatchPolicy, error) {
	switch tcc.onMismatch {
	case "skip":
		return vfdt.MismatchSkip, nil
	case "abort":
		return vfdt.MismatchAbort, nil
	}
	return vfdt.MismatchSkip, fmt.Errorf("unknown on-mismatch policy %q", tcc.onMismatch)
}

func (tcc *trainCmdConfig) run(ctx context.Context) (err error) {
	log.WithField("metadata", tcc.metadataInput).Debug("reading metadata")
	schema, err := yaml.ReadSchemaFromFile(tcc.metadataInput)
	if err != nil {
		return err
	}
	c, _ := tcc.treeConfig()
	t, err := tree.New(schema, c)
	if err != nil {
		return err
	}
	policy, _ := tcc.mismatchPolicy()
	opts := vfdt.Options{Name: tcc.name, Workers: tcc.workers, Mismatch: policy}

	if tcc.metricsAddr != "" {
		server := serveMetrics(tcc.metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = multierr.Append(err, server.Shutdown(shutdownCtx))
		}()
	}
	if tcc.redis.enabled() {
		ns, client := tcc.redis.nodeStore(schema)
		defer func() {
			err = multierr.Append(err, client.Close())
		}()
		mirror := snapshot.NewMirror(ns)
		opts.Checkpoint = mirror.Checkpoint
		opts.CheckpointEvery = tcc.checkpointEvery
		log.WithFields(logrus.Fields{"redis": tcc.redis.addr, "prefix": tcc.redis.prefix}).Info("mirroring tree on redis")
	}

	stream, err := tcc.stream.open(ctx, schema)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, stream.Close())
	}()
	report, err := vfdt.Train(ctx, t, stream, opts)
	if err != nil {
		return errors.Wrap(err, "growing the tree")
	}
	log.Debugf("grown tree:\n%v", t)
	s, err := snapshot.Take(ctx, t, snapshot.NewMemoryNodeStore())
	if err != nil {
		return err
	}
	err = outputSnapshot(ctx, tcc.output, s)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"inserted": report.Inserted,
		"skipped":  report.Skipped,
		"leaves":   report.Tree.Leaves,
		"depth":    report.Tree.Depth,
	}).Info("tree written")
	return nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.WithField("addr", addr).Info("serving metrics")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("serving metrics")
		}
	}()
	return server
}

func outputSnapshot(ctx context.Context, outputPath string, s *snapshot.Snapshot) (err error) {
	f := os.Stdout
	if outputPath != "" {
		f, err = os.Create(outputPath)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
	}
	return json.Write(ctx, s, json.NewEncodeDecoder(s.Schema), f)
}
