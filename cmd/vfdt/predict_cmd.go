package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pbanos/vfdt/dataset"
	"github.com/pbanos/vfdt/dataset/csv"
	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/feature/yaml"
	"github.com/pbanos/vfdt/snapshot"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

type predictCmdConfig struct {
	*rootCmdConfig
	metadataInput string
	output        string
	stream        streamConfig
	snapshot      snapshotConfig
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the label of a stream of examples",
		Long: `Use a tree to predict the label of every example on a stream and write the
examples with their predicted label in CSV format`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				exit(1, err)
			}
			err = config.runInContext(config.run)
			if err != nil {
				exit(2, err)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features and the label of the examples (required)")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "", "path to a CSV file to which the examples with their predictions will be written (defaults to STDOUT)")
	config.stream.addFlags(cmd, "to predict")
	config.snapshot.addFlags(cmd)
	return cmd
}

func (pcc *predictCmdConfig) Validate() error {
	if pcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if err := pcc.snapshot.Validate(); err != nil {
		return err
	}
	return pcc.stream.Validate()
}

func (pcc *predictCmdConfig) run(ctx context.Context) (err error) {
	schema, err := yaml.ReadSchemaFromFile(pcc.metadataInput)
	if err != nil {
		return err
	}
	s, err := pcc.snapshot.load(ctx, schema)
	defer func() {
		err = multierr.Append(err, pcc.snapshot.Close())
	}()
	if err != nil {
		return err
	}
	stream, err := pcc.stream.open(ctx, schema)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, stream.Close())
	}()
	f := os.Stdout
	if pcc.output != "" {
		f, err = os.Create(pcc.output)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
	}
	w, err := csv.NewWriter(f, schema)
	if err != nil {
		return err
	}
	counts, err := predictStream(ctx, s, stream, w)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"predicted": counts.predicted,
		"failed":    counts.failed,
		"rejected":  counts.rejected,
	}).Info("predictions written")
	return nil
}

// predictCounts tallies the examples of a predict run. Rejected
// examples were discarded by the stream and not written.
type predictCounts struct {
	predicted int
	failed    int
	rejected  int
}

func predictStream(ctx context.Context, s *snapshot.Snapshot, stream dataset.Stream, w *csv.Writer) (predictCounts, error) {
	var counts predictCounts
	for {
		e, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if errors.Is(err, feature.ErrSchemaMismatch) {
			log.WithError(err).Warn("skipping example")
			counts.rejected++
			continue
		}
		if err != nil {
			return counts, err
		}
		p, err := s.Predict(ctx, e.Instance)
		if err != nil {
			log.WithError(err).WithField("example", e).Warn("cannot predict")
			counts.failed++
			e = &dataset.Example{Instance: e.Instance, Label: dataset.Unlabelled}
		} else {
			counts.predicted++
			e = &dataset.Example{Instance: e.Instance, Label: p.Label()}
		}
		if err = w.Write(e); err != nil {
			return counts, err
		}
	}
	return counts, w.Flush()
}
