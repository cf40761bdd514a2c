package main

import (
	"context"
	"fmt"

	"github.com/pbanos/vfdt/feature/yaml"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

type testCmdConfig struct {
	*rootCmdConfig
	metadataInput string
	stream        streamConfig
	snapshot      snapshotConfig
}

func testCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &testCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the performance of a tree",
		Long:  `Test the performance of a tree against a stream of labelled examples`,
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
	config.stream.addFlags(cmd, "to test the tree with")
	config.snapshot.addFlags(cmd)
	return cmd
}

func (tcc *testCmdConfig) Validate() error {
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if err := tcc.snapshot.Validate(); err != nil {
		return err
	}
	return tcc.stream.Validate()
}

func (tcc *testCmdConfig) run(ctx context.Context) (err error) {
	schema, err := yaml.ReadSchemaFromFile(tcc.metadataInput)
	if err != nil {
		return err
	}
	s, err := tcc.snapshot.load(ctx, schema)
	defer func() {
		err = multierr.Append(err, tcc.snapshot.Close())
	}()
	if err != nil {
		return err
	}
	stream, err := tcc.stream.open(ctx, schema)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, stream.Close())
	}()
	log.Info("testing tree")
	successRate, failed, err := s.Test(ctx, stream)
	if err != nil {
		return fmt.Errorf("testing the tree: %v", err)
	}
	fmt.Printf("%f success rate, failed to make a prediction for %d examples\n", successRate, failed)
	return nil
}
