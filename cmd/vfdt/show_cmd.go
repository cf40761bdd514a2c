package main

import (
	"context"
	"fmt"

	"github.com/pbanos/vfdt/feature/yaml"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

type showCmdConfig struct {
	*rootCmdConfig
	metadataInput string
	snapshot      snapshotConfig
}

func showCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &showCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a tree",
		Long:  `Print the nodes of a tree, read from a JSON file or a redis DB`,
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
	cmd.Flags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features and the label of the tree (required)")
	config.snapshot.addFlags(cmd)
	return cmd
}

func (scc *showCmdConfig) Validate() error {
	if scc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return scc.snapshot.Validate()
}

func (scc *showCmdConfig) run(ctx context.Context) (err error) {
	schema, err := yaml.ReadSchemaFromFile(scc.metadataInput)
	if err != nil {
		return err
	}
	s, err := scc.snapshot.load(ctx, schema)
	defer func() {
		err = multierr.Append(err, scc.snapshot.Close())
	}()
	if err != nil {
		return err
	}
	fmt.Print(s)
	return nil
}
