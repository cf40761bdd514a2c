package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pbanos/vfdt"
	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/impurity"
	"github.com/pbanos/vfdt/tree"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("VFDT_GRACE_PERIOD", "50")
	t.Setenv("VFDT_ON_MISMATCH", "abort")
	root := &rootCmdConfig{v: viper.New()}
	config := &trainCmdConfig{rootCmdConfig: root}
	cmd := config.command()
	require.NoError(t, cmd.Flags().Parse([]string{"--on-mismatch", "skip", "-m", "schema.yml"}))
	require.NoError(t, root.load(cmd))
	assert.Equal(t, 50, config.gracePeriod)
	assert.Equal(t, "skip", config.onMismatch)
	assert.Equal(t, "schema.yml", config.metadataInput)
}

func TestLoadFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vfdt.yml")
	require.NoError(t, os.WriteFile(path, []byte("metric: gini\ndelta: 0.01\nworkers: 4\n"), 0600))
	root := &rootCmdConfig{v: viper.New(), configFile: path}
	config := &trainCmdConfig{rootCmdConfig: root}
	cmd := config.command()
	require.NoError(t, root.load(cmd))
	assert.Equal(t, 4, config.workers)
	c, err := config.treeConfig()
	require.NoError(t, err)
	assert.True(t, c.Metric == impurity.Gini)
	assert.Equal(t, 0.01, c.Delta)
}

func TestTrainCmdConfigValidate(t *testing.T) {
	config := &trainCmdConfig{rootCmdConfig: &rootCmdConfig{v: viper.New()}}
	config.command()
	assert.Error(t, config.Validate())

	config.metadataInput = "schema.yml"
	assert.NoError(t, config.Validate())
	c, err := config.treeConfig()
	require.NoError(t, err)
	assert.Equal(t, tree.DefaultConfig().GracePeriod, c.GracePeriod)
	p, err := config.mismatchPolicy()
	require.NoError(t, err)
	assert.Equal(t, vfdt.MismatchSkip, p)

	config.delta = 1
	assert.Error(t, config.Validate())
	config.delta = 0.01
	config.secondBest = "zero"
	c, err = config.treeConfig()
	require.NoError(t, err)
	assert.Equal(t, tree.Zero, c.SingleAttributeSecondBest)
	config.onMismatch = "retry"
	assert.Error(t, config.Validate())
	config.onMismatch = "abort"
	config.stream.dsn = "file:examples.db"
	assert.Error(t, config.Validate())
	config.stream.query = "SELECT * FROM examples"
	assert.NoError(t, config.Validate())
	config.stream.driver = "mysql"
	assert.Error(t, config.Validate())

	config.stream = streamConfig{mongoURL: "mongodb://localhost/vfdt", mongoQuery: `{"split": "train"}`}
	assert.NoError(t, config.Validate())
	filter, err := config.stream.mongoFilter()
	require.NoError(t, err)
	assert.Equal(t, "train", filter["split"])
	config.stream.mongoQuery = "{"
	assert.Error(t, config.Validate())
	config.stream = streamConfig{mongoURL: "mongodb://localhost/vfdt", mongoQuery: "{}", input: "examples.csv"}
	assert.Error(t, config.Validate())
}

func TestSnapshotConfigValidate(t *testing.T) {
	sc := &snapshotConfig{}
	assert.Error(t, sc.Validate())
	sc.treeInput = "tree.json"
	assert.NoError(t, sc.Validate())
	sc.redis.addr = "localhost:6379"
	assert.Error(t, sc.Validate())
	sc.treeInput = ""
	assert.NoError(t, sc.Validate())
	assert.NoError(t, sc.Close())
}

func TestRunInContextReleasesContext(t *testing.T) {
	root := &rootCmdConfig{v: viper.New()}
	var runCtx context.Context
	err := root.runInContext(func(ctx context.Context) error {
		runCtx = ctx
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.Error(t, runCtx.Err())
}

func TestTrainAbortKeepsMismatchError(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.yml")
	require.NoError(t, os.WriteFile(schemaPath, []byte("features: [{name: x, type: continuous}]\nlabel: {name: c, values: [a, b]}\n"), 0600))
	inputPath := filepath.Join(dir, "examples.csv")
	require.NoError(t, os.WriteFile(inputPath, []byte("x,c\n1,a\nabc,b\n"), 0600))

	config := &trainCmdConfig{rootCmdConfig: &rootCmdConfig{v: viper.New()}}
	config.command()
	config.metadataInput = schemaPath
	config.output = filepath.Join(dir, "tree.json")
	config.stream.input = inputPath
	config.onMismatch = "abort"
	require.NoError(t, config.Validate())

	err := config.run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, feature.ErrSchemaMismatch), "got %v", err)
	assert.Contains(t, err.Error(), "growing the tree")
}
