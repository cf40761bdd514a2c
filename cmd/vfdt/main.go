package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type rootCmdConfig struct {
	verbose    bool
	logFormat  string
	configFile string
	v          *viper.Viper
	ctx        context.Context
	cancelFunc context.CancelFunc
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	config := &rootCmdConfig{v: viper.New()}
	rootCmd := &cobra.Command{
		Use:   "vfdt",
		Short: "vfdt is a tool to learn decision trees from streams of data",
		Long: `A tool to grow Hoeffding trees (Very Fast Decision Trees) from streams of
examples, test them and use them to make predictions`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := config.load(cmd)
			if err != nil {
				return err
			}
			return config.setupLogger()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log debug messages")
	rootCmd.PersistentFlags().StringVar(&(config.logFormat), "log-format", "text", "format of the log messages: text or json")
	rootCmd.PersistentFlags().StringVar(&(config.configFile), "config", "", "path to a YAML, JSON or TOML file with values for the flags of the command, keyed by flag name")
	rootCmd.AddCommand(versionCmd(), trainCmd(config), predictCmd(config), testCmd(config), showCmd(config))
	return rootCmd
}

// load fills the flags of the command that were not set on the command
// line from the environment (VFDT_<FLAG NAME>) or the config file.
func (rcc *rootCmdConfig) load(cmd *cobra.Command) error {
	rcc.v.SetEnvPrefix("vfdt")
	rcc.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	rcc.v.AutomaticEnv()
	if rcc.configFile != "" {
		rcc.v.SetConfigFile(rcc.configFile)
		if err := rcc.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %v", rcc.configFile, err)
		}
	}
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || f.Name == "config" || !rcc.v.IsSet(f.Name) {
			return
		}
		if serr := cmd.Flags().Set(f.Name, rcc.v.GetString(f.Name)); serr != nil {
			err = fmt.Errorf("setting %s from configuration: %v", f.Name, serr)
		}
	})
	return err
}

func (rcc *rootCmdConfig) setContextAndCancelFunc() {
	if rcc.ctx == nil {
		rcc.ctx, rcc.cancelFunc = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	}
}

// Context returns a context cancelled on SIGINT or SIGTERM
func (rcc *rootCmdConfig) Context() context.Context {
	rcc.setContextAndCancelFunc()
	return rcc.ctx
}

// ContextCancelFunc returns the function that releases the
// signal handlers of the context returned by Context
func (rcc *rootCmdConfig) ContextCancelFunc() context.CancelFunc {
	rcc.setContextAndCancelFunc()
	return rcc.cancelFunc
}

// runInContext calls run with the command context and
// releases its signal handlers once run returns.
func (rcc *rootCmdConfig) runInContext(run func(context.Context) error) error {
	defer rcc.ContextCancelFunc()()
	return run(rcc.Context())
}

func exit(code int, err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}
