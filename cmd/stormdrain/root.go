package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/stormdrain/internal/config"
	"github.com/dshills/stormdrain/internal/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "stormdrain",
		Short:         "Reactive linked-view dataflow core",
		Long:          "stormdrain links the axes of several views through shared bounds and filters data to whatever the views show.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "path to a TOML or YAML configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newRunCmd(g),
		newValidateCmd(g),
		newTopicsCmd(),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration and applies flag overrides.
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	l, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return l, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stormdrain %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
