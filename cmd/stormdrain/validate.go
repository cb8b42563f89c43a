package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d views, %d bounds, %d transforms, %d fields\n",
				len(cfg.Views), len(cfg.Bounds), len(cfg.Filter.Transforms), len(cfg.Dataset.Fields))
			return nil
		},
	}
}
