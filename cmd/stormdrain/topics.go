package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dshills/stormdrain/internal/exchange"
)

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the reserved exchange topics",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			names := make([]exchange.Name, 0, len(exchange.Reserved))
			for name := range exchange.Reserved {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", name, exchange.Reserved[name])
			}
		},
	}
}
