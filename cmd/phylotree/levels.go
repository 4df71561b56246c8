package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"phylotree/pkg/taxonomy"
)

func newLevelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List the hierarchy levels and their colours",
		Args:  cobra.NoArgs,
		// levels needs neither config nor a logger
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, lvl := range taxonomy.Levels() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", lvl, lvl.Key(), lvl.Color())
			}
			return tw.Flush()
		},
	}
}
