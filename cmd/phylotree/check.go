package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"phylotree/pkg/taxonomy"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and validate the data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			table := svc.Table()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d rows\n", a.cfg.Data.Path, table.Len())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, lvl := range taxonomy.Levels() {
				fmt.Fprintf(tw, "%s\t%d distinct\n", lvl, len(table.Distinct(lvl)))
			}
			return tw.Flush()
		},
	}
}
