package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Report legacy session keys migrated at startup",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(rt.migration.Removed) == 0 {
				fmt.Fprintln(out, "no legacy keys")
				return nil
			}
			for _, k := range rt.migration.Migrated {
				fmt.Fprintf(out, "migrated %s\n", k)
			}
			for _, k := range rt.migration.Removed {
				fmt.Fprintf(out, "removed %s\n", k)
			}
			return nil
		},
	}
}
