package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/i3m/tenant-guard/internal/client/guard"
)

func newRouteCmd(rt *app) *cobra.Command {
	var forbidden string

	c := &cobra.Command{
		Use:   "route <path>",
		Short: "Evaluate whether the session may open a route",
		Long: "Evaluate whether the session may open a route.\n\n" +
			"Paths missing from the route table carry no role restriction but still\n" +
			"require a session and, for tenant roles, the user's own tenant.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			route, ok := guard.DefaultTable.Match(path)
			if !ok {
				route = guard.Route{Pattern: path}
			}

			d := guard.Guard{ForbiddenPath: forbidden}.Evaluate(rt.session.Snapshot(), route, path)
			out := cmd.OutOrStdout()
			if d.Action == guard.Allow {
				fmt.Fprintf(out, "allow %s\n", path)
				return nil
			}
			fmt.Fprintf(out, "redirect %s -> %s\n", path, d.Target)
			pterm.Info.Println(d.Reason)
			return nil
		},
	}
	c.Flags().StringVar(&forbidden, "forbidden-path", "", "send role refusals here instead of /login")
	return c
}

func newDashboardCmd(rt *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show which dashboard the session renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := rt.session.Snapshot()
			fmt.Fprintln(cmd.OutOrStdout(), guard.SelectDashboard(snap.User))
			if snap.Authenticated() && snap.Role().TenantScoped() && snap.TenantID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "home: %s\n", guard.TenantHome(snap.TenantID))
			}
			return nil
		},
	}
}
