package cmd

import (
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/i3m/tenant-guard/internal/client/invalidation"
)

func newWatchCmd(rt *app) *cobra.Command {
	var interval time.Duration

	c := &cobra.Command{
		Use:   "watch",
		Short: "Poll server liveness and clear the session when it fails",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			probe := invalidation.NewProbe(invalidation.ProbeConfig{
				URL:         strings.TrimRight(rt.opts.serverURL, "/") + "/health",
				Interval:    interval,
				Invalidator: rt.inv,
				OnServerRestart: func() {
					pterm.Error.Println("Server restarted or unreachable. Session cleared; sign in again.")
				},
				Logger: rt.log,
			})

			pterm.Info.Printfln("Watching %s every %s (Ctrl+C to stop)", rt.opts.serverURL, interval)
			handle := probe.Start(ctx)
			<-ctx.Done()
			handle.Stop()
			return nil
		},
	}
	c.Flags().DurationVar(&interval, "interval", invalidation.DefaultProbeInterval, "probe interval")
	return c
}
