package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/i3m/tenant-guard/internal/client/apiclient"
	"github.com/i3m/tenant-guard/internal/client/guard"
	"github.com/i3m/tenant-guard/internal/client/invalidation"
	"github.com/i3m/tenant-guard/internal/client/session"
	"github.com/i3m/tenant-guard/internal/client/storage"
	"github.com/i3m/tenant-guard/internal/infrastructure/db/redis"
	"github.com/i3m/tenant-guard/pkg/logger"
)

type options struct {
	serverURL string
	redisAddr string
	redisDB   int
	profile   string
	tenant    string
	logLevel  string
}

// app is the per-invocation client state shared by subcommands.
type app struct {
	opts      options
	log       zerolog.Logger
	rdb       *goredis.Client
	stores    storage.Scopes
	session   *session.Session
	inv       *invalidation.Invalidator
	client    *apiclient.Client
	nav       *terminalNavigator
	migration storage.MigrationReport
}

// terminalNavigator stands in for a UI router: it records the current route and
// tells the user when the session sends them back to login.
type terminalNavigator struct {
	out  io.Writer
	path string
}

func (n *terminalNavigator) CurrentPath() string { return n.path }

func (n *terminalNavigator) Navigate(path string) {
	n.path = path
	if path == guard.DefaultLoginPath {
		fmt.Fprintln(n.out, "session ended, run `sessionctl login` to sign in again")
		return
	}
	fmt.Fprintf(n.out, "navigate: %s\n", path)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rt := &app{}

	root := &cobra.Command{
		Use:   "sessionctl",
		Short: "Tenant guard session client",
		Long: `sessionctl signs in to the tenant guard API, keeps the session in Redis,
evaluates route access locally and watches the server's liveness endpoint.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.rdb != nil {
				return rt.rdb.Close()
			}
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&rt.opts.serverURL, "server", envOr("SESSIONCTL_SERVER", "http://localhost:8080"), "API server URL (SESSIONCTL_SERVER)")
	f.StringVar(&rt.opts.redisAddr, "redis", envOr("SESSIONCTL_REDIS", "localhost:6379"), "Redis address holding the session (SESSIONCTL_REDIS)")
	f.IntVar(&rt.opts.redisDB, "redis-db", 0, "Redis database")
	f.StringVar(&rt.opts.profile, "profile", envOr("SESSIONCTL_PROFILE", "default"), "session profile name (SESSIONCTL_PROFILE)")
	f.StringVar(&rt.opts.tenant, "tenant", os.Getenv("SESSIONCTL_TENANT"), "tenant header for sessions without a tenant binding (SESSIONCTL_TENANT)")
	f.StringVar(&rt.opts.logLevel, "log-level", envOr("SESSIONCTL_LOG_LEVEL", "warn"), "log level")

	root.AddCommand(
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newWhoamiCmd(rt),
		newRouteCmd(rt),
		newDashboardCmd(rt),
		newWatchCmd(rt),
		newMigrateCmd(rt),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func (rt *app) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt.log = logger.Init(logger.Options{
		Level:   rt.opts.logLevel,
		Pretty:  true,
		Output:  cmd.ErrOrStderr(),
		Service: "sessionctl",
	})

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:       rt.opts.redisAddr,
		Password:   os.Getenv("SESSIONCTL_REDIS_PASSWORD"),
		DB:         rt.opts.redisDB,
		ClientName: "sessionctl",
	})
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	rt.rdb = rdb

	persistent := storage.NewRedisStore(rdb, rt.opts.profile)
	rt.stores = storage.Scopes{Persistent: persistent, Session: storage.NewMemoryStore()}

	rt.migration, err = storage.Migrate(ctx, persistent, rt.log)
	if err != nil {
		return fmt.Errorf("migrate session: %w", err)
	}

	rt.session = session.New(persistent)
	if err := rt.session.Restore(ctx); err != nil && !errors.Is(err, session.ErrUnauthenticated) {
		rt.log.Warn().Err(err).Msg("stored session unreadable")
	}

	rt.nav = &terminalNavigator{out: cmd.OutOrStdout()}
	rt.inv = invalidation.NewInvalidator(rt.stores, rt.session, rt.nav, rt.log)
	rt.client = apiclient.New(apiclient.Config{
		BaseURL:     rt.opts.serverURL,
		Session:     rt.session,
		Invalidator: rt.inv,
		Tenant:      rt.opts.tenant,
	})
	return nil
}
