package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/i3m/tenant-guard/internal/client/guard"
	"github.com/i3m/tenant-guard/internal/client/session"
)

func newLoginCmd(rt *app) *cobra.Command {
	var email, password, tenantID string

	c := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SESSIONCTL_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and --password (or SESSIONCTL_PASSWORD) are required")
			}

			user, err := rt.client.Login(cmd.Context(), email, password, tenantID)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			pterm.Success.Printfln("Signed in as %s (%s)", user.Email, user.Role)
			if user.TenantID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "tenant: %s\n", user.TenantID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dashboard: %s\n", guard.SelectDashboard(user))
			return nil
		},
	}
	c.Flags().StringVar(&email, "email", os.Getenv("SESSIONCTL_EMAIL"), "account email (SESSIONCTL_EMAIL)")
	c.Flags().StringVar(&password, "password", "", "account password (SESSIONCTL_PASSWORD)")
	c.Flags().StringVar(&tenantID, "tenant-id", "", "tenant to sign in to")
	return c
}

func newLogoutCmd(rt *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rt.session.Snapshot().Authenticated() {
				pterm.Info.Println("Not signed in")
				return rt.inv.Clear(cmd.Context(), session.ErrUnauthenticated)
			}
			if err := rt.client.Logout(cmd.Context()); err != nil {
				pterm.Warning.Printfln("Server logout failed: %v", err)
			}
			pterm.Success.Println("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(rt *app) *cobra.Command {
	var remote bool

	c := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := rt.session.Snapshot()
			if !snap.Authenticated() {
				return session.ErrUnauthenticated
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user: %s\n", snap.User.Email)
			fmt.Fprintf(out, "role: %s\n", snap.Role())
			if snap.TenantID != "" {
				fmt.Fprintf(out, "tenant: %s\n", snap.TenantID)
			}

			if !remote {
				return nil
			}
			me, err := rt.client.Me(cmd.Context())
			if err != nil {
				return fmt.Errorf("whoami: %w", err)
			}
			fmt.Fprintf(out, "server: %s as %s in tenant %s\n", me.User.ID, me.User.Role, me.TenantID)
			return nil
		},
	}
	c.Flags().BoolVar(&remote, "remote", false, "also ask the server")
	return c
}
