package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"readauth/internal/cli"
	"readauth/internal/session"
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the reading app session",
	Long: `Manage the session with the reading app's auth backend.

Examples:
  readauth auth login --provider google   # Sign in with Google
  readauth auth status                    # Show the current session
  readauth auth logout                    # Sign out
  readauth auth skip                      # Continue without signing in
  readauth auth redirect --platform ios   # Show the redirect target for a platform
  readauth auth parse '<redirect url>'    # Inspect a redirect URL`,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Long: `Sign out of the auth backend.

The session is revoked on the backend and removed from disk. The local
session is removed even when the backend cannot be reached.`,
	RunE: runAuthLogout,
}

// authSkipCmd represents the auth skip command
var authSkipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Continue without signing in",
	Long: `Leave the sign-in screen without signing in.

Auto-login on launch is turned off so the app does not ask again.`,
	RunE: runAuthSkip,
}

// authPrint prints output only if the --quiet flag is not set.
func authPrint(cmd *cobra.Command, format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}

// authPrintln prints a line only if the --quiet flag is not set.
func authPrintln(cmd *cobra.Command, a ...interface{}) {
	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), a...)
	}
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authSkipCmd)
	authCmd.AddCommand(authRedirectCmd)
	authCmd.AddCommand(authParseCmd)
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	client, err := a.requireClient()
	if err != nil {
		return err
	}

	if client.Session() == nil {
		authPrintln(cmd, "Not signed in.")
		return nil
	}

	ctrl := session.New(a.sessionConfig())
	if err := ctrl.SignOut(cmd.Context()); err != nil {
		authPrintln(cmd, cli.Failure("Backend sign-out failed, local session cleared: %v", err))
		return nil
	}
	authPrintln(cmd, cli.Success("Signed out of %s", client.URL()))
	return nil
}

// printNavigator reports navigation on the command output.
type printNavigator struct {
	cmd *cobra.Command
}

func (n printNavigator) Navigate(path string) {
	authPrint(n.cmd, "Continue at %s\n", path)
}

func (n printNavigator) Back() {
	authPrintln(n.cmd, "Returning to the previous screen.")
}

func runAuthSkip(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cfg := a.sessionConfig()
	cfg.Navigator = printNavigator{cmd: cmd}
	session.New(cfg).GoBack()

	settings, err := a.settings.Load()
	if err != nil {
		return err
	}
	authPrint(cmd, "Auto-login: %s\n", cli.StatusText(settings.AutoLogin, "on", "off"))
	return nil
}
