package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"readauth/internal/backend"
	"readauth/internal/cli"
	"readauth/pkg/oauth"
	pkgstrings "readauth/pkg/strings"
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long: `Show the stored session, the redirect strategy for this platform and
the auto-login setting.

An expired session is refreshed when it has a refresh token. The command
exits with code 2 when there is no usable session.`,
	RunE: runAuthStatus,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	client, err := a.requireClient()
	if err != nil {
		return err
	}

	s := client.Session()
	if s == nil {
		return &cli.AuthRequiredError{Backend: client.URL()}
	}
	if s.Expired() {
		refreshed, err := client.RefreshSession(cmd.Context())
		if err != nil {
			return &cli.AuthExpiredError{Backend: client.URL()}
		}
		s = refreshed
	}

	if quiet {
		return nil
	}
	cli.KeyValueTable(cmd.OutOrStdout(), statusRows(a, client.URL(), s))
	return nil
}

func statusRows(a *app, backendURL string, s *backend.Session) [][2]string {
	expires := "never"
	if !s.ExpiresAt.IsZero() {
		expires = s.ExpiresAt.Local().Format(time.RFC3339)
	}

	platform := a.cfg.PlatformContext()
	mode := a.cfg.Mode()
	strategy := "deep link"
	switch {
	case !platform.Variant().IsNative():
		strategy = "web callback"
	case oauth.NeedsLoopback(platform, mode, a.cfg.RuntimeValues().UseCustomOAuthServer(), a.cfg.OAuth.UseAppleSignIn):
		strategy = "loopback listener"
	}

	autoLogin := "unknown"
	if settings, err := a.settings.Load(); err == nil {
		autoLogin = cli.StatusText(settings.AutoLogin, "on", "off")
	}

	return [][2]string{
		{"Backend", backendURL},
		{"Status", cli.StatusText(true, "Signed in", "")},
		{"User", s.User.ID},
		{"Email", pkgstrings.TruncateDescription(s.User.Email, pkgstrings.DefaultDescriptionMaxLen)},
		{"Access token", pkgstrings.MaskSecret(s.AccessToken)},
		{"Refresh token", cli.StatusText(s.RefreshToken != "", "present", "none")},
		{"Expires", expires},
		{"Platform", platform.Variant().String()},
		{"Mode", mode.String()},
		{"Redirect", strategy},
		{"Auto-login", autoLogin},
	}
}
