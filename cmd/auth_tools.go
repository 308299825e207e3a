package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"readauth/internal/cli"
	"readauth/pkg/oauth"
	pkgstrings "readauth/pkg/strings"
)

// Redirect-specific flags
var (
	redirectPlatform  string
	redirectMode      string
	redirectCustom    bool
	redirectApple     bool
	redirectPort      int
	redirectEmail     bool
	redirectOrigin    string
	parseRevealTokens bool
)

// authRedirectCmd represents the auth redirect command
var authRedirectCmd = &cobra.Command{
	Use:   "redirect",
	Short: "Show the OAuth redirect target",
	Long: `Show the redirect target the sign-in flow would pass to the provider.

Flags default to the loaded configuration, so without flags this prints the
target for the current machine.

Examples:
  readauth auth redirect
  readauth auth redirect --platform ios --email
  readauth auth redirect --platform desktop --mode development --port 54321
  readauth auth redirect --platform web --mode development --origin http://localhost:3000`,
	Args: cobra.NoArgs,
	RunE: runAuthRedirect,
}

// authParseCmd represents the auth parse command
var authParseCmd = &cobra.Command{
	Use:   "parse <url>",
	Short: "Inspect a sign-in redirect URL",
	Long: `Show the session a redirect URL carries in its fragment.

Tokens are masked unless --reveal is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthParse,
}

func init() {
	authRedirectCmd.Flags().StringVar(&redirectPlatform, "platform", "", "Platform: web, desktop, macos, ios, android (default: configured or detected)")
	authRedirectCmd.Flags().StringVar(&redirectMode, "mode", "", "Environment mode: production or development (default: NODE_ENV)")
	authRedirectCmd.Flags().BoolVar(&redirectCustom, "custom-oauth", false, "Force the loopback listener (USE_CUSTOM_OAUTH)")
	authRedirectCmd.Flags().BoolVar(&redirectApple, "apple", false, "Force the native Apple sign-in flow")
	authRedirectCmd.Flags().IntVar(&redirectPort, "port", 0, "Loopback listener port")
	authRedirectCmd.Flags().BoolVar(&redirectEmail, "email", false, "Resolve the email-link redirect instead of the OAuth one")
	authRedirectCmd.Flags().StringVar(&redirectOrigin, "origin", "", "Page origin for development web builds")

	authParseCmd.Flags().BoolVar(&parseRevealTokens, "reveal", false, "Print tokens unmasked")
}

func runAuthRedirect(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	req := oauth.RedirectRequest{
		Platform:             a.cfg.PlatformContext(),
		Mode:                 a.cfg.Mode(),
		UseCustomOAuthServer: a.cfg.RuntimeValues().UseCustomOAuthServer(),
		AppleSignInForced:    a.cfg.OAuth.UseAppleSignIn,
		LocalPort:            redirectPort,
		IsOAuthFlow:          !redirectEmail,
		Origin:               a.cfg.OAuth.Origin,
	}
	if redirectPlatform != "" {
		p, ok := oauth.ParsePlatform(redirectPlatform)
		if !ok {
			return fmt.Errorf("unknown platform %q", redirectPlatform)
		}
		req.Platform = oauth.ContextFor(p)
	}
	if redirectMode != "" {
		req.Mode = oauth.ParseEnvironmentMode(redirectMode)
	}
	if cmd.Flags().Changed("custom-oauth") {
		req.UseCustomOAuthServer = redirectCustom
	}
	if cmd.Flags().Changed("apple") {
		req.AppleSignInForced = redirectApple
	}
	if redirectOrigin != "" {
		req.Origin = redirectOrigin
	}

	target, err := a.cfg.Resolver().Resolve(req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), target)
	return nil
}

func runAuthParse(cmd *cobra.Command, args []string) error {
	raw := args[0]

	result, ok := oauth.ParseCallbackURL(raw)
	if !ok {
		if cbErr, isErr := oauth.ParseCallbackError(raw); isErr {
			fmt.Fprintln(cmd.OutOrStdout(), cli.Failure("Provider error: %v", cbErr))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No session in URL.")
		return nil
	}

	mask := pkgstrings.MaskSecret
	if parseRevealTokens {
		mask = func(s string) string { return s }
	}
	refresh := "(none)"
	if result.HasRefreshToken() {
		refresh = mask(result.RefreshToken)
	}
	eventType := "(none)"
	if result.EventType != "" {
		eventType = result.EventType
	}

	cli.KeyValueTable(cmd.OutOrStdout(), [][2]string{
		{"Access token", mask(result.AccessToken)},
		{"Refresh token", refresh},
		{"Type", eventType},
		{"Next", pkgstrings.TruncateDescription(result.NextPath, pkgstrings.DefaultDescriptionMaxLen)},
	})
	return nil
}
