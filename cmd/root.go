package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"readauth/internal/cli"
	"readauth/internal/config"
	"readauth/internal/session"
	"readauth/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates there is no usable session.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the sign-in attempt failed.
	ExitCodeAuthFailed = 3
)

var (
	configPath string
	debug      bool
	quiet      bool
)

// rootCmd represents the base command for the readauth application.
var rootCmd = &cobra.Command{
	Use:   "readauth",
	Short: "Sign in to the reading app's backend from the desktop",
	Long: `readauth runs the reading app's sign-in flow outside the app shell.

It picks the OAuth redirect target for the platform (deep link, loopback
listener or web callback), opens the provider page, waits for the redirect
and stores the resulting session.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelWarn
		if debug {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
	},
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a code derived from the error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "readauth version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authExpired *cli.AuthExpiredError
	if errors.As(err, &authExpired) {
		return ExitCodeAuthRequired
	}

	if errors.Is(err, session.ErrNoBackendConfigured) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func defaultConfigPath() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return ""
	}
	return path
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newOpenURLCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", defaultConfigPath(), "Configuration directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
}
