package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"readauth/internal/deeplink"
)

// newOpenURLCmd creates the command the OS runs for the app's URL scheme.
// It hands the URL to the running `auth login` and exits.
func newOpenURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open-url <url>",
		Short: "Forward a deep-link URL to the running sign-in",
		Long: `Forward a URL opened through the app's URL scheme to the running
'readauth auth login'. Register this command as the handler for the
readest:// scheme.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, _ := os.Getwd()
			ev := deeplink.RelaunchEvent{
				Args: []string{os.Args[0], args[0]},
				Cwd:  cwd,
			}
			if err := handoffFor(configPath).Send(ev); err != nil {
				return err
			}
			authPrintln(cmd, "Forwarded to the running sign-in.")
			return nil
		},
	}
}
