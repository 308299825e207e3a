package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"readauth/internal/browser"
	"readauth/internal/cli"
	"readauth/internal/deeplink"
	"readauth/internal/listener"
	"readauth/internal/session"
	"readauth/pkg/oauth"
)

// Login-specific flags
var (
	loginProvider string
	loginNoPaste  bool
	loginPrintURL bool
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with an identity provider",
	Long: `Sign in to the auth backend with an identity provider.

The provider page opens in the browser. The redirect comes back through the
app's deep link (production builds) or a local loopback listener
(development builds, or when USE_CUSTOM_OAUTH is set). If neither can reach
this process, paste the final URL from the browser address bar here.

Examples:
  readauth auth login --provider google
  readauth auth login --provider github --no-paste
  USE_CUSTOM_OAUTH=true readauth auth login --provider discord`,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().StringVarP(&loginProvider, "provider", "p", "", "Identity provider (google, apple, azure, github, discord); defaults to the last one used")
	authLoginCmd.Flags().BoolVar(&loginNoPaste, "no-paste", false, "Do not read a pasted redirect URL from stdin")
	authLoginCmd.Flags().BoolVar(&loginPrintURL, "print-url", false, "Print the provider URL instead of opening a browser")
}

// loginNavigator ends the wait when the controller navigates after a
// session was installed.
type loginNavigator struct {
	done chan string
}

func (n *loginNavigator) Navigate(path string) {
	select {
	case n.done <- path:
	default:
	}
}

func (n *loginNavigator) Back() {}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	client, err := a.requireClient()
	if err != nil {
		return err
	}

	provider, err := loginProviderFor(a)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if timeout := a.cfg.OAuth.CallbackTimeout; timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dispatcher := deeplink.NewDispatcher()
	nav := &loginNavigator{done: make(chan string, 1)}
	cfg := a.sessionConfig()
	cfg.Listener = listener.New(listener.Config{Ports: a.cfg.OAuth.ListenerPorts})
	cfg.DeepLinks = dispatcher
	cfg.Navigator = nav
	cfg.Openers.Browser = browserOpener(cmd)

	ctrl := session.New(cfg)
	if err := ctrl.Mount(ctx); err != nil {
		return &cli.AuthFailedError{Backend: client.URL(), Reason: err}
	}
	defer ctrl.Unmount()

	// The controller is subscribed now, so relaunch events left by open-url
	// before login started are not dropped.
	if err := handoffFor(configPath).Watch(ctx, dispatcher); err != nil {
		return err
	}

	if ctrl.NeedsLoopback() {
		authPrint(cmd, "Listening for the redirect on http://localhost:%d\n", ctrl.Port())
	}

	if err := ctrl.SignIn(ctx, provider); err != nil {
		return &cli.AuthFailedError{Backend: client.URL(), Reason: err}
	}

	next, err := waitForSession(ctx, cmd, nav.done, dispatcher)
	if err != nil {
		return &cli.AuthFailedError{Backend: client.URL(), Reason: err}
	}

	if err := a.settings.SetLastProvider(provider.String()); err != nil {
		authPrintln(cmd, cli.Failure("Could not remember provider: %v", err))
	}

	who := "unknown user"
	if s := client.Session(); s != nil {
		who = s.User.ID
		if s.User.Email != "" {
			who = s.User.Email
		}
	}
	authPrintln(cmd, cli.Success("Signed in as %s", who))
	authPrint(cmd, "Continue at %s\n", next)
	return nil
}

// loginProviderFor returns the --provider flag or the last provider used.
func loginProviderFor(a *app) (oauth.Provider, error) {
	name := loginProvider
	if name == "" {
		settings, err := a.settings.Load()
		if err != nil {
			return "", err
		}
		name = settings.LastProvider
	}
	if name == "" {
		return "", fmt.Errorf("no provider given, use --provider (one of %s)", providerNames())
	}
	return oauth.ParseProvider(name)
}

func providerNames() string {
	names := make([]string, 0, len(oauth.Providers))
	for _, p := range oauth.Providers {
		names = append(names, p.String())
	}
	return strings.Join(names, ", ")
}

// browserOpener prints the provider URL and opens it in the system browser.
// A browser that cannot be launched is not fatal; the user can open the URL.
func browserOpener(cmd *cobra.Command) browser.Opener {
	return browser.OpenerFunc(func(ctx context.Context, authURL string) (string, error) {
		if loginPrintURL {
			fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to sign in:\n  %s\n", authURL)
			return "", nil
		}
		authPrintln(cmd, "Opening browser for sign-in...")
		if _, err := (browser.SystemBrowser{}).Open(ctx, authURL); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Could not open a browser. Open this URL to sign in:\n  %s\n", authURL)
		}
		return "", nil
	})
}

// errSignedIn stops the wait group once a session is installed.
var errSignedIn = errors.New("signed in")

// waitForSession blocks until the controller navigates after installing a
// session, or ctx ends. Pasted redirect URLs are fed to dispatcher meanwhile.
func waitForSession(ctx context.Context, cmd *cobra.Command, done <-chan string, dispatcher *deeplink.Dispatcher) (string, error) {
	s := cli.StartSpinner(cmd.ErrOrStderr(), quiet, "Waiting for sign-in to complete...")

	var next string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case next = <-done:
			return errSignedIn
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	if !loginNoPaste {
		g.Go(func() error {
			return readPastedURLs(gctx, cmd.InOrStdin(), dispatcher)
		})
	}

	err := g.Wait()
	if errors.Is(err, errSignedIn) {
		s.Stop("")
		return next, nil
	}

	s.Stop(cli.Failure("Sign-in did not complete"))
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("timed out waiting for the sign-in redirect")
	}
	return "", err
}

// readPastedURLs forwards every line of in that looks like a URL to
// dispatcher until ctx ends. EOF on in is not an error.
func readPastedURLs(ctx context.Context, in io.Reader, dispatcher *deeplink.Dispatcher) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line = strings.TrimSpace(line); strings.Contains(line, "://") {
				dispatcher.OpenURLs([]string{line})
			}
		}
	}
}
