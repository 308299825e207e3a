// Package browser opens sign-in URLs.
//
// Native shells route the provider page through different mechanisms: an
// embedded web-authentication session on iOS and macOS, a custom browser tab
// on Android, and the system browser everywhere else. All of them satisfy
// Opener. Only the system browser is implemented here; the native helpers are
// provided by the host shell.
package browser

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/skratchdot/open-golang/open"

	"readauth/pkg/logging"
)

// Opener opens an authorization URL. Mechanisms that capture the redirect
// themselves (embedded sessions, custom tabs) return it; the system browser
// returns "" and the redirect arrives through a deep link or the loopback
// listener instead.
type Opener interface {
	Open(ctx context.Context, authURL string) (redirectURL string, err error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, authURL string) (string, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, authURL string) (string, error) {
	return f(ctx, authURL)
}

// SystemBrowser opens URLs in the user's default browser.
type SystemBrowser struct{}

// Open implements Opener. It never captures the redirect.
func (SystemBrowser) Open(ctx context.Context, authURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", OpenURL(authURL)
}

// Replaced in tests so no real browser is launched.
var (
	libraryOpener   = open.Run
	commandLauncher = func(cmd *exec.Cmd) error { return cmd.Start() }
	lookPath        = exec.LookPath
	goos            = runtime.GOOS
)

// OpenURL opens url in the default browser, trying open-golang first and
// falling back to platform commands.
func OpenURL(url string) error {
	err := libraryOpener(url)
	if err == nil {
		logging.Debug("Browser", "Opened URL using open-golang")
		return nil
	}

	logging.Debug("Browser", "open-golang failed: %v, trying platform-specific commands", err)
	return openURLPlatformSpecific(url)
}

func openURLPlatformSpecific(url string) error {
	var cmd *exec.Cmd

	switch goos {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd", "openbsd":
		for _, browser := range []string{"xdg-open", "x-www-browser", "www-browser", "firefox", "chromium"} {
			if _, err := lookPath(browser); err == nil {
				cmd = exec.Command(browser, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("no suitable browser found")
		}
	default:
		return fmt.Errorf("unsupported platform: %s", goos)
	}

	if err := commandLauncher(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
