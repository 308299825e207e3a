package session

import (
	"context"
	"fmt"
	"sync"

	"readauth/internal/backend"
	"readauth/internal/browser"
	"readauth/pkg/logging"
	"readauth/pkg/oauth"
)

const (
	subsystem = "Session"

	// DefaultRedirect is where a signed-in user lands without an explicit target.
	DefaultRedirect = "/library"

	// RecoveryPath handles password-recovery callbacks.
	RecoveryPath = "/auth/recovery"
)

// AppleScopes are requested from the native Apple ID helper.
var AppleScopes = []string{"email", "fullName"}

// State is the lifecycle state of a Controller.
type State int

const (
	// StateIdle means no listener is being set up and no callback is being handled.
	StateIdle State = iota

	// StateListenerStarting means the loopback listener is being bound.
	StateListenerStarting

	// StateListenerActive means the loopback listener is waiting for a redirect.
	StateListenerActive

	// StateCallbackReceived means a redirect carrying a token is being installed.
	StateCallbackReceived

	// StateStopped is terminal; reached on Unmount.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListenerStarting:
		return "listener_starting"
	case StateListenerActive:
		return "listener_active"
	case StateCallbackReceived:
		return "callback_received"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// AuthClient is the part of the auth backend the controller uses.
type AuthClient interface {
	SignInWithOAuth(ctx context.Context, opts backend.OAuthOptions) (*backend.OAuthResponse, error)
	SignInWithIDToken(ctx context.Context, creds backend.IDTokenCredentials) (*backend.Session, error)
	SetSession(ctx context.Context, accessToken, refreshToken string) (*backend.Session, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(fn func(backend.AuthEvent, *backend.Session)) func()
}

// LoopbackListener is the local redirect listener.
type LoopbackListener interface {
	Start(ctx context.Context) (int, error)
	OnURL(fn func(string)) func()
	OnInvalidURL(fn func(string)) func()
	Cancel(port int) error
}

// DeepLinkSource delivers URLs opened through the app's URL scheme.
type DeepLinkSource interface {
	OnOpenURL(fn func(urls []string)) func()
}

// AppleSignIn is the native Apple ID helper. It returns the identity token,
// or "" when the user did not complete the sheet.
type AppleSignIn interface {
	SignIn(ctx context.Context, scopes []string) (identityToken string, err error)
}

// Navigator moves the host shell between pages.
type Navigator interface {
	Navigate(path string)
	Back()
}

// Settings persists user preferences touched by the sign-in screen.
type Settings interface {
	SetAutoLogin(enabled bool) error
}

// Openers holds one opener per mechanism. Browser defaults to the system browser.
type Openers struct {
	// AuthSession is the embedded web-authentication session (iOS, macOS).
	AuthSession browser.Opener
	// CustomTab is the custom browser tab (Android).
	CustomTab browser.Opener
	Browser   browser.Opener
}

// Config configures a Controller.
type Config struct {
	Platform oauth.PlatformContext
	Mode     oauth.EnvironmentMode
	Resolver oauth.Resolver

	// UseCustomOAuthServer forces the loopback listener.
	UseCustomOAuthServer bool

	// UseAppleSignIn forces the native Apple flow for the apple provider.
	UseAppleSignIn bool

	// Origin is the page origin for web builds.
	Origin string

	// Redirect overrides DefaultRedirect after a sign-in.
	Redirect string

	Auth      AuthClient
	Listener  LoopbackListener
	DeepLinks DeepLinkSource
	Openers   Openers
	Apple     AppleSignIn
	Navigator Navigator
	Settings  Settings
}

// Controller owns one sign-in screen's auth attempt.
type Controller struct {
	cfg Config

	mu             sync.Mutex
	state          State
	mounted        bool
	listenerActive bool
	port           int
	handling       int
	unsubscribers  []func()
	warnedOpener   bool
}

// New creates a controller in StateIdle.
func New(cfg Config) *Controller {
	if cfg.Openers.Browser == nil {
		cfg.Openers.Browser = browser.SystemBrowser{}
	}
	return &Controller{cfg: cfg, state: StateIdle}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Port returns the loopback listener port, or 0 when none is running.
func (c *Controller) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port
}

// NeedsLoopback reports whether this controller's platform and mode route the
// redirect through the loopback listener.
func (c *Controller) NeedsLoopback() bool {
	return oauth.NeedsLoopback(c.cfg.Platform, c.cfg.Mode, c.cfg.UseCustomOAuthServer, c.cfg.UseAppleSignIn)
}

// Mount subscribes to auth-state changes and deep links, and starts the
// loopback listener when the redirect rules need it. Mounting twice is a no-op.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return ErrNotMounted
	}
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	c.mu.Unlock()

	if c.cfg.Auth != nil {
		c.subscribe(c.cfg.Auth.OnAuthStateChange(c.handleAuthStateChange))
	}
	if c.cfg.DeepLinks != nil {
		c.subscribe(c.cfg.DeepLinks.OnOpenURL(func(urls []string) {
			for _, u := range urls {
				if err := c.HandleCallbackURL(ctx, u); err != nil {
					logging.Error(subsystem, err, "Failed to handle deep link")
				}
			}
		}))
	}

	if !c.NeedsLoopback() {
		return nil
	}
	return c.startListener(ctx)
}

// subscribe records unsubscribe for Unmount. A registration that lands after
// Unmount is dropped immediately.
func (c *Controller) subscribe(unsubscribe func()) {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		unsubscribe()
		return
	}
	c.unsubscribers = append(c.unsubscribers, unsubscribe)
	c.mu.Unlock()
}

func (c *Controller) startListener(ctx context.Context) error {
	if c.cfg.Listener == nil {
		err := &ListenerStartError{Err: fmt.Errorf("no loopback listener available")}
		logging.Error(subsystem, err, "Sign-in via redirect is unavailable")
		return err
	}

	c.mu.Lock()
	if c.listenerActive || !c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.listenerActive = true
	c.state = StateListenerStarting
	c.mu.Unlock()

	c.subscribe(c.cfg.Listener.OnURL(func(u string) {
		if err := c.HandleCallbackURL(ctx, u); err != nil {
			logging.Error(subsystem, err, "Failed to handle loopback redirect")
		}
	}))
	c.subscribe(c.cfg.Listener.OnInvalidURL(func(u string) {
		logging.Warn(subsystem, "Loopback listener received an invalid redirect (%d chars)", len(u))
	}))

	port, err := c.cfg.Listener.Start(ctx)
	if err != nil {
		c.mu.Lock()
		c.listenerActive = false
		if c.state == StateListenerStarting {
			c.state = StateIdle
		}
		c.mu.Unlock()

		startErr := &ListenerStartError{Err: err}
		logging.Error(subsystem, startErr, "Sign-in via redirect is unavailable")
		return startErr
	}

	c.mu.Lock()
	if !c.mounted {
		// Unmounted while binding: release the port right away.
		c.mu.Unlock()
		c.cancelListener(port)
		return nil
	}
	c.port = port
	c.state = StateListenerActive
	c.mu.Unlock()

	logging.Info(subsystem, "Loopback listener active on port %d", port)
	return nil
}

// SignIn starts a sign-in with provider. For redirect-based flows it returns
// once the provider page is open; the session arrives later through
// HandleCallbackURL.
func (c *Controller) SignIn(ctx context.Context, provider oauth.Provider) error {
	if c.cfg.Auth == nil {
		return ErrNoBackendConfigured
	}
	if !c.isMounted() {
		return ErrNotMounted
	}

	if provider == oauth.ProviderApple && (c.cfg.Platform.IsIOSApp || c.cfg.UseAppleSignIn) {
		return c.signInWithApple(ctx)
	}

	variant := c.cfg.Platform.Variant()
	if !variant.IsNative() {
		redirectTo, err := c.cfg.Resolver.ResolveWebRedirect(c.cfg.Mode, c.cfg.Origin)
		if err != nil {
			return err
		}
		_, err = c.cfg.Auth.SignInWithOAuth(ctx, backend.OAuthOptions{Provider: provider, RedirectTo: redirectTo})
		if err != nil {
			logging.Error(subsystem, err, "Failed to start %s sign-in", provider)
		}
		return err
	}

	redirectTo, err := c.cfg.Resolver.ResolveDesktopRedirect(c.cfg.Platform, c.cfg.Mode,
		c.cfg.UseCustomOAuthServer, c.cfg.UseAppleSignIn, c.Port(), true)
	if err != nil {
		return fmt.Errorf("failed to resolve redirect target: %w", err)
	}

	resp, err := c.cfg.Auth.SignInWithOAuth(ctx, backend.OAuthOptions{
		Provider:            provider,
		RedirectTo:          redirectTo,
		SkipBrowserRedirect: true,
	})
	if err != nil {
		logging.Error(subsystem, err, "Failed to start %s sign-in", provider)
		return err
	}

	logging.Info(subsystem, "Opening %s sign-in (redirect %s)", provider, redirectTo)
	redirectURL, err := c.openerFor(variant).Open(ctx, resp.URL)
	if err != nil {
		return fmt.Errorf("failed to open sign-in page: %w", err)
	}
	if redirectURL != "" {
		return c.HandleCallbackURL(ctx, redirectURL)
	}
	return nil
}

func (c *Controller) signInWithApple(ctx context.Context) error {
	if c.cfg.Apple == nil || !(c.cfg.Platform.IsIOSApp || c.cfg.Platform.IsMacOSApp) {
		logging.Warn(subsystem, "Apple sign-in on %s: %v", c.cfg.Platform.Variant(), ErrUnsupportedPlatformSignIn)
		return nil
	}

	token, err := c.cfg.Apple.SignIn(ctx, AppleScopes)
	if err != nil {
		logging.Error(subsystem, err, "Apple sign-in failed")
		return err
	}
	if token == "" {
		logging.Info(subsystem, "Apple sign-in returned no identity token")
		return nil
	}

	if _, err := c.cfg.Auth.SignInWithIDToken(ctx, backend.IDTokenCredentials{
		Provider: oauth.ProviderApple,
		Token:    token,
	}); err != nil {
		logging.Error(subsystem, err, "Failed to exchange Apple identity token")
		return err
	}
	return nil
}

// openerFor picks the mechanism for the variant, falling back to the system
// browser when the native one is not available.
func (c *Controller) openerFor(variant oauth.Platform) browser.Opener {
	var native browser.Opener
	switch variant {
	case oauth.PlatformIOS, oauth.PlatformMacOS:
		native = c.cfg.Openers.AuthSession
	case oauth.PlatformAndroid:
		native = c.cfg.Openers.CustomTab
	default:
		return c.cfg.Openers.Browser
	}
	if native != nil {
		return native
	}

	c.mu.Lock()
	warn := !c.warnedOpener
	c.warnedOpener = true
	c.mu.Unlock()
	if warn {
		logging.Warn(subsystem, "No native sign-in session on %s, using the system browser", variant)
	}
	return c.cfg.Openers.Browser
}

// HandleCallbackURL installs the session carried by a redirect URL and
// navigates to its next page. URLs without a token are ignored.
func (c *Controller) HandleCallbackURL(ctx context.Context, raw string) error {
	result, ok := oauth.ParseCallbackURL(raw)
	if !ok {
		if cbErr, isErr := oauth.ParseCallbackError(raw); isErr {
			logging.Warn(subsystem, "Sign-in was not completed: %v", cbErr)
		} else {
			logging.Debug(subsystem, "Redirect carried no session")
		}
		return nil
	}
	if c.cfg.Auth == nil {
		return ErrNoBackendConfigured
	}

	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		logging.Debug(subsystem, "Ignoring redirect received while unmounted")
		return nil
	}
	c.state = StateCallbackReceived
	c.handling++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.handling--
		if c.state == StateCallbackReceived && c.handling == 0 {
			c.state = StateIdle
		}
		c.mu.Unlock()
	}()

	logging.Debug(subsystem, "Redirect carried a token (refresh token: %t, type %q)",
		result.HasRefreshToken(), result.EventType)

	if _, err := c.cfg.Auth.SetSession(ctx, result.AccessToken, result.RefreshToken); err != nil {
		logging.Error(subsystem, err, "Failed to install session from redirect")
		return err
	}

	if !c.isMounted() {
		logging.Debug(subsystem, "Session installed after unmount, not navigating")
		return nil
	}
	next := result.NextPath
	if result.IsRecovery() {
		next = RecoveryPath
	}
	c.navigate(next)
	return nil
}

func (c *Controller) handleAuthStateChange(event backend.AuthEvent, s *backend.Session) {
	if event != backend.EventSignedIn || s == nil || s.AccessToken == "" {
		return
	}

	c.mu.Lock()
	mounted := c.mounted
	fromRedirect := c.handling > 0
	c.mu.Unlock()

	// Redirect callbacks navigate to their own next page.
	if !mounted || fromRedirect {
		return
	}

	target := c.cfg.Redirect
	if target == "" {
		target = DefaultRedirect
	}
	c.navigate(target)
}

func (c *Controller) navigate(path string) {
	if c.cfg.Navigator == nil {
		return
	}
	c.cfg.Navigator.Navigate(path)
}

// GoBack turns auto-login off and leaves the sign-in screen.
func (c *Controller) GoBack() {
	if c.cfg.Settings != nil {
		if err := c.cfg.Settings.SetAutoLogin(false); err != nil {
			logging.Warn(subsystem, "Failed to disable auto-login: %v", err)
		}
	}
	if c.cfg.Navigator != nil {
		c.cfg.Navigator.Back()
	}
}

// SignOut signs out of the backend.
func (c *Controller) SignOut(ctx context.Context) error {
	if c.cfg.Auth == nil {
		return ErrNoBackendConfigured
	}
	return c.cfg.Auth.SignOut(ctx)
}

// EmailRedirectTo is the redirect target for email sign-in links.
func (c *Controller) EmailRedirectTo() (string, error) {
	if !c.cfg.Platform.Variant().IsNative() {
		return c.cfg.Resolver.ResolveWebRedirect(c.cfg.Mode, c.cfg.Origin)
	}
	return c.cfg.Resolver.ResolveDesktopRedirect(c.cfg.Platform, c.cfg.Mode,
		c.cfg.UseCustomOAuthServer, c.cfg.UseAppleSignIn, c.Port(), false)
}

// Unmount drops every subscription and stops the loopback listener. It is
// safe to call more than once.
func (c *Controller) Unmount() {
	c.mu.Lock()
	c.mounted = false
	c.state = StateStopped
	port := c.port
	c.port = 0
	unsubscribers := c.unsubscribers
	c.unsubscribers = nil
	c.mu.Unlock()

	for _, unsubscribe := range unsubscribers {
		unsubscribe()
	}
	if port != 0 {
		c.cancelListener(port)
	}
}

func (c *Controller) cancelListener(port int) {
	if err := c.cfg.Listener.Cancel(port); err != nil {
		logging.Warn(subsystem, "Failed to stop loopback listener on port %d: %v", port, err)
		return
	}
	logging.Debug(subsystem, "Loopback listener on port %d stopped", port)
}

func (c *Controller) isMounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}
