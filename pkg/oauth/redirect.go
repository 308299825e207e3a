package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultWebCallbackURL is the hosted callback page used by production web
	// builds and by mobile email flows.
	DefaultWebCallbackURL = "https://web.readest.com/auth/callback"

	// DefaultDeepLinkURL is the custom-scheme URI registered by the native apps.
	DefaultDeepLinkURL = "readest://auth-callback"

	// webCallbackPath is appended to the page origin for non-production web builds.
	webCallbackPath = "/auth/callback"
)

// ErrLocalPortRequired is returned when the loopback branch is selected but
// no listener port has been assigned yet.
var ErrLocalPortRequired = errors.New("local listener port required for loopback redirect")

// ErrOriginRequired is returned when a development web redirect is requested
// without the page origin.
var ErrOriginRequired = errors.New("page origin required for development web redirect")

// Resolver computes OAuth redirect targets. The zero value uses the default
// web callback and deep-link URIs.
type Resolver struct {
	WebCallbackURL string
	DeepLinkURL    string
}

// DefaultResolver is used by the package-level helpers.
var DefaultResolver = Resolver{
	WebCallbackURL: DefaultWebCallbackURL,
	DeepLinkURL:    DefaultDeepLinkURL,
}

func (r Resolver) webCallback() string {
	if r.WebCallbackURL == "" {
		return DefaultWebCallbackURL
	}
	return r.WebCallbackURL
}

func (r Resolver) deepLink() string {
	if r.DeepLinkURL == "" {
		return DefaultDeepLinkURL
	}
	return r.DeepLinkURL
}

// RedirectRequest carries every input of a redirect decision.
type RedirectRequest struct {
	Platform PlatformContext
	Mode     EnvironmentMode

	// UseCustomOAuthServer forces the loopback listener, for packaging formats
	// that cannot register a URL scheme.
	UseCustomOAuthServer bool

	// AppleSignInForced selects the native Apple sign-in flow.
	AppleSignInForced bool

	// LocalPort is the port of the running loopback listener, 0 if none.
	LocalPort int

	// IsOAuthFlow is true for provider sign-in and false for email links.
	IsOAuthFlow bool

	// Origin is the page origin, only consulted for development web builds.
	Origin string
}

// usesDeepLink is branch 1 of the desktop rules.
func usesDeepLink(ctx PlatformContext, mode EnvironmentMode, useCustomOAuthServer, appleSignInForced bool) bool {
	return !useCustomOAuthServer && (mode == Production || ctx.IsMobileApp || appleSignInForced)
}

// NeedsLoopback reports whether a native shell must run the local loopback
// listener to receive the redirect.
func NeedsLoopback(ctx PlatformContext, mode EnvironmentMode, useCustomOAuthServer, appleSignInForced bool) bool {
	if !ctx.Variant().IsNative() {
		return false
	}
	return !usesDeepLink(ctx, mode, useCustomOAuthServer, appleSignInForced)
}

// ResolveDesktopRedirect returns the redirect target for a native shell.
// A zero localPort in the loopback branch yields ErrLocalPortRequired.
func (r Resolver) ResolveDesktopRedirect(ctx PlatformContext, mode EnvironmentMode, useCustomOAuthServer, appleSignInForced bool, localPort int, isOAuthFlow bool) (string, error) {
	if usesDeepLink(ctx, mode, useCustomOAuthServer, appleSignInForced) {
		if ctx.IsMobileApp && !isOAuthFlow {
			return r.webCallback(), nil
		}
		return r.deepLink(), nil
	}

	if localPort <= 0 || localPort > 65535 {
		return "", fmt.Errorf("%w: got %d", ErrLocalPortRequired, localPort)
	}
	return fmt.Sprintf("http://localhost:%d", localPort), nil
}

// ResolveWebRedirect returns the redirect target for a web build. Outside
// production the callback lives on the page's own origin.
func (r Resolver) ResolveWebRedirect(mode EnvironmentMode, origin string) (string, error) {
	if mode == Production {
		return r.webCallback(), nil
	}

	origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
	if origin == "" {
		return "", ErrOriginRequired
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid page origin %q", origin)
	}
	return u.Scheme + "://" + u.Host + webCallbackPath, nil
}

// Resolve dispatches on the platform variant and applies the matching rules.
func (r Resolver) Resolve(req RedirectRequest) (string, error) {
	switch req.Platform.Variant() {
	case PlatformWeb:
		return r.ResolveWebRedirect(req.Mode, req.Origin)
	case PlatformDesktop, PlatformMacOS, PlatformIOS, PlatformAndroid:
		return r.ResolveDesktopRedirect(req.Platform, req.Mode, req.UseCustomOAuthServer, req.AppleSignInForced, req.LocalPort, req.IsOAuthFlow)
	default:
		return "", fmt.Errorf("unknown platform %v", req.Platform.Variant())
	}
}

// ResolveDesktopRedirect uses DefaultResolver.
func ResolveDesktopRedirect(ctx PlatformContext, mode EnvironmentMode, useCustomOAuthServer, appleSignInForced bool, localPort int, isOAuthFlow bool) (string, error) {
	return DefaultResolver.ResolveDesktopRedirect(ctx, mode, useCustomOAuthServer, appleSignInForced, localPort, isOAuthFlow)
}

// ResolveWebRedirect uses DefaultResolver.
func ResolveWebRedirect(mode EnvironmentMode, origin string) (string, error) {
	return DefaultResolver.ResolveWebRedirect(mode, origin)
}

// Resolve uses DefaultResolver.
func Resolve(req RedirectRequest) (string, error) {
	return DefaultResolver.Resolve(req)
}
