package config

import (
	"time"

	"readauth/pkg/oauth"
)

const (
	// DefaultRedirect is where a fresh session lands when no redirect is configured.
	DefaultRedirect = "/library"

	// DefaultBackendTimeout bounds every backend request.
	DefaultBackendTimeout = 30 * time.Second

	// DefaultCallbackTimeout is how long `auth login` waits for the redirect.
	DefaultCallbackTimeout = 10 * time.Minute
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() ReadauthConfig {
	return ReadauthConfig{
		Environment: "production",
		LogLevel:    "info",
		Backend: BackendConfig{
			Timeout: DefaultBackendTimeout,
		},
		OAuth: OAuthConfig{
			WebCallbackURL:  oauth.DefaultWebCallbackURL,
			DeepLinkURL:     oauth.DefaultDeepLinkURL,
			CallbackTimeout: DefaultCallbackTimeout,
		},
		Redirect: DefaultRedirect,
	}
}
