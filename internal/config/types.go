package config

import "time"

// ReadauthConfig is the top-level configuration structure for readauth.
type ReadauthConfig struct {
	// Environment follows NODE_ENV: "production" or anything else for development.
	Environment string `yaml:"environment,omitempty" env:"NODE_ENV"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty" env:"READAUTH_LOG_LEVEL"`

	Backend  BackendConfig  `yaml:"backend"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Platform PlatformConfig `yaml:"platform"`

	// Redirect is where to go after the backend reports a new session.
	// Empty means the library.
	Redirect string `yaml:"redirect,omitempty"`

	// Runtime holds values looked up by explicit key, see Runtime.
	Runtime map[string]string `yaml:"runtime,omitempty"`
}

// BackendConfig points at the hosted auth backend.
type BackendConfig struct {
	URL     string `yaml:"url" env:"READAUTH_BACKEND_URL"`
	AnonKey string `yaml:"anonKey,omitempty" env:"READAUTH_BACKEND_ANON_KEY"`

	// SessionDir is where sessions are persisted. Empty means ~/.config/readauth/sessions.
	SessionDir string `yaml:"sessionDir,omitempty" env:"READAUTH_SESSION_DIR"`

	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// OAuthConfig tunes redirect handling.
type OAuthConfig struct {
	WebCallbackURL string `yaml:"webCallbackURL,omitempty"`
	DeepLinkURL    string `yaml:"deepLinkURL,omitempty"`

	// ListenerPorts are tried in order by the loopback listener. Empty means
	// an OS-assigned port.
	ListenerPorts []int `yaml:"listenerPorts,omitempty"`

	// UseAppleSignIn forces the native Apple sign-in flow.
	UseAppleSignIn bool `yaml:"useAppleSignIn,omitempty" env:"NEXT_PUBLIC_USE_APPLE_SIGN_IN"`

	// Origin is the page origin used by development web redirects.
	Origin string `yaml:"origin,omitempty"`

	// CallbackTimeout bounds how long `auth login` waits. Zero waits forever.
	CallbackTimeout time.Duration `yaml:"callbackTimeout,omitempty"`
}

// PlatformConfig overrides the detected platform, mainly for testing
// redirect behaviour of other shells.
type PlatformConfig struct {
	// Variant is one of web, desktop, macos, ios, android. Empty means detect.
	Variant string `yaml:"variant,omitempty" env:"READAUTH_PLATFORM"`
}
