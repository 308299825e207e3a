package oauth

import (
	"fmt"
	"strings"
)

// DefaultSessionStorageDir is the default directory for persisted sessions,
// relative to the user's home directory.
const DefaultSessionStorageDir = ".config/readauth/sessions"

// NormalizeBackendURL strips trailing slashes and the REST prefix so that the
// same backend is always keyed identically regardless of how it was configured.
func NormalizeBackendURL(backendURL string) string {
	backendURL = strings.TrimSuffix(backendURL, "/")
	backendURL = strings.TrimSuffix(backendURL, "/auth/v1")
	return strings.TrimSuffix(backendURL, "/")
}

// Provider is an identity provider supported by the backend.
type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderApple   Provider = "apple"
	ProviderAzure   Provider = "azure"
	ProviderGitHub  Provider = "github"
	ProviderDiscord Provider = "discord"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{ProviderGoogle, ProviderApple, ProviderAzure, ProviderGitHub, ProviderDiscord}

// ParseProvider returns the Provider named by s (case-insensitive).
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported provider %q", s)
}

// String implements fmt.Stringer.
func (p Provider) String() string {
	return string(p)
}
