// Package oauth provides the pure OAuth plumbing shared by the readauth CLI
// and the session controller.
//
// Nothing in this package performs I/O. It answers two questions:
//
//   - Where should the identity provider redirect to? (Resolve, ResolveDesktopRedirect,
//     ResolveWebRedirect)
//   - What did the provider hand back? (ParseCallbackURL)
//
// # Redirect precedence
//
// For native shells the rules are evaluated in a fixed order:
//
//  1. Unless the operator forced a custom (loopback) OAuth server, production builds,
//     mobile apps and the forced native Apple flow use the registered deep link.
//     Mobile apps use the web callback for non-OAuth (email) flows.
//  2. Everything else is a development desktop build and uses http://localhost:<port>
//     served by the local loopback listener.
//
// Web builds always use a web callback URL.
//
// # Usage
//
//	target, err := oauth.Resolve(oauth.RedirectRequest{
//	    Platform:    oauth.DetectPlatform(),
//	    Mode:        oauth.ParseEnvironmentMode(os.Getenv("NODE_ENV")),
//	    LocalPort:   port,
//	    IsOAuthFlow: true,
//	})
//
//	if result, ok := oauth.ParseCallbackURL(redirectedURL); ok {
//	    // hand result.AccessToken to the session store
//	}
package oauth
