// Package listener implements the local loopback OAuth listener.
//
// It is only used when the app cannot receive the redirect through its
// registered URL scheme (development builds, sandboxed Linux packages). The
// identity provider redirects the browser to http://localhost:<port>, with the
// session encoded in the URL fragment. Browsers never send fragments to the
// server, so the root page runs a one-line script that forwards the full
// location to /callback?url=..., where it is validated and handed to the
// registered OnURL handlers.
//
// Each Start binds one port; Cancel(port) releases it and is a no-op for
// ports that are not (or no longer) bound.
package listener
