// Package deeplink delivers redirect URLs that reach the app from outside:
// custom-scheme deep links and single-instance relaunches.
//
// When the OS opens readest://auth-callback#..., it launches a second copy of
// the binary with the URL as args[1]. That copy writes a RelaunchEvent into
// the handoff directory (Handoff.Send) and exits; the running instance
// watches the directory (Handoff.Watch) and feeds the URL into its
// Dispatcher, where the session controller is subscribed.
package deeplink
