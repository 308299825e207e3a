// Package cli holds the pieces of the readauth command line that are not
// commands themselves: typed authentication errors carrying actionable
// guidance (mapped to exit codes by cmd), go-pretty tables for status output,
// and the spinner shown while waiting for a sign-in redirect.
package cli
