package session

import (
	"errors"
	"fmt"
)

// ErrNoBackendConfigured is returned by SignIn when no auth client is set.
var ErrNoBackendConfigured = errors.New("no auth backend configured")

// ErrUnsupportedPlatformSignIn marks a native sign-in requested on a platform
// that has no native helper. It is logged, never returned.
var ErrUnsupportedPlatformSignIn = errors.New("sign-in method not supported on this platform")

// ErrNotMounted is returned when the controller is used before Mount or after
// Unmount.
var ErrNotMounted = errors.New("sign-in controller is not mounted")

// ListenerStartError reports that the loopback listener could not be started.
type ListenerStartError struct {
	Err error
}

// Error implements the error interface.
func (e *ListenerStartError) Error() string {
	return fmt.Sprintf("failed to start loopback listener: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ListenerStartError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is() to match any *ListenerStartError.
func (e *ListenerStartError) Is(target error) bool {
	_, ok := target.(*ListenerStartError)
	return ok
}
