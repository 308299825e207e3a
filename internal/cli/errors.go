package cli

import (
	"fmt"
)

// AuthRequiredError indicates there is no session for the backend.
// Implements error with actionable guidance.
type AuthRequiredError struct {
	// Backend is the auth backend URL.
	Backend string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Not signed in to %s

To sign in, run:
  readauth auth login --provider <name>`, e.Backend)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthExpiredError indicates the stored session expired and could not be
// refreshed.
type AuthExpiredError struct {
	// Backend is the auth backend URL.
	Backend string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf(`Session expired for %s

To sign in again, run:
  readauth auth login --provider <name>`, e.Backend)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthExpiredError) Is(target error) bool {
	_, ok := target.(*AuthExpiredError)
	return ok
}

// AuthFailedError indicates a sign-in attempt failed.
type AuthFailedError struct {
	// Backend is the auth backend URL.
	Backend string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Sign-in failed for %s: %v

To retry, run:
  readauth auth login --provider <name>`, e.Backend, e.Reason)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}
