package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned by NewClient without a backend URL.
var ErrNotConfigured = errors.New("backend URL not configured")

// ErrNoSession is returned by operations that need a session when there is none.
var ErrNoSession = errors.New("no active session")

// AuthError is an error response from the auth backend.
type AuthError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth backend error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("auth backend error %d: %s", e.StatusCode, e.Message)
}

// Is allows errors.Is() to match any *AuthError.
func (e *AuthError) Is(target error) bool {
	_, ok := target.(*AuthError)
	return ok
}

// IsAuthError reports whether err is an error response from the backend.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// parseAuthError understands both error shapes the backend produces:
// {"error_code","msg"} and OAuth-style {"error","error_description"}.
func parseAuthError(resp *http.Response, body []byte) *AuthError {
	var payload struct {
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(body, &payload)

	authErr := &AuthError{StatusCode: resp.StatusCode}
	switch {
	case payload.ErrorCode != "" || payload.Msg != "":
		authErr.Code = payload.ErrorCode
		authErr.Message = payload.Msg
	case payload.Error != "":
		authErr.Code = payload.Error
		authErr.Message = payload.ErrorDescription
	default:
		authErr.Message = payload.Message
	}
	if authErr.Message == "" {
		authErr.Message = http.StatusText(resp.StatusCode)
	}
	return authErr
}
