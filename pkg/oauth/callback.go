package oauth

import (
	"net/url"
	"strings"
)

// DefaultNextPath is the destination when the callback names none.
const DefaultNextPath = "/"

// EventRecovery is the event type of a password-recovery callback.
const EventRecovery = "recovery"

// CallbackResult is the payload of a completed implicit-grant redirect.
// Empty RefreshToken and EventType mean the callback did not carry them.
type CallbackResult struct {
	AccessToken  string
	RefreshToken string
	EventType    string
	NextPath     string
}

// HasRefreshToken reports whether the callback carried a refresh token.
func (r *CallbackResult) HasRefreshToken() bool {
	return r.RefreshToken != ""
}

// IsRecovery reports whether the callback finishes a password recovery.
func (r *CallbackResult) IsRecovery() bool {
	return r.EventType == EventRecovery
}

// ParseCallbackURL extracts the session from the fragment of a redirected URL.
// It returns false when there is no fragment or the fragment carries no
// access_token; neither case is an error.
func ParseCallbackURL(raw string) (*CallbackResult, bool) {
	_, fragment, found := strings.Cut(raw, "#")
	if !found {
		return nil, false
	}

	// ParseQuery keeps every well-formed pair even when it reports an error
	// for a malformed one, which matches how browsers read fragments.
	params, _ := url.ParseQuery(fragment)

	accessToken := params.Get("access_token")
	if accessToken == "" {
		return nil, false
	}

	next := params.Get("next")
	if next == "" {
		next = DefaultNextPath
	}

	return &CallbackResult{
		AccessToken:  accessToken,
		RefreshToken: params.Get("refresh_token"),
		EventType:    params.Get("type"),
		NextPath:     next,
	}, true
}

// CallbackError holds the error a provider reported in the fragment or query
// of a redirect that carries no session.
type CallbackError struct {
	Code        string
	Description string
}

func (e *CallbackError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// ParseCallbackError returns the provider error carried by a redirect, if any.
// The fragment is checked before the query string.
func ParseCallbackError(raw string) (*CallbackError, bool) {
	base, fragment, _ := strings.Cut(raw, "#")
	candidates := []string{fragment}
	if _, query, ok := strings.Cut(base, "?"); ok {
		candidates = append(candidates, query)
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		params, _ := url.ParseQuery(c)
		if code := params.Get("error"); code != "" {
			return &CallbackError{Code: code, Description: params.Get("error_description")}, true
		}
	}
	return nil, false
}
