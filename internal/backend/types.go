package backend

import (
	"time"

	"readauth/pkg/oauth"
)

// AuthEvent names an auth-state change.
type AuthEvent string

const (
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// User is the authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Session is an established backend session.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         User
}

// Expired reports whether the access token has expired.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// OAuthOptions are the inputs of SignInWithOAuth.
type OAuthOptions struct {
	Provider   oauth.Provider
	RedirectTo string
	Scopes     []string

	// SkipBrowserRedirect returns the URL instead of opening it.
	SkipBrowserRedirect bool

	QueryParams map[string]string
}

// OAuthResponse carries the provider authorization URL.
type OAuthResponse struct {
	Provider oauth.Provider
	URL      string
}

// IDTokenCredentials are the inputs of SignInWithIDToken.
type IDTokenCredentials struct {
	Provider oauth.Provider
	Token    string
	Nonce    string
}

// sessionResponse is the token endpoint payload.
type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

func (r *sessionResponse) toSession(now time.Time) *Session {
	s := &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		User:         r.User,
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	if s.TokenType == "" {
		s.TokenType = "bearer"
	}
	return s
}
