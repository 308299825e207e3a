// Package backend is a client for the hosted auth backend (a GoTrue-compatible
// REST API). It issues provider authorization URLs, exchanges native ID
// tokens, installs sessions recovered from redirects, and notifies
// subscribers of auth-state changes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"readauth/internal/browser"
	"readauth/pkg/logging"
	"readauth/pkg/oauth"
)

const (
	authPath = "/auth/v1"

	// DefaultHTTPTimeout is the default timeout for backend requests.
	DefaultHTTPTimeout = 30 * time.Second

	subsystem = "Backend"
)

// Config configures a Client.
type Config struct {
	URL     string
	AnonKey string

	// HTTPClient is optional.
	HTTPClient *http.Client

	// Store persists the session. Optional; without it sessions are not kept
	// across runs.
	Store *SessionStore
}

// Client talks to the auth backend.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	store      *SessionStore
	openURL    func(string) error
	now        func() time.Time

	// refreshGroup collapses concurrent refreshes of the same token.
	refreshGroup singleflight.Group

	mu          sync.RWMutex
	session     *Session
	subscribers map[uuid.UUID]func(AuthEvent, *Session)
}

// NewClient creates a client and restores any persisted session.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", cfg.URL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	c := &Client{
		baseURL:     oauth.NormalizeBackendURL(cfg.URL),
		anonKey:     cfg.AnonKey,
		httpClient:  httpClient,
		store:       cfg.Store,
		openURL:     browser.OpenURL,
		now:         time.Now,
		subscribers: make(map[uuid.UUID]func(AuthEvent, *Session)),
	}

	if c.store != nil {
		if stored := c.store.GetIncludingExpired(c.baseURL); stored != nil {
			c.session = stored.ToSession()
		}
	}
	return c, nil
}

// URL returns the normalized backend URL.
func (c *Client) URL() string {
	return c.baseURL
}

// Session returns the current session, or nil.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// OnAuthStateChange subscribes fn to auth-state changes. fn is called once
// immediately with EventInitialSession and the current session (possibly nil).
// The returned function unsubscribes.
func (c *Client) OnAuthStateChange(fn func(AuthEvent, *Session)) func() {
	id := uuid.New()

	c.mu.Lock()
	c.subscribers[id] = fn
	current := c.session
	c.mu.Unlock()

	fn(EventInitialSession, current)

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Client) emit(event AuthEvent, session *Session) {
	c.mu.RLock()
	fns := make([]func(AuthEvent, *Session), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

// SignInWithOAuth builds the provider authorization URL. Unless
// SkipBrowserRedirect is set, the URL is also opened in the system browser.
func (c *Client) SignInWithOAuth(ctx context.Context, opts OAuthOptions) (*OAuthResponse, error) {
	if opts.Provider == "" {
		return nil, fmt.Errorf("provider is required")
	}

	q := url.Values{}
	q.Set("provider", string(opts.Provider))
	if opts.RedirectTo != "" {
		q.Set("redirect_to", opts.RedirectTo)
	}
	if len(opts.Scopes) > 0 {
		q.Set("scopes", strings.Join(opts.Scopes, " "))
	}
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}

	authURL := c.baseURL + authPath + "/authorize?" + q.Encode()
	resp := &OAuthResponse{Provider: opts.Provider, URL: authURL}

	if !opts.SkipBrowserRedirect {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.openURL(authURL); err != nil {
			return nil, fmt.Errorf("failed to open authorization URL: %w", err)
		}
	}

	logging.Debug(subsystem, "Built %s authorization URL (redirect %s)", opts.Provider, opts.RedirectTo)
	return resp, nil
}

// SignInWithIDToken exchanges a native identity token for a session.
func (c *Client) SignInWithIDToken(ctx context.Context, creds IDTokenCredentials) (*Session, error) {
	if creds.Token == "" {
		return nil, fmt.Errorf("identity token is required")
	}

	body := map[string]string{
		"provider": string(creds.Provider),
		"id_token": creds.Token,
	}
	if creds.Nonce != "" {
		body["nonce"] = creds.Nonce
	}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=id_token", "", body, &resp); err != nil {
		return nil, err
	}

	session := resp.toSession(c.now())
	if err := c.install(session, EventSignedIn); err != nil {
		return nil, err
	}
	return session, nil
}

// SetSession installs a session recovered from a redirect. The access token
// is verified against the backend; an already expired token is refreshed
// first when a refresh token is available.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	claims := parseClaims(accessToken)
	if claims.expired(c.now()) && refreshToken != "" {
		return c.refresh(ctx, refreshToken, EventSignedIn)
	}

	var user User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = claims.Subject
	}
	if user.Email == "" {
		user.Email = claims.Email
	}

	session := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    claims.ExpiresAt,
		User:         user,
	}
	if err := c.install(session, EventSignedIn); err != nil {
		return nil, err
	}
	return session, nil
}

// RefreshSession exchanges the current refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	current := c.Session()
	if current == nil || current.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return c.refresh(ctx, current.RefreshToken, EventTokenRefreshed)
}

func (c *Client) refresh(ctx context.Context, refreshToken string, event AuthEvent) (*Session, error) {
	v, err, _ := c.refreshGroup.Do(refreshToken, func() (interface{}, error) {
		var resp sessionResponse
		body := map[string]string{"refresh_token": refreshToken}
		if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &resp); err != nil {
			return nil, err
		}

		session := resp.toSession(c.now())
		if err := c.install(session, event); err != nil {
			return nil, err
		}
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// SignOut revokes the session on the backend and forgets it locally. The
// local session is dropped even if the backend call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	current := c.session
	c.session = nil
	c.mu.Unlock()

	var remoteErr error
	if current != nil {
		remoteErr = c.do(ctx, http.MethodPost, "/logout", current.AccessToken, nil, nil)
		if remoteErr != nil {
			logging.Warn(subsystem, "Backend sign-out failed: %v", remoteErr)
		}
	}

	if c.store != nil {
		if err := c.store.Delete(c.baseURL); err != nil {
			return err
		}
	}

	c.emit(EventSignedOut, nil)
	return remoteErr
}

func (c *Client) install(session *Session, event AuthEvent) error {
	if c.store != nil {
		token := &oauth2.Token{
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
			TokenType:    session.TokenType,
			Expiry:       session.ExpiresAt,
		}
		if err := c.store.Store(c.baseURL, token, session.User); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	logging.Info(subsystem, "Session established for user %s", session.User.ID)
	c.emit(event, session)
	return nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+authPath+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	switch {
	case bearer != "":
		req.Header.Set("Authorization", "Bearer "+bearer)
	case c.anonKey != "":
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to auth backend failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read auth backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAuthError(resp, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode auth backend response: %w", err)
	}
	return nil
}

// tokenClaims are the access-token claims readauth cares about.
type tokenClaims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

func (c tokenClaims) expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// parseClaims reads claims without verifying the signature; the backend
// verifies the token on every request. Opaque tokens yield zero claims.
func parseClaims(accessToken string) tokenClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return tokenClaims{}
	}

	var out tokenClaims
	out.Subject, _ = claims.GetSubject()
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out
}
