package backend

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"readauth/pkg/logging"
	"readauth/pkg/oauth"
)

// SessionStore persists backend sessions, keyed by backend URL.
//
// SECURITY: files are created 0600 inside a 0700 directory, and token values
// are never logged.
type SessionStore struct {
	mu         sync.RWMutex
	storageDir string
	sessions   map[string]*StoredSession
	fileMode   bool
}

// StoredSession is the persisted form of a Session.
type StoredSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry,omitempty"`
	User         User      `json:"user"`
	BackendURL   string    `json:"backend_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionStoreConfig configures the session store.
type SessionStoreConfig struct {
	// StorageDir defaults to ~/.config/readauth/sessions.
	StorageDir string

	// FileMode enables file persistence. If false, sessions live in memory only.
	FileMode bool
}

// NewSessionStore creates a session store.
func NewSessionStore(cfg SessionStoreConfig) (*SessionStore, error) {
	storageDir := cfg.StorageDir
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, oauth.DefaultSessionStorageDir)
	}

	if cfg.FileMode {
		if err := os.MkdirAll(storageDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create session storage directory: %w", err)
		}
	}

	return &SessionStore{
		storageDir: storageDir,
		sessions:   make(map[string]*StoredSession),
		fileMode:   cfg.FileMode,
	}, nil
}

// Store saves token and user for backendURL.
func (s *SessionStore) Store(backendURL string, token *oauth2.Token, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backendURL = oauth.NormalizeBackendURL(backendURL)
	stored := &StoredSession{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		User:         user,
		BackendURL:   backendURL,
		CreatedAt:    time.Now(),
	}

	key := sessionKey(backendURL)
	if s.fileMode {
		if err := s.writeFile(key, stored); err != nil {
			logging.Warn("SessionStore", "Failed to persist session for %s: %v", backendURL, err)
			return fmt.Errorf("failed to persist session: %w", err)
		}
		logging.Debug("SessionStore", "Stored session for %s (expiry %s, refresh token: %t)",
			backendURL, stored.Expiry.Format(time.RFC3339), stored.RefreshToken != "")
	}
	s.sessions[key] = stored
	return nil
}

// Get returns the session for backendURL, or nil if there is none or it has expired.
func (s *SessionStore) Get(backendURL string) *StoredSession {
	stored := s.GetIncludingExpired(backendURL)
	if stored == nil || !isValid(stored) {
		return nil
	}
	return stored
}

// GetIncludingExpired returns the session even if its access token expired,
// so the refresh token can still be used.
func (s *SessionStore) GetIncludingExpired(backendURL string) *StoredSession {
	key := sessionKey(oauth.NormalizeBackendURL(backendURL))

	s.mu.RLock()
	stored, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		return stored
	}

	if !s.fileMode {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.sessions[key]; ok {
		return stored
	}
	stored, err := s.readFile(key)
	if err != nil {
		return nil
	}
	s.sessions[key] = stored
	return stored
}

// Delete removes the session for backendURL.
func (s *SessionStore) Delete(backendURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backendURL = oauth.NormalizeBackendURL(backendURL)
	key := sessionKey(backendURL)
	delete(s.sessions, key)

	if s.fileMode {
		path := filepath.Join(s.storageDir, key+".json")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}
	logging.Debug("SessionStore", "Deleted session for %s", backendURL)
	return nil
}

// ToOAuth2Token converts a StoredSession to an oauth2.Token.
func (t *StoredSession) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// ToSession converts a StoredSession to a Session.
func (t *StoredSession) ToSession() *Session {
	return &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresAt:    t.Expiry,
		User:         t.User,
	}
}

// sessionKey hashes the backend URL into a filesystem-safe name.
func sessionKey(backendURL string) string {
	hash := sha256.Sum256([]byte(backendURL))
	return hex.EncodeToString(hash[:16])
}

// expiryBuffer accounts for clock skew and request latency.
const expiryBuffer = 60 * time.Second

func isValid(t *StoredSession) bool {
	if t == nil {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(expiryBuffer).Before(t.Expiry)
}

func (s *SessionStore) writeFile(key string, stored *StoredSession) error {
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return os.WriteFile(filepath.Join(s.storageDir, key+".json"), data, 0600)
}

func (s *SessionStore) readFile(key string) (*StoredSession, error) {
	// #nosec G304 -- path is built from an internal key
	data, err := os.ReadFile(filepath.Join(s.storageDir, key+".json"))
	if err != nil {
		return nil, err
	}
	var stored StoredSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &stored, nil
}
