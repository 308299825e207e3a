package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"readauth/pkg/logging"
)

// Settings are user preferences persisted between launches.
type Settings struct {
	// AutoLogin opens the sign-in flow on launch when no session exists.
	AutoLogin bool `yaml:"autoLogin"`

	// LastProvider is the provider of the last successful sign-in.
	LastProvider string `yaml:"lastProvider,omitempty"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{AutoLogin: true}
}

// SettingsStore reads and writes settings.yaml.
type SettingsStore struct {
	mu   sync.Mutex
	path string
}

// NewSettingsStore returns a store for settings.yaml inside configPath.
func NewSettingsStore(configPath string) *SettingsStore {
	return &SettingsStore{path: filepath.Join(configPath, settingsFileName)}
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load returns the stored settings, or the defaults if the file is missing.
func (s *SettingsStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *SettingsStore) loadLocked() (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, &ConfigurationError{FilePath: s.path, Message: err.Error()}
	}
	return settings, nil
}

// Save writes the settings file, creating its directory if needed.
func (s *SettingsStore) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(settings)
}

func (s *SettingsStore) saveLocked(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := yaml.Marshal(&settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Update loads, modifies and saves the settings under one lock.
func (s *SettingsStore) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadLocked()
	if err != nil {
		return err
	}
	fn(&settings)
	return s.saveLocked(settings)
}

// SetAutoLogin persists the auto-login-on-launch flag.
func (s *SettingsStore) SetAutoLogin(enabled bool) error {
	if err := s.Update(func(st *Settings) { st.AutoLogin = enabled }); err != nil {
		return err
	}
	logging.Debug("Settings", "Auto-login on launch set to %t", enabled)
	return nil
}

// SetLastProvider records the provider of a successful sign-in.
func (s *SettingsStore) SetLastProvider(provider string) error {
	return s.Update(func(st *Settings) { st.LastProvider = provider })
}
