package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"readauth/pkg/logging"
	"readauth/pkg/oauth"
)

const (
	userConfigDir    = ".config/readauth"
	configFileName   = "config.yaml"
	settingsFileName = "settings.yaml"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/readauth.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configPath, falling back to defaults when
// the file does not exist, then applies environment overrides.
func LoadConfig(configPath string) (ReadauthConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return ReadauthConfig{}, fmt.Errorf("error reading %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return ReadauthConfig{}, &ConfigurationError{
				FilePath:    configFilePath,
				Message:     err.Error(),
				Suggestions: []string{"check the file is valid YAML"},
			}
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	if err := env.Parse(&config); err != nil {
		return ReadauthConfig{}, fmt.Errorf("error applying environment overrides: %w", err)
	}

	if err := validate(configFilePath, &config); err != nil {
		return ReadauthConfig{}, err
	}
	return config, nil
}

func validate(path string, cfg *ReadauthConfig) error {
	if cfg.Backend.URL != "" {
		u, err := url.Parse(cfg.Backend.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigurationError{
				FilePath:    path,
				Field:       "backend.url",
				Message:     fmt.Sprintf("invalid URL %q", cfg.Backend.URL),
				Suggestions: []string{"use the project URL, e.g. https://<project>.supabase.co"},
			}
		}
	}

	if cfg.Platform.Variant != "" {
		if _, ok := oauth.ParsePlatform(cfg.Platform.Variant); !ok {
			return &ConfigurationError{
				FilePath:    path,
				Field:       "platform.variant",
				Message:     fmt.Sprintf("unknown platform %q", cfg.Platform.Variant),
				Suggestions: []string{"use one of web, desktop, macos, ios, android"},
			}
		}
	}

	for _, port := range cfg.OAuth.ListenerPorts {
		if port <= 0 || port > 65535 {
			return &ConfigurationError{
				FilePath: path,
				Field:    "oauth.listenerPorts",
				Message:  fmt.Sprintf("port %d out of range", port),
			}
		}
	}
	return nil
}

// Mode returns the environment mode selected by Environment.
func (c ReadauthConfig) Mode() oauth.EnvironmentMode {
	return oauth.ParseEnvironmentMode(c.Environment)
}

// PlatformContext returns the configured platform, or the detected one.
func (c ReadauthConfig) PlatformContext() oauth.PlatformContext {
	if p, ok := oauth.ParsePlatform(c.Platform.Variant); ok {
		return oauth.ContextFor(p)
	}
	return oauth.DetectPlatform()
}

// Resolver returns the redirect resolver for the configured callback targets.
func (c ReadauthConfig) Resolver() oauth.Resolver {
	return oauth.Resolver{
		WebCallbackURL: c.OAuth.WebCallbackURL,
		DeepLinkURL:    c.OAuth.DeepLinkURL,
	}
}

// SessionDir returns the session storage directory.
func (c ReadauthConfig) SessionDir() (string, error) {
	if c.Backend.SessionDir != "" {
		return c.Backend.SessionDir, nil
	}
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine session directory: %w", err)
	}
	return filepath.Join(homeDir, oauth.DefaultSessionStorageDir), nil
}
