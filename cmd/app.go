package cmd

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"readauth/internal/backend"
	"readauth/internal/config"
	"readauth/internal/deeplink"
	"readauth/internal/session"
	"readauth/pkg/logging"
)

// handoffDirName is the relaunch handoff directory inside the config path.
const handoffDirName = "handoff"

// app bundles the configuration and collaborators shared by the commands.
type app struct {
	cfg      config.ReadauthConfig
	settings *config.SettingsStore

	// client is nil when no backend URL is configured.
	client *backend.Client
}

// loadApp loads configuration from the --config-path directory and builds
// the backend client.
func loadApp(errOut io.Writer) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if !debug && cfg.LogLevel != "" {
		logging.InitForCLI(logging.ParseLevel(cfg.LogLevel), errOut)
	}

	a := &app{
		cfg:      cfg,
		settings: config.NewSettingsStore(configPath),
	}
	if cfg.Backend.URL == "" {
		return a, nil
	}

	dir, err := cfg.SessionDir()
	if err != nil {
		return nil, err
	}
	store, err := backend.NewSessionStore(backend.SessionStoreConfig{StorageDir: dir, FileMode: true})
	if err != nil {
		return nil, err
	}

	a.client, err = backend.NewClient(backend.Config{
		URL:        cfg.Backend.URL,
		AnonKey:    cfg.Backend.AnonKey,
		HTTPClient: &http.Client{Timeout: cfg.Backend.Timeout},
		Store:      store,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return a, nil
}

// requireClient returns the backend client or ErrNoBackendConfigured.
func (a *app) requireClient() (*backend.Client, error) {
	if a.client == nil {
		return nil, fmt.Errorf("%w: set backend.url in %s or READAUTH_BACKEND_URL",
			session.ErrNoBackendConfigured, filepath.Join(configPath, "config.yaml"))
	}
	return a.client, nil
}

// handoffFor returns the single-instance relaunch handoff inside dir.
func handoffFor(dir string) *deeplink.Handoff {
	return deeplink.NewHandoff(filepath.Join(dir, handoffDirName))
}

// sessionConfig returns the controller configuration derived from the
// loaded configuration. Collaborators are filled in by the caller.
func (a *app) sessionConfig() session.Config {
	cfg := session.Config{
		Platform:             a.cfg.PlatformContext(),
		Mode:                 a.cfg.Mode(),
		Resolver:             a.cfg.Resolver(),
		UseCustomOAuthServer: a.cfg.RuntimeValues().UseCustomOAuthServer(),
		UseAppleSignIn:       a.cfg.OAuth.UseAppleSignIn,
		Origin:               a.cfg.OAuth.Origin,
		Redirect:             a.cfg.Redirect,
		Settings:             a.settings,
	}
	if a.client != nil {
		cfg.Auth = a.client
	}
	return cfg
}
