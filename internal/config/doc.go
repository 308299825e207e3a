// Package config loads readauth configuration.
//
// Configuration is layered:
//
//  1. GetDefaultConfig supplies defaults.
//  2. ~/.config/readauth/config.yaml overrides them when present.
//  3. Environment variables (NODE_ENV, READAUTH_BACKEND_URL, ...) override the file.
//
// Values that the app reads by explicit key at runtime (USE_CUSTOM_OAUTH) go
// through Runtime, which consults the environment before the file's runtime map.
//
// The package also owns settings.yaml, the small user settings file holding
// the auto-login-on-launch flag.
package config
