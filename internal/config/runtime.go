package config

import (
	"os"
	"strings"
)

// KeyUseCustomOAuth selects the loopback OAuth server on shells that cannot
// register a URL scheme (e.g. sandboxed Linux packages).
const KeyUseCustomOAuth = "USE_CUSTOM_OAUTH"

// Runtime resolves string values by explicit key.
type Runtime struct {
	values map[string]string
	lookup func(string) (string, bool)
}

// NewRuntime returns a Runtime backed by the process environment and the
// given fallback values.
func NewRuntime(values map[string]string) *Runtime {
	return &Runtime{values: values, lookup: os.LookupEnv}
}

// RuntimeValues returns the runtime values of this configuration.
func (c ReadauthConfig) RuntimeValues() *Runtime {
	return NewRuntime(c.Runtime)
}

// Value returns the value for key, preferring the environment.
func (r *Runtime) Value(key string) string {
	if r.lookup != nil {
		if v, ok := r.lookup(key); ok {
			return v
		}
	}
	return r.values[key]
}

// Bool interprets the value for key as a flag: "true" or "1" is set.
func (r *Runtime) Bool(key string) bool {
	v := strings.TrimSpace(r.Value(key))
	return strings.EqualFold(v, "true") || v == "1"
}

// UseCustomOAuthServer reports whether USE_CUSTOM_OAUTH is set.
func (r *Runtime) UseCustomOAuthServer() bool {
	return r.Bool(KeyUseCustomOAuth)
}
