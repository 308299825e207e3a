package config

import (
	"fmt"
	"strings"
)

// ConfigurationError describes a configuration file that could not be used.
type ConfigurationError struct {
	FilePath    string
	Field       string
	Message     string
	Suggestions []string
}

// Error implements the error interface.
func (ce *ConfigurationError) Error() string {
	if ce.Field != "" {
		return fmt.Sprintf("%s: %s: %s", ce.FilePath, ce.Field, ce.Message)
	}
	return fmt.Sprintf("%s: %s", ce.FilePath, ce.Message)
}

// DetailedError returns the error with its suggestions, one per line.
func (ce *ConfigurationError) DetailedError() string {
	parts := []string{ce.Error()}
	for _, s := range ce.Suggestions {
		parts = append(parts, "  - "+s)
	}
	return strings.Join(parts, "\n")
}
