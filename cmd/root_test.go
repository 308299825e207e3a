package cmd

import (
	"errors"
	"fmt"
	"testing"

	"readauth/internal/cli"
	"readauth/internal/session"
)

func TestSetVersion(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	SetVersion("1.2.3-test")
	if GetVersion() != "1.2.3-test" {
		t.Errorf("Expected version to be 1.2.3-test, got %s", GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "readauth" {
		t.Errorf("Expected Use to be 'readauth', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}

	for _, name := range []string{"auth", "version", "open-url"} {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "generic error", err: errors.New("boom"), want: ExitCodeError},
		{name: "auth required", err: &cli.AuthRequiredError{Backend: "b"}, want: ExitCodeAuthRequired},
		{name: "auth expired", err: &cli.AuthExpiredError{Backend: "b"}, want: ExitCodeAuthRequired},
		{name: "no backend", err: fmt.Errorf("login: %w", session.ErrNoBackendConfigured), want: ExitCodeAuthRequired},
		{name: "auth failed", err: &cli.AuthFailedError{Backend: "b", Reason: errors.New("x")}, want: ExitCodeAuthFailed},
		{name: "wrapped auth failed", err: fmt.Errorf("wrapped: %w", &cli.AuthFailedError{Reason: errors.New("x")}), want: ExitCodeAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()
	rootCmd.Version = "1.2.3-test"

	out, err := executeCommand(t, "", "version")
	if err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}
	if out != "readauth version 1.2.3-test\n" {
		t.Errorf("Unexpected output %q", out)
	}
}
