package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAuthRequiredError(t *testing.T) {
	err := &AuthRequiredError{Backend: "https://abc.supabase.co"}
	msg := err.Error()

	if !strings.Contains(msg, "https://abc.supabase.co") {
		t.Error("expected error message to contain backend")
	}
	if !strings.Contains(msg, "readauth auth login") {
		t.Error("expected error message to contain login command")
	}

	wrapped := fmt.Errorf("status: %w", err)
	if !errors.Is(wrapped, &AuthRequiredError{}) {
		t.Error("expected errors.Is to match wrapped AuthRequiredError")
	}
	if errors.Is(wrapped, &AuthExpiredError{}) {
		t.Error("expected errors.Is not to match a different type")
	}
}

func TestAuthExpiredError(t *testing.T) {
	err := &AuthExpiredError{Backend: "https://abc.supabase.co"}
	if !strings.Contains(err.Error(), "expired") {
		t.Error("expected error message to mention expiry")
	}

	var target *AuthExpiredError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &target) {
		t.Fatal("expected errors.As to find AuthExpiredError")
	}
	if target.Backend != "https://abc.supabase.co" {
		t.Errorf("expected backend to be preserved, got %s", target.Backend)
	}
}

func TestAuthFailedError(t *testing.T) {
	t.Run("error message includes backend and reason", func(t *testing.T) {
		err := &AuthFailedError{Backend: "https://abc.supabase.co", Reason: errors.New("invalid JWT")}
		msg := err.Error()

		if !strings.Contains(msg, "https://abc.supabase.co") {
			t.Error("expected error message to contain backend")
		}
		if !strings.Contains(msg, "invalid JWT") {
			t.Error("expected error message to contain reason")
		}
	})

	t.Run("Unwrap returns underlying error", func(t *testing.T) {
		reason := errors.New("timeout")
		err := &AuthFailedError{Reason: reason}
		if !errors.Is(err, reason) {
			t.Error("expected errors.Is to reach the reason")
		}
		if errors.Unwrap(err) != reason {
			t.Error("expected errors.Unwrap to return the reason")
		}
	})

	t.Run("Is matches any AuthFailedError", func(t *testing.T) {
		err := &AuthFailedError{Backend: "a", Reason: errors.New("x")}
		if !errors.Is(err, &AuthFailedError{Backend: "b"}) {
			t.Error("expected Is to match same type")
		}
	})
}
