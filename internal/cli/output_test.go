package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	KeyValueTable(&buf, [][2]string{
		{"Backend", "https://abc.supabase.co"},
		{"User", "reader@example.com"},
	})

	out := buf.String()
	for _, want := range []string{"KEY", "VALUE", "https://abc.supabase.co", "reader@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected table to contain %q, got:\n%s", want, out)
		}
	}
}

func TestStatusText(t *testing.T) {
	if !strings.Contains(StatusText(true, "Signed in", "Signed out"), "Signed in") {
		t.Error("expected yes text")
	}
	if !strings.Contains(StatusText(false, "Signed in", "Signed out"), "Signed out") {
		t.Error("expected no text")
	}
}

func TestQuietSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := StartSpinner(&buf, true, "Waiting...")
	s.Stop("done")

	if buf.Len() != 0 {
		t.Errorf("expected quiet spinner to print nothing, got %q", buf.String())
	}
}

func TestSuccessFailure(t *testing.T) {
	if !strings.Contains(Success("signed in as %s", "u1"), "signed in as u1") {
		t.Error("expected formatted success message")
	}
	if !strings.Contains(Failure("failed: %d", 3), "failed: 3") {
		t.Error("expected formatted failure message")
	}
}
