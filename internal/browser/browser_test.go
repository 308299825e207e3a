package browser

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubBrowser(t *testing.T, libErr error) *[]string {
	t.Helper()
	var launched []string

	origLib, origLaunch, origLook, origOS := libraryOpener, commandLauncher, lookPath, goos
	t.Cleanup(func() {
		libraryOpener, commandLauncher, lookPath, goos = origLib, origLaunch, origLook, origOS
	})

	libraryOpener = func(url string) error {
		if libErr == nil {
			launched = append(launched, "open-golang "+url)
		}
		return libErr
	}
	commandLauncher = func(cmd *exec.Cmd) error {
		launched = append(launched, cmd.Args[0]+" "+cmd.Args[len(cmd.Args)-1])
		return nil
	}
	lookPath = func(file string) (string, error) {
		if file == "xdg-open" {
			return "/usr/bin/xdg-open", nil
		}
		return "", exec.ErrNotFound
	}
	return &launched
}

func TestOpenURL_UsesLibrary(t *testing.T) {
	launched := stubBrowser(t, nil)

	require.NoError(t, OpenURL("https://example.com/authorize"))
	assert.Equal(t, []string{"open-golang https://example.com/authorize"}, *launched)
}

func TestOpenURL_FallsBackPerPlatform(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open https://example.com"},
		{"windows", "rundll32 https://example.com"},
		{"linux", "xdg-open https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			launched := stubBrowser(t, errors.New("no opener"))
			goos = tt.goos

			require.NoError(t, OpenURL("https://example.com"))
			assert.Equal(t, []string{tt.want}, *launched)
		})
	}
}

func TestOpenURL_UnsupportedPlatform(t *testing.T) {
	stubBrowser(t, errors.New("no opener"))
	goos = "plan9"

	err := OpenURL("https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported platform")
}

func TestOpenURL_NoLinuxBrowser(t *testing.T) {
	stubBrowser(t, errors.New("no opener"))
	goos = "linux"
	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	assert.Error(t, OpenURL("https://example.com"))
}

func TestSystemBrowser_Open(t *testing.T) {
	launched := stubBrowser(t, nil)

	redirect, err := SystemBrowser{}.Open(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Empty(t, redirect)
	assert.Len(t, *launched, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SystemBrowser{}.Open(ctx, "https://example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenerFunc(t *testing.T) {
	var o Opener = OpenerFunc(func(ctx context.Context, authURL string) (string, error) {
		return "readest://auth-callback#access_token=abc", nil
	})

	redirect, err := o.Open(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "readest://auth-callback#access_token=abc", redirect)
}
