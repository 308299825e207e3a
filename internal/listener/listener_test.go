package listener

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startListener(t *testing.T, l *Listener) (int, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	port, err := l.Start(ctx)
	require.NoError(t, err)
	require.NotZero(t, port)
	t.Cleanup(func() {
		cancel()
		_ = l.Close()
	})
	return port, cancel
}

func forward(t *testing.T, port int, redirected string) *http.Response {
	t.Helper()
	target := fmt.Sprintf("http://127.0.0.1:%d%s?url=%s", port, CallbackPath, url.QueryEscape(redirected))
	resp, err := http.Get(target)
	require.NoError(t, err)
	return resp
}

func TestListener_ServesForwardPage(t *testing.T) {
	l := New(Config{})
	port, _ := startListener(t, l)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/", port))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "window.location.replace")
	assert.Contains(t, string(body), "callback")
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestListener_DeliversValidURL(t *testing.T) {
	l := New(Config{})
	port, _ := startListener(t, l)

	received := make(chan string, 1)
	l.OnURL(func(u string) { received <- u })
	l.OnInvalidURL(func(u string) { t.Errorf("unexpected invalid URL %q", u) })

	redirected := fmt.Sprintf("http://localhost:%d/#access_token=abc&next=/library", port)
	resp := forward(t, port, redirected)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case got := <-received:
		assert.Equal(t, redirected, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for redirect")
	}
}

func TestListener_RejectsInvalidURL(t *testing.T) {
	l := New(Config{})
	port, _ := startListener(t, l)

	invalid := make(chan string, 4)
	l.OnURL(func(u string) { t.Errorf("unexpected valid URL %q", u) })
	l.OnInvalidURL(func(u string) { invalid <- u })

	for _, raw := range []string{
		"",
		"https://evil.example.com/#access_token=abc",
		fmt.Sprintf("http://localhost:%d/#access_token=abc", port+1),
		"readest://auth-callback#access_token=abc",
	} {
		resp := forward(t, port, raw)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	assert.Len(t, invalid, 4)
}

func TestListener_Unsubscribe(t *testing.T) {
	l := New(Config{})
	port, _ := startListener(t, l)

	var calls atomic.Int32
	unsubscribe := l.OnURL(func(string) { calls.Add(1) })
	unsubscribe()

	resp := forward(t, port, fmt.Sprintf("http://127.0.0.1:%d/#access_token=abc", port))
	resp.Body.Close()
	assert.Equal(t, int32(0), calls.Load())
}

func TestListener_CancelIsIdempotent(t *testing.T) {
	l := New(Config{})
	port, _ := startListener(t, l)

	assert.Equal(t, []int{port}, l.Ports())
	assert.NoError(t, l.Cancel(port))
	assert.NoError(t, l.Cancel(port))
	assert.NoError(t, l.Cancel(12345))
	assert.Empty(t, l.Ports())

	_, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	assert.Error(t, err, "port should be released")
}

func TestListener_StopsOnContextCancel(t *testing.T) {
	l := New(Config{})
	_, cancel := startListener(t, l)

	cancel()
	assert.Eventually(t, func() bool { return len(l.Ports()) == 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestListener_FallsBackToNextPort(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	busyPort := busy.Addr().(*net.TCPAddr).Port

	l := New(Config{Ports: []int{busyPort, 0}})
	port, _ := startListener(t, l)
	assert.NotEqual(t, busyPort, port)
}

func TestListener_AllPortsBusy(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	l := New(Config{Ports: []int{busy.Addr().(*net.TCPAddr).Port}})
	_, err = l.Start(context.Background())
	assert.Error(t, err)
}

func TestIsRedirectTo(t *testing.T) {
	assert.True(t, isRedirectTo("http://localhost:5000/#access_token=x", 5000))
	assert.True(t, isRedirectTo("http://127.0.0.1:5000", 5000))
	assert.False(t, isRedirectTo("http://localhost:5001", 5000))
	assert.False(t, isRedirectTo("https://localhost:5000", 5000))
	assert.False(t, isRedirectTo("%zz", 5000))
}
