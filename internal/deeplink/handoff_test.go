package deeplink

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	urls []string
}

func (r *recorder) add(urls []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, urls...)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

func TestHandoff_SendAndWatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "handoff")
	h := NewHandoff(dir)
	d := NewDispatcher()
	rec := &recorder{}
	d.OnOpenURL(rec.add)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Watch(ctx, d))

	require.NoError(t, h.Send(RelaunchEvent{
		Args: []string{"readauth", "readest://auth-callback#access_token=abc"},
		Cwd:  "/home/reader",
	}))

	assert.Eventually(t, func() bool { return len(rec.get()) == 1 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"readest://auth-callback#access_token=abc"}, rec.get())

	assert.Eventually(t, func() bool {
		entries, err := os.ReadDir(dir)
		return err == nil && len(entries) == 0
	}, 5*time.Second, 20*time.Millisecond, "event files are consumed")
}

func TestHandoff_DeliversPendingOnStart(t *testing.T) {
	dir := t.TempDir()
	h := NewHandoff(dir)
	require.NoError(t, h.Send(RelaunchEvent{Args: []string{"readauth", "readest://early"}}))

	d := NewDispatcher()
	rec := &recorder{}
	d.OnOpenURL(rec.add)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Watch(ctx, d))

	assert.Equal(t, []string{"readest://early"}, rec.get())
}

func TestHandoff_DiscardsMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0600))

	h := NewHandoff(dir)
	d := NewDispatcher()
	rec := &recorder{}
	d.OnOpenURL(rec.add)

	h.drain(d)

	assert.Empty(t, rec.get())
	_, err := os.Stat(filepath.Join(dir, "bad.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "ignored.txt"))
	assert.NoError(t, err)
}

func TestHandoff_Poll(t *testing.T) {
	dir := t.TempDir()
	h := NewHandoff(dir)
	h.pollInterval = 10 * time.Millisecond

	d := NewDispatcher()
	rec := &recorder{}
	d.OnOpenURL(rec.add)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.poll(ctx, d)

	require.NoError(t, h.Send(RelaunchEvent{Args: []string{"readauth", "readest://polled"}}))
	assert.Eventually(t, func() bool { return len(rec.get()) == 1 }, 5*time.Second, 10*time.Millisecond)
}
