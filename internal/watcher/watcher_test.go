package watcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, path string, onChange func(string)) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	w := New(path, onChange,
		WithDebounce(50*time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// give fsnotify time to register the directory
	time.Sleep(100 * time.Millisecond)
	return cancel, done
}

func TestWatchDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a\n"), 0o644))

	var calls atomic.Int32
	changed := make(chan string, 4)
	cancel, done := startWatcher(t, path, func(p string) {
		calls.Add(1)
		changed <- p
	})
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("name: b\n"), 0o644))
	}

	select {
	case p := <-changed:
		assert.Equal(t, path, p)
	case <-time.After(2 * time.Second):
		t.Fatal("onChange was not called")
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "burst of writes should fire once")

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a\n"), 0o644))

	var calls atomic.Int32
	cancel, _ := startWatcher(t, path, func(string) { calls.Add(1) })
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestWatchMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "seed.yaml"), func(string) {})
	assert.Error(t, w.Watch(context.Background()))
}
