package serve

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresOnContentChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.md"), []byte("v1"), 0o644))

	var fired atomic.Int32
	w, err := NewWatcher(dir, "", 50*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.md"), []byte("v2"), 0o644))

	waitFor(t, 3*time.Second, func() bool { return fired.Load() >= 1 })
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	var fired atomic.Int32
	w, err := NewWatcher(dir, "", 150*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "burst.md"), []byte{byte(i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, 3*time.Second, func() bool { return fired.Load() >= 1 })
	// Settle past the debounce window; the burst must have collapsed.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()

	var fired atomic.Int32
	w, err := NewWatcher(dir, "", 50*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	sub := filepath.Join(dir, "language")
	require.NoError(t, os.Mkdir(sub, 0o750))
	waitFor(t, 3*time.Second, func() bool { return fired.Load() >= 1 })

	before := fired.Load()
	// Give fsnotify a moment to register the new directory watch.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "values.md"), []byte("x"), 0o644))
	waitFor(t, 3*time.Second, func() bool { return fired.Load() > before })
}

func TestWatcher_IgnoresHiddenFiles(t *testing.T) {
	dir := t.TempDir()

	var fired atomic.Int32
	w, err := NewWatcher(dir, "", 50*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".swapfile"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestWatcher_ConfigFileChange(t *testing.T) {
	contentDir := t.TempDir()
	cfgDir := t.TempDir()
	cfgPath := filepath.Join(cfgDir, "site.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("title: Ard\n"), 0o644))

	var fired atomic.Int32
	w, err := NewWatcher(contentDir, cfgPath, 50*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	// Unrelated files next to the config are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	require.NoError(t, os.WriteFile(cfgPath, []byte("title: Ard Lang\n"), 0o644))
	waitFor(t, 3*time.Second, func() bool { return fired.Load() >= 1 })
}
