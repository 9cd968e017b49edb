package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/reintest/internal/watcher"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "math.spec.ts")
	writeFile(t, path, "test('a', () => {});")

	w, err := watcher.New(watcher.Config{
		Paths:       []string{path},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		writeFile(t, path, fmt.Sprintf("test('a%d', () => {});", i))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case got := <-onChange:
		assert.Equal(t, path, got)
	case <-time.After(300 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "math.spec.ts")
	writeFile(t, path, "")

	w, err := watcher.New(watcher.Config{Paths: []string{path}, DebounceDur: 30 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "other.ts"), "x")
	writeFile(t, filepath.Join(dir, "math.spec.ts.swp"), "x")

	select {
	case got := <-onChange:
		t.Fatalf("unexpected notification for %s", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.spec.ts")
	b := filepath.Join(dir, "b.spec.ts")
	writeFile(t, a, "")
	writeFile(t, b, "")

	w, err := watcher.New(watcher.Config{Paths: []string{a, b}, DebounceDur: 30 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	writeFile(t, b, "1")
	writeFile(t, a, "1")

	var got []string
	for len(got) < 2 {
		select {
		case p := <-onChange:
			got = append(got, p)
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timed out, got %v", got)
		}
	}
	require.Equal(t, []string{a, b}, got, "paths arrive sorted")
}

func TestWatcher_RenameIntoPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "math.spec.ts")
	writeFile(t, path, "old")

	w, err := watcher.New(watcher.Config{Paths: []string{path}, DebounceDur: 30 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	tmp := filepath.Join(dir, ".math.spec.ts.tmp")
	writeFile(t, tmp, "new")
	require.NoError(t, os.Rename(tmp, path))

	select {
	case got := <-onChange:
		assert.Equal(t, path, got)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification after rename")
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	writeFile(t, path, "")

	w, err := watcher.New(watcher.DefaultConfig(path))
	require.NoError(t, err)

	_, err = w.Start()
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "stop is idempotent")
}

func TestNew_RequiresPaths(t *testing.T) {
	_, err := watcher.New(watcher.Config{})
	require.EqualError(t, err, "no paths to watch")
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("a.ts", "b.ts")

	require.Equal(t, []string{"a.ts", "b.ts"}, cfg.Paths)
	require.Equal(t, 150*time.Millisecond, cfg.DebounceDur)
}
