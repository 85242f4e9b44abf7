package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
		return Event{}
	}
}

func TestWatcherReportsCreatedFilesAndDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w, err := New(root, WithLogger(quietLogger()))
	require.NoError(t, err)
	defer w.Close()

	filePath := filepath.Join(root, "new.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))

	ev := nextEvent(t, w)
	assert.Equal(t, Event{Kind: Created, Path: filePath, IsDir: false}, ev)

	dirPath := filepath.Join(root, "incoming")
	require.NoError(t, os.Mkdir(dirPath, 0o755))

	ev = nextEvent(t, w)
	assert.Equal(t, Event{Kind: Created, Path: dirPath, IsDir: true}, ev)
}

func TestWatcherIgnoresExcludedTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	organized := filepath.Join(root, "organized")
	require.NoError(t, os.Mkdir(organized, 0o755))

	w, err := New(root, WithExclude(organized), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(organized, "filed.txt"), []byte("x"), 0o644))
	marker := filepath.Join(root, "marker.txt")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o644))

	ev := nextEvent(t, w)
	assert.Equal(t, marker, ev.Path)
}

func TestConvertIgnoresNonCreateOps(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := &Watcher{root: root, logger: quietLogger()}

	path := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, keep := w.convert(fsnotify.Event{Name: path, Op: fsnotify.Write})
	assert.False(t, keep)

	_, keep = w.convert(fsnotify.Event{Name: filepath.Join(root, "vanished"), Op: fsnotify.Create})
	assert.False(t, keep)

	ev, keep := w.convert(fsnotify.Event{Name: path, Op: fsnotify.Create})
	require.True(t, keep)
	assert.Equal(t, Created, ev.Kind)
}

func TestCloseIsIdempotentAndClosesEvents(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir(), WithLogger(quietLogger()))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestNewFailsForMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := New(filepath.Join(t.TempDir(), "missing"), WithLogger(quietLogger()))
	require.Error(t, err)
}
