package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-file-organizer/internal/model"
)

func newWatchService(f *fixture) *WatchService {
	return NewWatchService(f.store, f.flatten, f.organize, f.bus, f.metrics, 0)
}

func TestWatchService_SetupOrganizesExistingFiles(t *testing.T) {
	f := newFixture(t)
	svc := newWatchService(f)
	t.Cleanup(svc.Close)

	watchDir := filepath.Join(f.root, "downloads")
	orgDir := filepath.Join(watchDir, "organized")
	writeFile(t, filepath.Join(watchDir, "song.mp3"), "a")
	writeFile(t, filepath.Join(watchDir, "album", "cd1", "track.flac"), "b")

	status, err := svc.Setup(context.Background(), watchDir, orgDir)
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, 2, status.FilesProcessed)
	assert.FileExists(t, filepath.Join(orgDir, "audio", "song.mp3"))
	assert.FileExists(t, filepath.Join(orgDir, "audio", "track.flac"))
}

func TestWatchService_FilesNewArrivals(t *testing.T) {
	f := newFixture(t)
	svc := newWatchService(f)
	t.Cleanup(svc.Close)

	watchDir := filepath.Join(f.root, "inbox")
	orgDir := filepath.Join(f.root, "sorted")
	staging := filepath.Join(f.root, "staging")

	_, err := svc.Setup(context.Background(), watchDir, orgDir)
	require.NoError(t, err)

	writeFile(t, filepath.Join(staging, "clip.mp4"), "v")
	require.NoError(t, os.Rename(filepath.Join(staging, "clip.mp4"), filepath.Join(watchDir, "clip.mp4")))

	writeFile(t, filepath.Join(staging, "batch", "nested", "paper.pdf"), "report")
	writeFile(t, filepath.Join(staging, "batch", "cover.jpg"), "i")
	require.NoError(t, os.Rename(filepath.Join(staging, "batch"), filepath.Join(watchDir, "batch")))

	require.Eventually(t, func() bool {
		return svc.Status().FilesProcessed == 3
	}, 5*time.Second, 20*time.Millisecond)

	assert.FileExists(t, filepath.Join(orgDir, "video", "clip.mp4"))
	assert.FileExists(t, filepath.Join(orgDir, "document", "report", "paper.pdf"))
	assert.FileExists(t, filepath.Join(orgDir, "image", "cover.jpg"))
}

func TestWatchService_StopAndStatus(t *testing.T) {
	f := newFixture(t)
	svc := newWatchService(f)

	assert.False(t, svc.Status().Running)
	_, err := svc.Stop()
	assert.True(t, errors.Is(err, model.ErrWatchNotRunning))

	watchDir := filepath.Join(f.root, "in")
	_, err = svc.Setup(context.Background(), watchDir, filepath.Join(f.root, "out"))
	require.NoError(t, err)
	assert.Equal(t, watchDir, svc.Status().WatchDirectory)

	stopped, err := svc.Stop()
	require.NoError(t, err)
	assert.False(t, stopped.Running)
	assert.False(t, svc.Status().Running)
}

func TestWatchService_RejectsOverlappingDirectories(t *testing.T) {
	f := newFixture(t)
	svc := newWatchService(f)

	_, err := svc.Setup(context.Background(), f.root, f.root)
	assert.True(t, errors.Is(err, model.ErrPathConflict))

	_, err = svc.Setup(context.Background(), "", f.root)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}
