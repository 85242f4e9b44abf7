package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-file-organizer/internal/model"
	"go-file-organizer/internal/repository"
	"go-file-organizer/internal/storage"
)

func TestUndoService_Undo(t *testing.T) {
	t.Run("restores the tree a flatten collapsed", func(t *testing.T) {
		f := newFixture(t)
		writeFile(t, filepath.Join(f.root, "a.txt"), "root")
		writeFile(t, filepath.Join(f.root, "x", "a.txt"), "x")
		writeFile(t, filepath.Join(f.root, "x", "y", "b.txt"), "b")
		writeFile(t, filepath.Join(f.root, "z", "c.txt"), "c")
		require.NoError(t, os.MkdirAll(filepath.Join(f.root, "empty", "deeper"), 0o755))
		beforeFiles, beforeDirs := snapshot(t, f.root)

		flattened, err := f.flatten.Flatten(context.Background(), f.root, ActorCLI)
		require.NoError(t, err)

		result, err := f.undo.Undo(context.Background(), flattened.OperationID, ActorCLI)
		require.NoError(t, err)
		assert.Equal(t, flattened.TotalFiles, result.TotalRestored)
		assert.Empty(t, result.Skipped)

		afterFiles, afterDirs := snapshot(t, f.root)
		assert.Equal(t, beforeFiles, afterFiles)
		assert.Equal(t, beforeDirs, afterDirs)
		assert.False(t, f.backups.Exists(flattened.OperationID))
	})

	t.Run("tolerates files removed after the flatten", func(t *testing.T) {
		f := newFixture(t)
		writeFile(t, filepath.Join(f.root, "x", "keep.txt"), "keep")
		writeFile(t, filepath.Join(f.root, "x", "gone.txt"), "gone")

		flattened, err := f.flatten.Flatten(context.Background(), f.root, ActorCLI)
		require.NoError(t, err)
		require.NoError(t, os.Remove(filepath.Join(f.root, "gone.txt")))

		result, err := f.undo.Undo(context.Background(), flattened.OperationID, ActorCLI)
		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalRestored)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, filepath.Join(f.root, "gone.txt"), result.Skipped[0].Path)
		assert.Equal(t, "no longer exists", result.Skipped[0].Reason)
		assert.FileExists(t, filepath.Join(f.root, "x", "keep.txt"))
		assert.False(t, f.backups.Exists(flattened.OperationID))
	})

	t.Run("does not overwrite an occupied original path", func(t *testing.T) {
		f := newFixture(t)
		writeFile(t, filepath.Join(f.root, "x", "a.txt"), "original")

		flattened, err := f.flatten.Flatten(context.Background(), f.root, ActorCLI)
		require.NoError(t, err)
		writeFile(t, filepath.Join(f.root, "x", "a.txt"), "newcomer")

		result, err := f.undo.Undo(context.Background(), flattened.OperationID, ActorCLI)
		require.NoError(t, err)
		assert.Zero(t, result.TotalRestored)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, "original path is occupied", result.Skipped[0].Reason)

		files, _ := snapshot(t, f.root)
		assert.Equal(t, map[string]string{"a.txt": "original", "x/a.txt": "newcomer"}, files)
	})

	t.Run("second undo of the same id is not found", func(t *testing.T) {
		f := newFixture(t)
		writeFile(t, filepath.Join(f.root, "x", "a.txt"), "a")

		flattened, err := f.flatten.Flatten(context.Background(), f.root, ActorCLI)
		require.NoError(t, err)
		_, err = f.undo.Undo(context.Background(), flattened.OperationID, ActorCLI)
		require.NoError(t, err)

		_, err = f.undo.Undo(context.Background(), flattened.OperationID, ActorCLI)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrOperationNotFound))
	})

	t.Run("unknown id touches nothing", func(t *testing.T) {
		mockStore := new(storage.MockStorage)
		backups, err := repository.NewBackupRepository(t.TempDir(), nil)
		require.NoError(t, err)
		svc := NewUndoService(mockStore, backups, nil, nil, nil)

		_, err = svc.Undo(context.Background(), "2020-01-01T00:00:00.000000Z", ActorCLI)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Operation not found")

		mockStore.AssertNotCalled(t, "Move", mock.Anything, mock.Anything)
		mockStore.AssertNotCalled(t, "MkdirAll", mock.Anything, mock.Anything)
	})
}

func TestUndoService_History(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.root, "x", "a.txt"), "a")

	flattened, err := f.flatten.Flatten(context.Background(), f.root, ActorCLI)
	require.NoError(t, err)

	history := f.undo.History()
	require.Len(t, history, 1)
	assert.Equal(t, flattened.OperationID, history[0].OperationID)
	assert.Equal(t, 1, history[0].MovedCount)
	assert.Equal(t, 1, history[0].RemovedDirs)

	record, err := f.undo.Record(flattened.OperationID)
	require.NoError(t, err)
	assert.Equal(t, f.root, record.SourceDir)
}
