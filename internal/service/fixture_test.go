package service

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"go-file-organizer/internal/classifier"
	"go-file-organizer/internal/event"
	"go-file-organizer/internal/metrics"
	"go-file-organizer/internal/repository"
	"go-file-organizer/internal/storage"
)

type fixture struct {
	root     string
	store    *storage.Storage
	backups  *repository.BackupRepository
	bus      *event.InMemoryBus
	metrics  *metrics.Metrics
	flatten  *FlattenService
	undo     *UndoService
	organize *OrganizeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	store, err := storage.New([]string{root})
	require.NoError(t, err)

	backups, err := repository.NewBackupRepository(t.TempDir(), nil)
	require.NoError(t, err)

	bus := event.NewBus()
	m := metrics.New(nil)
	engine := classifier.New(classifier.DefaultRules())

	return &fixture{
		root:     root,
		store:    store,
		backups:  backups,
		bus:      bus,
		metrics:  m,
		flatten:  NewFlattenService(store, backups, nil, bus, m),
		undo:     NewUndoService(store, backups, nil, bus, m),
		organize: NewOrganizeService(store, engine, "", nil, bus, m),
	}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// snapshot maps every regular file below root (relative, slash separated)
// to its content, and lists every directory.
func snapshot(t *testing.T, root string) (map[string]string, []string) {
	t.Helper()

	files := map[string]string{}
	dirs := []string{}
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		require.NoError(t, err)
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		require.NoError(t, relErr)
		rel = filepath.ToSlash(rel)
		if entry.IsDir() {
			dirs = append(dirs, rel)
			return nil
		}
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		files[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(dirs)
	return files, dirs
}

// failingMoves fails Move for the listed source paths.
type failingMoves struct {
	storage.FileSystem
	fail map[string]error
}

func (f failingMoves) Move(source string, destination string) error {
	if err, ok := f.fail[source]; ok {
		return err
	}
	return f.FileSystem.Move(source, destination)
}

// blindExists never reports an id as taken, as when another process claims
// it between the check and the write.
type blindExists struct {
	*repository.BackupRepository
}

func (blindExists) Exists(string) bool { return false }
