//go:build linux || darwin

package service

import (
	"context"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-file-organizer/internal/model"
)

func TestOrganizeService_RejectsNamedPipe(t *testing.T) {
	f := newFixture(t)
	pipe := filepath.Join(f.root, "pipe.txt")
	require.NoError(t, syscall.Mkfifo(pipe, 0o644))
	dest := filepath.Join(f.root, "sorted")

	done := make(chan model.OrganizeResult, 1)
	go func() {
		done <- f.organize.Organize(context.Background(), []string{pipe}, dest, ActorCLI)
	}()

	select {
	case result := <-done:
		assert.Empty(t, result.Organized)
		assert.Equal(t, []string{"Not a file: " + pipe}, result.Errors)
	case <-time.After(2 * time.Second):
		t.Fatal("organize blocked on a named pipe")
	}

	_, err := f.organize.Analyze(context.Background(), pipe)
	require.ErrorIs(t, err, model.ErrNotFile)
}
