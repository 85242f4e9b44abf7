//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-file-organizer/internal/event"
	"go-file-organizer/internal/model"
)

func TestWatchOrganizesArrivalsAndStreamsEvents(t *testing.T) {
	env := newTestEnv(t)
	inbox := filepath.Join(env.root, "inbox")
	sorted := filepath.Join(env.root, "sorted")
	require.NoError(t, os.MkdirAll(inbox, 0o755))

	header := http.Header{"Authorization": []string{"Bearer " + env.token}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(env.server.URL, "http")+"/ws", header)
	require.NoError(t, err)
	defer conn.Close()

	events := make(chan event.Event, 32)
	go func() {
		for {
			_, message, readErr := conn.ReadMessage()
			if readErr != nil {
				close(events)
				return
			}
			var e event.Event
			if json.Unmarshal(message, &e) == nil {
				events <- e
			}
		}
	}()

	status, body := env.do(t, http.MethodPost, "/api/v1/watch", model.WatchRequest{
		WatchDirectory:        inbox,
		OrganizationDirectory: sorted,
	})
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.True(t, decodeData[model.WatchStatus](t, body).Running)

	staging := filepath.Join(env.root, "staging.csv")
	require.NoError(t, os.WriteFile(staging, []byte("a,b\n1,2\n"), 0o644))
	require.NoError(t, os.Rename(staging, filepath.Join(inbox, "numbers.csv")))

	require.Eventually(t, func() bool {
		status, body := env.do(t, http.MethodGet, "/api/v1/watch", nil)
		return status == http.StatusOK && decodeData[model.WatchStatus](t, body).FilesProcessed == 1
	}, 5*time.Second, 50*time.Millisecond)
	assert.NoFileExists(t, filepath.Join(inbox, "numbers.csv"))

	seen := map[event.Type]bool{}
	timeout := time.After(5 * time.Second)
	for !seen[event.TypeFileOrganized] {
		select {
		case e, ok := <-events:
			require.True(t, ok, "websocket closed early")
			seen[e.Type] = true
		case <-timeout:
			t.Fatalf("file.organized not streamed; saw %v", seen)
		}
	}

	status, body = env.do(t, http.MethodDelete, "/api/v1/watch", nil)
	require.Equal(t, http.StatusOK, status)
	stopped := decodeData[model.WatchStatus](t, body)
	assert.False(t, stopped.Running)
	assert.Equal(t, 1, stopped.FilesProcessed)

	status, body = env.do(t, http.MethodDelete, "/api/v1/watch", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "WATCH_NOT_RUNNING", body.Error.Code)
}

func TestWatchRejectsWatchDirectoryInsideOrganizationDirectory(t *testing.T) {
	env := newTestEnv(t)
	sorted := filepath.Join(env.root, "sorted")

	status, body := env.do(t, http.MethodPost, "/api/v1/watch", model.WatchRequest{
		WatchDirectory:        filepath.Join(sorted, "inbox"),
		OrganizationDirectory: sorted,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.Success)

	status, body = env.do(t, http.MethodGet, "/api/v1/watch", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decodeData[model.WatchStatus](t, body).Running)
}
