//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-file-organizer/internal/app"
	"go-file-organizer/internal/config"
	"go-file-organizer/internal/handler"
	"go-file-organizer/internal/middleware"
	"go-file-organizer/internal/model"
	"go-file-organizer/internal/router"
	"go-file-organizer/internal/websocket"
)

const testSecret = "integration-secret-0123456789abcdef"

type testEnv struct {
	root     string
	server   *httptest.Server
	services *app.Services
	token    string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{
		ServerPort:             "8080",
		ServerReadTimeout:      15 * time.Second,
		ServerWriteTimeout:     30 * time.Second,
		ServerIdleTimeout:      120 * time.Second,
		RequestTimeout:         30 * time.Second,
		LogLevel:               "error",
		AllowedRoots:           []string{root},
		BackupDir:              filepath.Join(t.TempDir(), "backups"),
		ClassifierExcerptBytes: 64 << 10,
		WatchSettleDelay:       50 * time.Millisecond,
		AuditLogFile:           filepath.Join(t.TempDir(), "audit.log"),
		AuthSecret:             testSecret,
		AuthTokenTTL:           time.Hour,
		CORSOrigins:            []string{"*"},
		RateLimitRPM:           1000,
		MetricsEnabled:         true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	services, err := app.NewServices(ctx, cfg)
	require.NoError(t, err)

	hub := websocket.NewHub(services.Bus)
	go hub.Run(ctx)

	authMiddleware := middleware.NewAuthMiddleware(services.Auth)
	server := httptest.NewServer(router.New(cfg, authMiddleware, services.Metrics, router.Handlers{
		Auth:     handler.NewAuthHandler(services.Auth),
		Backup:   handler.NewBackupHandler(services.Flatten, services.Undo),
		Classify: handler.NewClassifyHandler(services.Organize),
		Organize: handler.NewOrganizeHandler(services.Organize),
		Watch:    handler.NewWatchHandler(services.Watch),
		Audit:    handler.NewAuditHandler(services.Audit),
		Docs:     handler.NewDocsHandler(),
		Events:   websocket.Handler(hub, cfg.CORSOrigins),
		Health:   services.Health,
	}))

	t.Cleanup(func() {
		server.Close()
		services.Close()
		cancel()
	})

	token, err := services.Auth.IssueToken("integration")
	require.NoError(t, err)

	return &testEnv{root: root, server: server, services: services, token: token.AccessToken}
}

func (e *testEnv) do(t *testing.T, method string, path string, body any) (int, envelope) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func decodeData[T any](t *testing.T, body envelope) T {
	t.Helper()

	var value T
	require.NoError(t, json.Unmarshal(body.Data, &value))
	return value
}

func seed(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// contents maps every regular file below root, by slash-separated relative
// path, to its content.
func contents(t *testing.T, root string) map[string]string {
	t.Helper()

	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(raw)
		return nil
	})
	require.NoError(t, err)
	return out
}
