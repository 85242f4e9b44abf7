package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"go-file-organizer/internal/config"
	"go-file-organizer/internal/model"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		ServerPort:             "0",
		ServerReadTimeout:      5 * time.Second,
		ServerWriteTimeout:     5 * time.Second,
		ServerIdleTimeout:      5 * time.Second,
		RequestTimeout:         5 * time.Second,
		LogLevel:               "error",
		AllowedRoots:           []string{t.TempDir()},
		BackupDir:              filepath.Join(t.TempDir(), "backups"),
		ClassifierExcerptBytes: 4096,
		WatchSettleDelay:       10 * time.Millisecond,
		AuditLogFile:           filepath.Join(t.TempDir(), "audit.log"),
		AuthTokenTTL:           time.Hour,
		CORSOrigins:            []string{"*"},
		MetricsEnabled:         true,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*App, *httptest.Server) {
	t.Helper()

	application, err := New(context.Background(), cfg)
	require.NoError(t, err)
	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		application.services.Close()
	})
	return application, server
}

func call(t *testing.T, method string, target string, body any, token string) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestFlattenUndoOverHTTP(t *testing.T) {
	cfg := testConfig(t)
	_, server := newTestServer(t, cfg)

	source := filepath.Join(cfg.AllowedRoots[0], "project")
	writeTree(t, source, map[string]string{
		"top.txt":           "top",
		"docs/top.txt":      "nested",
		"docs/deep/x.csv":   "a,b",
		"empty/again/.keep": "",
	})

	status, body := call(t, http.MethodPost, server.URL+"/api/v1/backup/flatten-directory",
		model.FlattenRequest{Directory: source}, "")
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Success)

	var flattened model.FlattenResult
	require.NoError(t, json.Unmarshal(body.Data, &flattened))
	assert.Equal(t, 3, flattened.TotalFiles)
	assert.FileExists(t, filepath.Join(source, "top (1).txt"))
	assert.FileExists(t, filepath.Join(source, "x.csv"))
	assert.NoDirExists(t, filepath.Join(source, "docs"))

	status, body = call(t, http.MethodGet, server.URL+"/api/v1/backup/operations", nil, "")
	require.Equal(t, http.StatusOK, status)
	var history []model.OperationSummary
	require.NoError(t, json.Unmarshal(body.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, flattened.OperationID, history[0].OperationID)

	opURL := server.URL + "/api/v1/backup/operations/" + url.PathEscape(flattened.OperationID)
	status, body = call(t, http.MethodGet, opURL, nil, "")
	require.Equal(t, http.StatusOK, status)
	var record model.OperationRecord
	require.NoError(t, json.Unmarshal(body.Data, &record))
	assert.Len(t, record.MovedItems, 3)

	undoURL := server.URL + "/api/v1/backup/undo/" + url.PathEscape(flattened.OperationID)
	status, body = call(t, http.MethodPost, undoURL, nil, "")
	require.Equal(t, http.StatusOK, status)
	var undone model.UndoResult
	require.NoError(t, json.Unmarshal(body.Data, &undone))
	assert.Equal(t, 3, undone.TotalRestored)

	content, err := os.ReadFile(filepath.Join(source, "docs", "top.txt"))
	require.NoError(t, err)
	assert.Equal(t, "nested", string(content))
	assert.DirExists(t, filepath.Join(source, "empty", "again"))

	status, body = call(t, http.MethodPost, undoURL, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestFlattenErrorsOverHTTP(t *testing.T) {
	cfg := testConfig(t)
	_, server := newTestServer(t, cfg)

	status, body := call(t, http.MethodPost, server.URL+"/api/v1/backup/flatten-directory",
		model.FlattenRequest{Directory: filepath.Join(cfg.AllowedRoots[0], "missing")}, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)

	status, body = call(t, http.MethodPost, server.URL+"/api/v1/backup/flatten-directory",
		model.FlattenRequest{Directory: t.TempDir()}, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "PATH_NOT_ALLOWED", body.Error.Code)

	status, _ = call(t, http.MethodDelete, server.URL+"/api/v1/watch", nil, "")
	assert.Equal(t, http.StatusConflict, status)
}

func TestOrganizeAndClassifyOverHTTP(t *testing.T) {
	cfg := testConfig(t)
	_, server := newTestServer(t, cfg)

	root := cfg.AllowedRoots[0]
	writeTree(t, root, map[string]string{"inbox/report.csv": "a,b\n1,2\n"})
	file := filepath.Join(root, "inbox", "report.csv")

	status, body := call(t, http.MethodGet, server.URL+"/api/v1/classify?path="+url.QueryEscape(file), nil, "")
	require.Equal(t, http.StatusOK, status)
	var classified model.ClassifyResult
	require.NoError(t, json.Unmarshal(body.Data, &classified))
	assert.NotEmpty(t, classified.Category)

	dest := filepath.Join(root, "sorted")
	status, body = call(t, http.MethodPost, server.URL+"/api/v1/organize",
		model.OrganizeRequest{Files: []string{file, filepath.Join(root, "nope.txt")}, Destination: dest}, "")
	require.Equal(t, http.StatusOK, status)

	var organized model.OrganizeResult
	require.NoError(t, json.Unmarshal(body.Data, &organized))
	require.Len(t, organized.Organized, 1)
	assert.True(t, strings.HasPrefix(organized.Organized[0].NewPath, dest+string(filepath.Separator)))
	assert.FileExists(t, organized.Organized[0].NewPath)
	require.Len(t, organized.Errors, 1)
	assert.Contains(t, organized.Errors[0], "File not found")
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthSecret = "0123456789abcdef0123456789abcdef"
	application, server := newTestServer(t, cfg)

	status, body := call(t, http.MethodGet, server.URL+"/api/v1/backup/operations", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, body.Success)

	token, err := application.services.Auth.IssueToken("tester")
	require.NoError(t, err)

	status, _ = call(t, http.MethodGet, server.URL+"/api/v1/backup/operations", nil, token.AccessToken)
	assert.Equal(t, http.StatusOK, status)

	status, body = call(t, http.MethodGet, server.URL+"/api/v1/auth/me", nil, token.AccessToken)
	require.Equal(t, http.StatusOK, status)
	var claims model.AuthClaims
	require.NoError(t, json.Unmarshal(body.Data, &claims))
	assert.Equal(t, "tester", claims.Subject)
}

func TestHealthAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	_, server := newTestServer(t, cfg)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEveryAPIRouteIsDocumented(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthSecret = "0123456789abcdef0123456789abcdef"
	application, _ := newTestServer(t, cfg)

	raw, err := os.ReadFile(filepath.Join("..", "handler", "openapi.yaml"))
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &doc))

	routes, ok := application.Handler().(chi.Routes)
	require.True(t, ok)

	err = chi.Walk(routes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.TrimSuffix(route, "/")
		if !strings.HasPrefix(route, "/api/") && route != "/health" {
			return nil
		}
		operations, found := doc.Paths[route]
		if assert.Truef(t, found, "route %s missing from openapi.yaml", route) {
			assert.Containsf(t, operations, strings.ToLower(method), "%s %s missing from openapi.yaml", method, route)
		}
		return nil
	})
	require.NoError(t, err)
}
