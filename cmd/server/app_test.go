package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/gallery-api/internal/config"
	"github.com/phrazzld/gallery-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "thisisasecretkeythatis32charslong!!"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, LogLevel: "debug", LogFormat: "json"},
		Store:    config.StoreConfig{Backend: config.StoreBackendDocument},
		Database: config.DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5},
		KV:       config.KVConfig{Backend: config.KVBackendMemory},
		Blob:     config.BlobConfig{Backend: config.BlobBackendLocal, Dir: t.TempDir(), SourceDir: t.TempDir()},
		Auth:     config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60},
	}
}

func newTestApplication(t *testing.T, cfg *config.Config) *application {
	t.Helper()
	l, _ := logger.NewTestLogger(t)
	app, err := newApplication(context.Background(), cfg, l)
	require.NoError(t, err)
	return app
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApplication(t, testConfig(t))
	t.Cleanup(app.cleanup)

	w := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestAPIRequiresToken(t *testing.T) {
	app := newTestApplication(t, testConfig(t))
	t.Cleanup(app.cleanup)

	w := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/items", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPhotoLifecycle drives the wired application: the picked file is copied
// into the blob directory and removed again when the item is purged.
func TestPhotoLifecycle(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApplication(t, cfg)
	t.Cleanup(app.cleanup)
	router := app.setupRouter()

	token, err := app.jwtService.GenerateToken(context.Background(), "alice")
	require.NoError(t, err)

	source := filepath.Join(cfg.Blob.SourceDir, "picked.jpg")
	require.NoError(t, os.WriteFile(source, []byte("jpeg bytes"), 0o600))

	call := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := call(http.MethodPost, "/api/items", map[string]string{"source_uri": "file://" + filepath.ToSlash(source)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var item struct {
		ID  string `json:"id"`
		URI string `json:"uri"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	require.True(t, strings.HasPrefix(item.URI, "file://"), item.URI)

	stored := filepath.Join(cfg.Blob.Dir, "alice", item.ID+".jpg")
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	require.Equal(t, http.StatusNoContent, call(http.MethodPost, "/api/items/"+item.ID+"/delete", nil).Code)
	_, err = os.Stat(stored)
	assert.NoError(t, err, "trashed items keep their image")

	require.Equal(t, http.StatusOK, call(http.MethodDelete, "/api/items/deleted", nil).Code)
	_, err = os.Stat(stored)
	assert.ErrorIs(t, err, os.ErrNotExist, "purged items lose their image")
}

// TestAddPhoto_RejectsSourceOutsideStagingDir checks that only files under
// blob.source_dir can be ingested.
func TestAddPhoto_RejectsSourceOutsideStagingDir(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApplication(t, cfg)
	t.Cleanup(app.cleanup)
	router := app.setupRouter()

	token, err := app.jwtService.GenerateToken(context.Background(), "alice")
	require.NoError(t, err)

	outside := filepath.Join(t.TempDir(), "picked.jpg")
	require.NoError(t, os.WriteFile(outside, []byte("jpeg bytes"), 0o600))

	for _, uri := range []string{"/etc/passwd", "file:///etc/passwd", outside, "../picked.jpg"} {
		body, err := json.Marshal(map[string]string{"source_uri": uri})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/items", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "source %q: %s", uri, w.Body.String())
	}

	entries, err := os.ReadDir(cfg.Blob.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is copied into the blob directory")
}

func TestSetupItemStore(t *testing.T) {
	ctx := context.Background()
	l, _ := logger.NewTestLogger(t)

	t.Run("file kv", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.KV = config.KVConfig{Backend: config.KVBackendFile, Dir: t.TempDir()}

		items, err := setupItemStore(ctx, cfg, l)
		require.NoError(t, err)
		require.NoError(t, items.Close())
	})

	t.Run("unknown store backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Store.Backend = "sqlite"

		_, err := setupItemStore(ctx, cfg, l)
		assert.ErrorContains(t, err, "unsupported store backend")
	})

	t.Run("unknown kv backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.KV.Backend = "etcd"

		_, err := setupItemStore(ctx, cfg, l)
		assert.ErrorContains(t, err, "unsupported kv backend")
	})
}

func TestSetupRelocator_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Blob.Backend = "ftp"
	l, _ := logger.NewTestLogger(t)

	_, err := setupRelocator(context.Background(), cfg, l)
	assert.ErrorContains(t, err, "unsupported blob backend")
}

func TestRunMigrations_RejectsBadInput(t *testing.T) {
	l, _ := logger.NewTestLogger(t)
	cfg := testConfig(t)

	err := runMigrations(context.Background(), cfg, "sideways", l)
	assert.ErrorContains(t, err, "unknown migration command")

	err = runMigrations(context.Background(), cfg, "up", l)
	assert.ErrorContains(t, err, "database.url is required")
}

func TestServe_StopsOnCancel(t *testing.T) {
	app := newTestApplication(t, testConfig(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, ln, app.setupRouter()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
