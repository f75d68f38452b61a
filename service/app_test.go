package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"cardboard/app/config"
	"cardboard/app/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.BadgerPath = filepath.Join(dir, "badger")
	cfg.Uploads.Dir = filepath.Join(dir, "uploads")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServerGracefulShutdown(t *testing.T) {
	cfg := testConfig(t)
	logger := logging.Discard()

	b, err := openBackend(t.Context(), cfg, logger)
	require.NoError(t, err)
	defer b.close(context.Background())

	handler, err := newHandler(t.Context(), cfg, b, logger)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			t.Errorf("Server error: %v", err)
		}
	}()

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/healthz", port))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(fmt.Sprintf("http://localhost:%d/api/posts", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestNewHandlerRejectsUnknownStorage(t *testing.T) {
	cfg := testConfig(t)
	b, err := openBackend(t.Context(), cfg, logging.Discard())
	require.NoError(t, err)
	defer b.close(context.Background())

	cfg.Uploads.Driver = "ftp"
	_, err = newHandler(t.Context(), cfg, b, logging.Discard())
	assert.ErrorContains(t, err, "image storage")
}

func TestTitleLimiterHonoursTrustProxy(t *testing.T) {
	cfg := config.Default()
	assert.False(t, titleLimiter(cfg).TrustProxy)

	cfg.TitleProbe.TrustProxy = true
	assert.True(t, titleLimiter(cfg).TrustProxy)
}
