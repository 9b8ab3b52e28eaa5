package fetch

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premkondru/InstagramPostsScrapper/pkg/config"
	"github.com/premkondru/InstagramPostsScrapper/pkg/utils"
)

// testConfig returns an AppConfig with fast retry delays for testing
func testConfig(attempts int) *config.AppConfig {
	cfg := config.NewDefault()
	cfg.Retries = attempts
	cfg.Timeout = 5 * time.Second
	cfg.InitialRetryDelay = 5 * time.Millisecond
	cfg.MaxRetryDelay = 20 * time.Millisecond
	return cfg
}

// testLogger returns a logger that discards output
func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// mockServer creates an httptest.Server that walks through statusCodes per
// request (repeating the last) and serves body with contentType on 2xx.
// Returns the server and an atomic counter tracking request attempts.
func mockServer(t *testing.T, statusCodes []int, contentType string, body []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	attemptCount := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(attemptCount.Add(1)) - 1
		if idx >= len(statusCodes) {
			idx = len(statusCodes) - 1 // repeat last status
		}
		code := statusCodes[idx]
		if code >= 200 && code < 300 {
			if contentType != "" {
				w.Header().Set("Content-Type", contentType)
			}
			w.WriteHeader(code)
			w.Write(body)
			return
		}
		w.WriteHeader(code)
	}))
	t.Cleanup(server.Close)
	return server, attemptCount
}

func hashStemFor(rawURL string) string {
	return fmt.Sprintf("img_%x", sha1.Sum([]byte(rawURL)))[:14]
}

func TestDownload_Success(t *testing.T) {
	dir := t.TempDir()
	server, attempts := mockServer(t, []int{http.StatusOK}, "image/png", []byte("pixels"))

	fetcher := NewFetcher(server.Client(), testConfig(3), testLogger())
	name, err := fetcher.Download(context.Background(), server.URL+"/files/sunset.png", dir)

	require.NoError(t, err)
	assert.Equal(t, "sunset.png", name)
	assert.Equal(t, int32(1), attempts.Load())

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), data)
}

func TestDownload_404EveryAttempt(t *testing.T) {
	dir := t.TempDir()
	server, attempts := mockServer(t, []int{http.StatusNotFound}, "", nil)

	fetcher := NewFetcher(server.Client(), testConfig(3), testLogger())
	name, err := fetcher.Download(context.Background(), server.URL+"/files/gone.jpg", dir)

	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrRetryFailed))
	assert.True(t, errors.Is(err, utils.ErrClientHTTPError))
	assert.Empty(t, name)
	assert.Equal(t, int32(3), attempts.Load(), "retries=3 means exactly 3 attempts")

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "a failed download must not leave a file at the success path")
}

func TestDownload_RecoversAfterServerErrors(t *testing.T) {
	dir := t.TempDir()
	server, attempts := mockServer(t, []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusOK}, "image/png", []byte("ok"))

	fetcher := NewFetcher(server.Client(), testConfig(3), testLogger())
	name, err := fetcher.Download(context.Background(), server.URL+"/files/banner.png", dir)

	require.NoError(t, err)
	assert.Equal(t, "banner.png", name)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDownload_URLExtensionBeatsContentType(t *testing.T) {
	dir := t.TempDir()
	// Server claims webp, URL says png: the URL's non-default extension wins.
	server, _ := mockServer(t, []int{http.StatusOK}, "image/webp", []byte("x"))

	fetcher := NewFetcher(server.Client(), testConfig(1), testLogger())
	name, err := fetcher.Download(context.Background(), server.URL+"/files/banner.png", dir)

	require.NoError(t, err)
	assert.Equal(t, "banner.png", name)
}

func TestDownload_ContentTypeUsedWhenURLHasNoExtension(t *testing.T) {
	dir := t.TempDir()
	server, _ := mockServer(t, []int{http.StatusOK}, "image/webp", []byte("x"))

	fetcher := NewFetcher(server.Client(), testConfig(1), testLogger())
	name, err := fetcher.Download(context.Background(), server.URL+"/files/banner", dir)

	require.NoError(t, err)
	assert.Equal(t, "banner.webp", name)
}

func TestDownload_GenericStemFallsBackToHash(t *testing.T) {
	dir := t.TempDir()
	server, _ := mockServer(t, []int{http.StatusOK}, "image/jpeg", []byte("x"))

	rawURL := server.URL + "/download.jpg"
	fetcher := NewFetcher(server.Client(), testConfig(1), testLogger())
	name, err := fetcher.Download(context.Background(), rawURL, dir)

	require.NoError(t, err)
	assert.Equal(t, hashStemFor(rawURL)+".jpg", name)
}

func TestDownload_CollisionGetsCounterSuffix(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sunset.png"), []byte("old"), 0o644))

	server, _ := mockServer(t, []int{http.StatusOK}, "image/png", []byte("new"))
	fetcher := NewFetcher(server.Client(), testConfig(1), testLogger())
	name, err := fetcher.Download(context.Background(), server.URL+"/files/sunset.png", dir)

	require.NoError(t, err)
	assert.Equal(t, "sunset-1.png", name)

	old, _ := os.ReadFile(filepath.Join(dir, "sunset.png"))
	assert.Equal(t, []byte("old"), old, "existing file must not be overwritten")
}

func TestDownload_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	server, _ := mockServer(t, []int{http.StatusOK}, "image/png", []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(server.Client(), testConfig(3), testLogger())
	_, err := fetcher.Download(ctx, server.URL+"/a.png", dir)
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	cfg := config.NewDefault()
	_, err := cfg.Validate()
	require.NoError(t, err)

	client := NewClient(cfg.HTTPClientSettings, testLogger())
	require.NotNil(t, client)
	assert.Zero(t, client.Timeout, "per-attempt deadlines come from contexts, not the client")
}
