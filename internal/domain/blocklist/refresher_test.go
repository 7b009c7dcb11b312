package blocklist

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRefreshMergesAndPersists(t *testing.T) {
	body := "0.0.0.0 remote.example.com\n0.0.0.0 fresh.example.net\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "cache.txt")
	set := NewRuleSet()
	set.Bootstrap()

	r := NewRefresher(RefresherConfig{SourceURL: srv.URL, CachePath: cachePath}, set, zap.NewNop())
	require.NoError(t, r.Refresh(context.Background()))

	assert.True(t, set.Has("remote.example.com"))
	assert.True(t, set.Has("fresh.example.net"))
	assert.True(t, set.Has("doubleclick.net"), "remote merge never drops fallback rules")

	persisted, err := os.ReadFile(cachePath)
	require.NoError(t, err)
	assert.Equal(t, body, string(persisted), "cache stores the raw remote content")
}

func TestRefreshGzipBody(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("0.0.0.0 gzipped.example.com\n"))
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Raw gzip bytes with no Content-Encoding header, as some
		// mirrors serve list files.
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	set := NewRuleSet()
	r := NewRefresher(RefresherConfig{SourceURL: srv.URL}, set, zap.NewNop())
	require.NoError(t, r.Refresh(context.Background()))
	assert.True(t, set.Has("gzipped.example.com"))
}

func TestRefreshRejectsNonHostsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>503 backend unavailable</body></html>"))
	}))
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "cache.txt")
	set := NewRuleSet()
	set.Bootstrap()
	before := set.Len()

	r := NewRefresher(RefresherConfig{SourceURL: srv.URL, CachePath: cachePath}, set, zap.NewNop())
	err := r.Refresh(context.Background())
	require.Error(t, err)

	assert.Equal(t, before, set.Len(), "garbage content must not change rules")
	_, statErr := os.Stat(cachePath)
	assert.True(t, os.IsNotExist(statErr), "garbage content must not replace the cache")
}

func TestRefreshHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	set := NewRuleSet()
	r := NewRefresher(RefresherConfig{SourceURL: srv.URL}, set, zap.NewNop())
	err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestStartReportsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0.0.0.0 async.example.com\n"))
	}))
	defer srv.Close()

	set := NewRuleSet()
	r := NewRefresher(RefresherConfig{SourceURL: srv.URL}, set, zap.NewNop())

	results := make(chan error, 1)
	r.OnResult(func(err error) { results <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	select {
	case err := <-results:
		assert.NoError(t, err)
		assert.True(t, set.Has("async.example.com"))
	case <-time.After(5 * time.Second):
		t.Fatal("initial refresh never reported")
	}
}

func TestRefresherDefaults(t *testing.T) {
	r := NewRefresher(RefresherConfig{}, NewRuleSet(), zap.NewNop())
	assert.Equal(t, DefaultSourceURL, r.cfg.SourceURL)
	assert.NotZero(t, r.cfg.Timeout)
	assert.NotZero(t, r.cfg.Interval)
}
