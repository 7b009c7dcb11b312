package blocklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCacheMissingFile(t *testing.T) {
	set := NewRuleSet()
	n, err := LoadCache(filepath.Join(t.TempDir(), "nope.txt"), set)
	require.NoError(t, err, "missing cache is a normal first launch")
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, set.Len())
}

func TestLoadCacheMergesIntoSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.txt")
	require.NoError(t, os.WriteFile(path, []byte("0.0.0.0 cached.example.com\n0.0.0.0 other.example.net\n"), 0o644))

	set := NewRuleSet()
	set.Bootstrap()
	before := set.Len()

	n, err := LoadCache(path, set)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, before+2, set.Len())
	assert.True(t, set.Has("cached.example.com"))
	assert.True(t, set.Has("doubleclick.net"), "fallback rules survive a cache merge")
}

func TestWriteCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "cache.txt")

	first := []byte("0.0.0.0 first.example.com\n")
	require.NoError(t, WriteCache(path, first))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := []byte("0.0.0.0 second.example.com\n")
	require.NoError(t, WriteCache(path, second))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, second, got, "rename replaces the previous cache")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLooksLikeHosts(t *testing.T) {
	assert.True(t, looksLikeHosts([]byte("0.0.0.0 ads.example.com\n")))
	assert.False(t, looksLikeHosts([]byte("")))
	assert.False(t, looksLikeHosts([]byte("<html><body>rate limited</body></html>")))
	assert.False(t, looksLikeHosts([]byte("# comments only\n")))
}
