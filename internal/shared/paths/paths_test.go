package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataDirHonorsOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv(dataDirEnv, root)

	dir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, root, dir)
}

func TestBlocklistCacheUnderDataDir(t *testing.T) {
	root := t.TempDir()
	t.Setenv(dataDirEnv, root)

	path, err := BlocklistCache()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "blocklist-cache.txt"), path)
}
