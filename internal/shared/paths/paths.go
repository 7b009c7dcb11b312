package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// Env override for the data root, used by tests and portable installs.
const dataDirEnv = "FLOWSCAPE_DATA_DIR"

const appDirName = "flowscape"

// DataDir returns the application-private data directory, creating it if
// necessary. Resolution order: $FLOWSCAPE_DATA_DIR, then the OS user config
// dir, then a temp-dir fallback.
func DataDir() (string, error) {
	if dir := os.Getenv(dataDirEnv); dir != "" {
		return ensureDir(dir)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ensureDir(filepath.Join(os.TempDir(), appDirName))
	}
	return ensureDir(filepath.Join(base, appDirName))
}

// BlocklistCache returns the path of the persisted blocklist cache file.
func BlocklistCache() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "blocklist-cache.txt"), nil
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return dir, nil
}
