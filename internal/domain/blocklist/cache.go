package blocklist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadCache merges a previously persisted hosts-format cache file into the
// set. A missing file is not an error; a corrupt file returns one so the
// caller can log it, but the fallback rules remain in place either way.
func LoadCache(path string, set *RuleSet) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open blocklist cache: %w", err)
	}
	defer f.Close()

	domains, err := ParseHosts(f)
	if err != nil {
		return 0, fmt.Errorf("parse blocklist cache: %w", err)
	}
	set.AddAll(domains)
	return len(domains), nil
}

// WriteCache persists raw remote list content verbatim, atomically replacing
// the previous cache so a crash mid-write never leaves a truncated file.
func WriteCache(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".blocklist-*")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// looksLikeHosts sanity-checks remote content before it replaces the cache:
// at least one parsable rule line must be present.
func looksLikeHosts(content []byte) bool {
	domains, err := ParseHosts(strings.NewReader(string(content)))
	return err == nil && len(domains) > 0
}
