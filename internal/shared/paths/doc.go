// Package paths provides standardized filesystem paths for the backend's
// per-user data directory.
//
// # Usage
//
//	import "github.com/flowscape/flowscape/backend/internal/shared/paths"
//
//	cache, err := paths.BlocklistCache()
//
// Set FLOWSCAPE_DATA_DIR to relocate everything, e.g. for tests or
// portable installs.
package paths
