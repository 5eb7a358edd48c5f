// Package paths resolves the on-disk locations of the telemetry identity
// files.
package paths

import (
	"os"
	"path/filepath"
)

const (
	// appDir is the config namespace owning the primary identity file.
	appDir = "iterative"
	// legacyDir is the config namespace of the predecessor tool (DVC)
	// that shares the same telemetry backend.
	legacyDir = "dvc"
)

// ConfigDir returns the OS-appropriate per-user configuration directory.
//
// If it cannot be determined, it falls back to a directory under the system
// temporary directory. This is a best-effort fallback and not intended to be
// a security boundary.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to temp directory
		return filepath.Clean(filepath.Join(os.TempDir(), ".iterative-config"))
	}
	return filepath.Clean(dir)
}

// UserIDPath returns the primary identity file location.
func UserIDPath() string {
	return filepath.Join(ConfigDir(), appDir, "telemetry")
}

// LegacyUserIDPath returns the identity file location used by legacy DVC
// installations. It is read during migration and written back so old
// installations keep reporting under the same id.
func LegacyUserIDPath() string {
	return filepath.Join(ConfigDir(), legacyDir, "user_id")
}
