// Package paths resolves the user-scoped locations the backend reads and
// writes. The workspace document lives under the lovstudio data directory so
// that the desktop shell and this backend agree on where state is kept.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DataDirName is the vendor directory under the user's home
	DataDirName = ".lovstudio"

	// AppDirName is the application directory under DataDirName
	AppDirName = "lovcode"

	// WorkspaceFile is the persisted workspace document
	WorkspaceFile = "workspace.json"
)

// HomeDir returns the user's home directory, falling back to the current
// directory when it cannot be determined.
func HomeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return "."
}

// AppDir returns ~/.lovstudio/lovcode
func AppDir() string {
	return filepath.Join(HomeDir(), DataDirName, AppDirName)
}

// DefaultWorkspacePath returns ~/.lovstudio/lovcode/workspace.json
func DefaultWorkspacePath() string {
	return filepath.Join(AppDir(), WorkspaceFile)
}

// Expand replaces a leading "~" with the user's home directory.
func Expand(path string) string {
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}
	return path
}

// BaseName returns the final path component used as a display name.
// Trailing separators are ignored; an empty result yields "Unknown".
func BaseName(path string) string {
	trimmed := strings.TrimRight(path, `/\`)
	if trimmed == "" {
		return "Unknown"
	}
	if i := strings.LastIndexAny(trimmed, `/\`); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if trimmed == "" || trimmed == "." || trimmed == ".." {
		return "Unknown"
	}
	return trimmed
}

// ValidateWorkingDir checks that dir exists and is a directory.
func ValidateWorkingDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("working directory cannot be empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("working directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("working directory %q is not a directory", dir)
	}
	return nil
}
