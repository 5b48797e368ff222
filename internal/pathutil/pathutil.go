// Package pathutil validates user-supplied output paths before anything
// is written to them.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilePath rejects empty paths, paths containing null bytes, and
// paths with a ".." segment. Segments are checked before any cleaning so
// that "out/../secrets.csv" is caught rather than silently collapsing to
// a sibling directory.
func ValidateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("file path contains invalid characters")
	}

	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == ".." {
			return fmt.Errorf("file path contains path traversal: %q", path)
		}
	}
	return nil
}
