// Package imagestore provides loaders and savers that keep externalized
// images in a directory or a SQLite database.
package imagestore

import (
	"fmt"
	"path"
	"strings"
)

// CheckName validates an image reference. Names are relative slash paths
// that stay inside the store.
func CheckName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty image name")
	}
	if strings.Contains(name, "://") || strings.HasPrefix(strings.ToLower(name), "data:") {
		return "", fmt.Errorf("remote image reference %q", name)
	}
	name = strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(name) || (len(name) > 1 && name[1] == ':') {
		return "", fmt.Errorf("absolute image path %q", name)
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("image path %q escapes the store", name)
	}
	return clean, nil
}
